package handler

import (
	"context"
	"time"

	"fap-client/internal/domain"
	"fap-client/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// MockSessionService is a mock implementation of SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) State() domain.AuthState {
	args := m.Called()
	return args.Get(0).(domain.AuthState)
}

func (m *MockSessionService) Expiry() (time.Time, bool) {
	args := m.Called()
	return args.Get(0).(time.Time), args.Bool(1)
}

func (m *MockSessionService) CheckExpiration(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockSessionService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResult), args.Error(1)
}

func (m *MockSessionService) Register(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockSessionService) Logout(ctx context.Context) {
	m.Called(ctx)
}

// MockRelationshipManager is a mock implementation of RelationshipManager.
type MockRelationshipManager struct {
	mock.Mock
}

func (m *MockRelationshipManager) Projection() domain.Projection {
	args := m.Called()
	return args.Get(0).(domain.Projection)
}

func (m *MockRelationshipManager) LoadAll(ctx context.Context) (domain.Projection, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Projection), args.Error(1)
}

func (m *MockRelationshipManager) request(args mock.Arguments) (*domain.FriendRequest, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FriendRequest), args.Error(1)
}

func (m *MockRelationshipManager) Create(ctx context.Context, targetID int64) (*domain.FriendRequest, error) {
	return m.request(m.Called(ctx, targetID))
}

func (m *MockRelationshipManager) Accept(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return m.request(m.Called(ctx, requestID))
}

func (m *MockRelationshipManager) Decline(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return m.request(m.Called(ctx, requestID))
}

func (m *MockRelationshipManager) Cancel(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return m.request(m.Called(ctx, requestID))
}

func (m *MockRelationshipManager) Remove(ctx context.Context, friendID int64, confirm domain.Confirm) error {
	args := m.Called(ctx, friendID, confirm)
	return args.Error(0)
}

// MockProber is a mock implementation of AvailabilityProber.
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context, field usecase.ProbeField, value string) (bool, error) {
	args := m.Called(ctx, field, value)
	return args.Bool(0), args.Error(1)
}
