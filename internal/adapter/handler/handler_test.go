package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fap-client/internal/domain"
	"fap-client/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var alice = domain.User{ID: 1, Username: "alice", Email: "alice@example.com"}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestSessionHandler_Get(t *testing.T) {
	t.Run("authenticated session includes user and expiry", func(t *testing.T) {
		svc := new(MockSessionService)
		exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		svc.On("CheckExpiration", mock.Anything).Return(false)
		svc.On("State").Return(domain.Authenticated(alice, "tok"))
		svc.On("Expiry").Return(exp, true)

		c, rec := newContext(http.MethodGet, "/api/session", "")
		require.NoError(t, NewSessionHandler(svc).Get(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, "alice", body["user"].(map[string]any)["username"])
		assert.Equal(t, "2030-01-01T00:00:00Z", body["expiresAt"])
		assert.NotContains(t, rec.Body.String(), "tok")
		svc.AssertExpectations(t)
	})

	t.Run("signed out session", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("CheckExpiration", mock.Anything).Return(true)
		svc.On("State").Return(domain.Unauthenticated())
		svc.On("Expiry").Return(time.Time{}, false)

		c, rec := newContext(http.MethodGet, "/api/session", "")
		require.NoError(t, NewSessionHandler(svc).Get(c))

		body := decode(t, rec)
		assert.Equal(t, false, body["authenticated"])
		assert.NotContains(t, body, "user")
	})
}

func TestSessionHandler_Login(t *testing.T) {
	t.Run("success returns redirect", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Login", mock.Anything, "alice@example.com", "secret12").
			Return(&domain.LoginResult{State: domain.Authenticated(alice, "tok"), RedirectTo: "/friends"}, nil)
		svc.On("State").Return(domain.Authenticated(alice, "tok"))
		svc.On("Expiry").Return(time.Time{}, false)

		c, rec := newContext(http.MethodPost, "/api/session/login", `{"email":"alice@example.com","password":"secret12"}`)
		require.NoError(t, NewSessionHandler(svc).Login(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "/friends", body["redirectTo"])
		assert.Equal(t, true, body["authenticated"])
	})

	t.Run("invalid credentials map to 401", func(t *testing.T) {
		svc := new(MockSessionService)
		svc.On("Login", mock.Anything, "alice@example.com", "wrong").
			Return(nil, &domain.AuthError{Kind: domain.AuthKindInvalidCredentials, Message: "invalid credentials", Status: 401})

		c, _ := newContext(http.MethodPost, "/api/session/login", `{"email":"alice@example.com","password":"wrong"}`)
		err := NewSessionHandler(svc).Login(c)

		assert.Equal(t, http.StatusUnauthorized, httpCode(t, err))
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockSessionService)
		c, _ := newContext(http.MethodPost, "/api/session/login", `{"email":`)
		err := NewSessionHandler(svc).Login(c)

		assert.Equal(t, http.StatusBadRequest, httpCode(t, err))
		svc.AssertNotCalled(t, "Login")
	})
}

func TestSessionHandler_LogoutAndRegister(t *testing.T) {
	svc := new(MockSessionService)
	svc.On("Logout", mock.Anything).Return()

	c, rec := newContext(http.MethodPost, "/api/session/logout", "")
	require.NoError(t, NewSessionHandler(svc).Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	profile := domain.Profile{
		Username: "carol", Email: "carol@example.com", Password: "abcdef12",
		City: "Graz", ZipCode: "8010", Street: "Hauptplatz", HouseNumber: "1", Mobile: "0664",
	}
	svc.On("Register", mock.Anything, profile).Return(&domain.User{ID: 3, Username: "carol", Email: "carol@example.com"}, nil)

	payload, err := json.Marshal(profile)
	require.NoError(t, err)
	c, rec = newContext(http.MethodPost, "/api/register", string(payload))
	require.NoError(t, NewSessionHandler(svc).Register(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "carol", decode(t, rec)["username"])
	svc.AssertExpectations(t)
}

func TestAvailabilityHandler(t *testing.T) {
	prober := new(MockProber)
	prober.On("Probe", mock.Anything, usecase.FieldUsername, "alice").Return(false, nil)
	prober.On("Probe", mock.Anything, usecase.FieldEmail, "new@example.com").Return(true, nil)
	prober.On("Probe", mock.Anything, usecase.FieldEmail, "slow@example.com").Return(false, domain.ErrProbeSuperseded)

	h := NewAvailabilityHandler(prober)

	c, rec := newContext(http.MethodGet, "/api/availability/username?value=alice", "")
	require.NoError(t, h.Username(c))
	body := decode(t, rec)
	assert.Equal(t, "username", body["field"])
	assert.Equal(t, false, body["available"])

	c, rec = newContext(http.MethodGet, "/api/availability/email?value=new@example.com", "")
	require.NoError(t, h.Email(c))
	assert.Equal(t, true, decode(t, rec)["available"])

	c, _ = newContext(http.MethodGet, "/api/availability/email?value=slow@example.com", "")
	assert.Equal(t, http.StatusConflict, httpCode(t, h.Email(c)))
}

func loadedProjection() domain.Projection {
	p := domain.EmptyProjection()
	p.SelfID = alice.ID
	p.Friends = []domain.User{{ID: 2, Username: "bob"}}
	p.LoadedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return p
}

func TestFriendsHandler_List(t *testing.T) {
	t.Run("loads on first use", func(t *testing.T) {
		store := new(MockRelationshipManager)
		store.On("Projection").Return(domain.EmptyProjection())
		store.On("LoadAll", mock.Anything).Return(loadedProjection(), nil)

		c, rec := newContext(http.MethodGet, "/api/friends", "")
		require.NoError(t, NewFriendsHandler(store, slog.Default()).List(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode(t, rec)["friends"], 1)
		store.AssertExpectations(t)
	})

	t.Run("serves the cached projection", func(t *testing.T) {
		store := new(MockRelationshipManager)
		store.On("Projection").Return(loadedProjection())

		c, _ := newContext(http.MethodGet, "/api/friends", "")
		require.NoError(t, NewFriendsHandler(store, slog.Default()).List(c))

		store.AssertNotCalled(t, "LoadAll", mock.Anything)
	})

	t.Run("load failure maps to 502", func(t *testing.T) {
		store := new(MockRelationshipManager)
		store.On("Projection").Return(domain.EmptyProjection())
		store.On("LoadAll", mock.Anything).
			Return(domain.EmptyProjection(), fmt.Errorf("%w: %w", domain.ErrProjectionUnavailable, errors.New("boom")))

		c, _ := newContext(http.MethodGet, "/api/friends", "")
		err := NewFriendsHandler(store, slog.Default()).List(c)

		assert.Equal(t, http.StatusBadGateway, httpCode(t, err))
	})
}

func TestFriendsHandler_Mutations(t *testing.T) {
	req := &domain.FriendRequest{ID: 7, Sender: alice, Receiver: domain.User{ID: 3}, Status: domain.StatusPending}

	t.Run("create", func(t *testing.T) {
		store := new(MockRelationshipManager)
		store.On("Create", mock.Anything, int64(3)).Return(req, nil)
		store.On("Projection").Return(loadedProjection())

		c, rec := newContext(http.MethodPost, "/api/friends/requests/3", "")
		c.SetParamNames("targetId")
		c.SetParamValues("3")
		require.NoError(t, NewFriendsHandler(store, slog.Default()).Create(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(7), body["request"].(map[string]any)["id"])
		assert.NotContains(t, body, "stale")
	})

	t.Run("accept conflict maps to 409", func(t *testing.T) {
		store := new(MockRelationshipManager)
		store.On("Accept", mock.Anything, int64(7)).
			Return(nil, fmt.Errorf("%w: only the receiver may accept request 7", domain.ErrRelationshipConflict))

		c, _ := newContext(http.MethodPost, "/api/friends/requests/7/accept", "")
		c.SetParamNames("id")
		c.SetParamValues("7")
		err := NewFriendsHandler(store, slog.Default()).Accept(c)

		assert.Equal(t, http.StatusConflict, httpCode(t, err))
	})

	t.Run("reload failure after decline is reported stale", func(t *testing.T) {
		store := new(MockRelationshipManager)
		store.On("Decline", mock.Anything, int64(7)).
			Return(req, fmt.Errorf("decline succeeded but reload failed: %w", domain.ErrProjectionUnavailable))
		store.On("Projection").Return(loadedProjection())

		c, rec := newContext(http.MethodPost, "/api/friends/requests/7/decline", "")
		c.SetParamNames("id")
		c.SetParamValues("7")
		require.NoError(t, NewFriendsHandler(store, slog.Default()).Decline(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["stale"])
	})

	t.Run("cancel with invalid id", func(t *testing.T) {
		store := new(MockRelationshipManager)
		c, _ := newContext(http.MethodPost, "/api/friends/requests/x/cancel", "")
		c.SetParamNames("id")
		c.SetParamValues("x")
		err := NewFriendsHandler(store, slog.Default()).Cancel(c)

		assert.Equal(t, http.StatusBadRequest, httpCode(t, err))
		store.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	})
}

func TestFriendsHandler_Remove(t *testing.T) {
	confirmWith := func(want bool) any {
		return mock.MatchedBy(func(confirm domain.Confirm) bool {
			return confirm != nil && confirm(context.Background(), domain.User{ID: 2}) == want
		})
	}

	t.Run("confirmed", func(t *testing.T) {
		store := new(MockRelationshipManager)
		store.On("Remove", mock.Anything, int64(2), confirmWith(true)).Return(nil)
		store.On("Projection").Return(loadedProjection())

		c, rec := newContext(http.MethodDelete, "/api/friends/2?confirm=true", "")
		c.SetParamNames("id")
		c.SetParamValues("2")
		require.NoError(t, NewFriendsHandler(store, slog.Default()).Remove(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		store.AssertExpectations(t)
	})

	t.Run("unconfirmed", func(t *testing.T) {
		store := new(MockRelationshipManager)
		store.On("Remove", mock.Anything, int64(2), confirmWith(false)).Return(domain.ErrNotConfirmed)

		c, _ := newContext(http.MethodDelete, "/api/friends/2", "")
		c.SetParamNames("id")
		c.SetParamValues("2")
		err := NewFriendsHandler(store, slog.Default()).Remove(c)

		assert.Equal(t, http.StatusBadRequest, httpCode(t, err))
	})
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health", "")
	require.NoError(t, NewHealthHandler(nil).Handle(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	c, rec = newContext(http.MethodGet, "/health", "")
	require.NoError(t, NewHealthHandler(down).Handle(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPagesHandler(t *testing.T) {
	svc := new(MockSessionService)
	svc.On("State").Return(domain.Authenticated(alice, "tok"))
	h := NewPagesHandler(svc)

	c, rec := newContext(http.MethodGet, "/dashboard", "")
	require.NoError(t, h.Dashboard(c))
	body := decode(t, rec)
	assert.Equal(t, "dashboard", body["page"])
	assert.Equal(t, "alice", body["user"].(map[string]any)["username"])

	c, rec = newContext(http.MethodGet, "/auth?returnUrl=%2Ffriends", "")
	require.NoError(t, h.Auth(c))
	assert.Equal(t, "/friends", decode(t, rec)["returnUrl"])
}
