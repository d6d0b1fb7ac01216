package usecase

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"fap-client/internal/domain"
)

// fakeRelationshipService is an in-memory relationship service acting on
// behalf of one signed-in user.
type fakeRelationshipService struct {
	mu       sync.Mutex
	self     int64
	users    map[int64]domain.User
	requests []*domain.FriendRequest
	nextID   int64
	calls    map[string]int
}

func newFakeRelationshipService(self int64, users ...domain.User) *fakeRelationshipService {
	f := &fakeRelationshipService{self: self, users: map[int64]domain.User{}, nextID: 1, calls: map[string]int{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeRelationshipService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRelationshipService) record(name string) {
	f.calls[name]++
}

func (f *fakeRelationshipService) Friends(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("friends")

	var out []domain.User
	for _, r := range f.requests {
		if r.Status != domain.StatusAccepted {
			continue
		}
		switch f.self {
		case r.Sender.ID:
			out = append(out, r.Receiver)
		case r.Receiver.ID:
			out = append(out, r.Sender)
		}
	}
	return out, nil
}

func (f *fakeRelationshipService) AvailableUsers(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("available")

	var out []domain.User
	for id, u := range f.users {
		if id != f.self {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRelationshipService) SentRequests(context.Context) ([]domain.FriendRequest, error) {
	return f.pending("sent", func(r *domain.FriendRequest) bool { return r.Sender.ID == f.self }), nil
}

func (f *fakeRelationshipService) ReceivedRequests(context.Context) ([]domain.FriendRequest, error) {
	return f.pending("received", func(r *domain.FriendRequest) bool { return r.Receiver.ID == f.self }), nil
}

func (f *fakeRelationshipService) pending(name string, match func(*domain.FriendRequest) bool) []domain.FriendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(name)

	var out []domain.FriendRequest
	for _, r := range f.requests {
		if r.Status == domain.StatusPending && match(r) {
			out = append(out, *r)
		}
	}
	return out
}

func (f *fakeRelationshipService) SendRequest(_ context.Context, receiverID int64) (*domain.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("send")

	receiver, ok := f.users[receiverID]
	if !ok {
		return nil, &domain.StatusError{Code: http.StatusNotFound, Message: "User not found"}
	}
	for _, r := range f.requests {
		live := r.Status == domain.StatusPending || r.Status == domain.StatusAccepted
		between := (r.Sender.ID == f.self && r.Receiver.ID == receiverID) || (r.Sender.ID == receiverID && r.Receiver.ID == f.self)
		if live && between {
			return nil, &domain.StatusError{Code: http.StatusConflict, Message: "Friend request already exists"}
		}
	}
	r := &domain.FriendRequest{
		ID:          f.nextID,
		Sender:      f.users[f.self],
		Receiver:    receiver,
		RequestTime: domain.Timestamp{Time: time.Now()},
		Status:      domain.StatusPending,
	}
	f.nextID++
	f.requests = append(f.requests, r)
	out := *r
	return &out, nil
}

// receive seeds a pending request from senderID to the signed-in user.
func (f *fakeRelationshipService) receive(senderID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := &domain.FriendRequest{ID: f.nextID, Sender: f.users[senderID], Receiver: f.users[f.self], Status: domain.StatusPending}
	f.nextID++
	f.requests = append(f.requests, r)
	return r.ID
}

func (f *fakeRelationshipService) apply(name string, id int64, t domain.Transition) (*domain.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(name)

	for _, r := range f.requests {
		if r.ID != id {
			continue
		}
		if err := r.Apply(t, f.self, time.Now()); err != nil {
			return nil, &domain.StatusError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		out := *r
		return &out, nil
	}
	return nil, &domain.StatusError{Code: http.StatusNotFound, Message: "Friend request not found"}
}

func (f *fakeRelationshipService) AcceptRequest(_ context.Context, id int64) (*domain.FriendRequest, error) {
	return f.apply("accept", id, domain.TransitionAccept)
}

func (f *fakeRelationshipService) DeclineRequest(_ context.Context, id int64) (*domain.FriendRequest, error) {
	return f.apply("decline", id, domain.TransitionDecline)
}

func (f *fakeRelationshipService) CancelRequest(_ context.Context, id int64) (*domain.FriendRequest, error) {
	return f.apply("cancel", id, domain.TransitionCancel)
}

// RemoveFriend retires the accepted request so the pair may request again.
func (f *fakeRelationshipService) RemoveFriend(_ context.Context, friendID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("remove")

	for i, r := range f.requests {
		between := (r.Sender.ID == f.self && r.Receiver.ID == friendID) || (r.Sender.ID == friendID && r.Receiver.ID == f.self)
		if r.Status == domain.StatusAccepted && between {
			f.requests = append(f.requests[:i], f.requests[i+1:]...)
			return nil
		}
	}
	return &domain.StatusError{Code: http.StatusNotFound, Message: "Friendship not found"}
}
