package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fap-client/internal/domain"
	"fap-client/internal/infrastructure/broadcast"
	"fap-client/metrics"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// SessionReader exposes the signed-in identity.
type SessionReader interface {
	State() domain.AuthState
}

// RelationshipStore keeps the projection of the signed-in user's
// relationships. Mutations are serialized and each is followed by a full
// reload; the projection is never patched locally.
//
// Every fetch takes a ticket when it starts. A fetch only replaces the
// projection if no mutation succeeded and no later fetch landed after its
// ticket was issued, and if the session still belongs to the user it fetched for.
type RelationshipStore struct {
	svc     domain.RelationshipService
	session SessionReader
	view    *broadcast.Value[domain.Projection]
	loads   singleflight.Group
	opMu    sync.Mutex
	now     func() time.Time
	logger  *slog.Logger

	viewMu  sync.Mutex
	tickets uint64
	barrier uint64
	stored  uint64
}

// NewRelationshipStore creates a store with an empty projection.
func NewRelationshipStore(svc domain.RelationshipService, session SessionReader, logger *slog.Logger) *RelationshipStore {
	return &RelationshipStore{
		svc:     svc,
		session: session,
		view:    broadcast.New(domain.EmptyProjection()),
		now:     time.Now,
		logger:  logger,
	}
}

// Projection returns the latest projection. A projection loaded for anyone
// other than the signed-in user reads as empty.
func (s *RelationshipStore) Projection() domain.Projection {
	p := s.view.Load().Value
	if p.Loaded() && !s.owns(p) {
		return domain.EmptyProjection()
	}
	return p
}

// Subscribe streams projections starting with the current one.
func (s *RelationshipStore) Subscribe() (<-chan broadcast.Snapshot[domain.Projection], func()) {
	return s.view.Subscribe()
}

// Reset drops the projection and discards every fetch still in flight.
func (s *RelationshipStore) Reset() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.tickets++
	s.barrier = s.tickets
	s.stored = s.tickets
	s.view.Store(domain.EmptyProjection())
}

// DiscardForeign drops the projection if it was loaded for a user other than
// the one signed in now. Fetches for the current user are left to land.
func (s *RelationshipStore) DiscardForeign() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	if p := s.view.Load().Value; p.Loaded() && !s.owns(p) {
		s.view.Store(domain.EmptyProjection())
	}
}

func (s *RelationshipStore) owns(p domain.Projection) bool {
	id, ok := s.session.State().UserID()
	if !ok {
		return p.SelfID == 0
	}
	return id == p.SelfID
}

func (s *RelationshipStore) ticket() uint64 {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.tickets++
	return s.tickets
}

// invalidate marks every fetch issued so far as stale.
func (s *RelationshipStore) invalidate() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.tickets++
	s.barrier = s.tickets
}

func (s *RelationshipStore) commit(ticket uint64, p domain.Projection) bool {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	if ticket <= s.barrier || ticket < s.stored || !s.owns(p) {
		return false
	}
	s.stored = ticket
	s.view.Store(p)
	return true
}

// LoadAll fetches the four lists concurrently and replaces the projection.
// Concurrent callers share one fetch. On failure the previous projection is
// kept and returned alongside the error.
func (s *RelationshipStore) LoadAll(ctx context.Context) (domain.Projection, error) {
	v, err, shared := s.loads.Do("load", func() (any, error) {
		return s.fetch(ctx)
	})
	if shared {
		s.logger.DebugContext(ctx, "joined in-flight relationship load")
	}
	if err != nil {
		return s.Projection(), err
	}
	if p, ok := v.(domain.Projection); ok {
		return p, nil
	}
	return s.Projection(), nil
}

// fetch returns the committed projection, or nil when the result was stale.
func (s *RelationshipStore) fetch(ctx context.Context) (any, error) {
	ctx, span := tracer.Start(ctx, "RelationshipStore.LoadAll")
	defer span.End()

	ticket := s.ticket()
	self, _ := s.session.State().UserID()

	var (
		friends, available []domain.User
		sent, received     []domain.FriendRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { friends, err = s.svc.Friends(gctx); return err })
	g.Go(func() (err error) { available, err = s.svc.AvailableUsers(gctx); return err })
	g.Go(func() (err error) { sent, err = s.svc.SentRequests(gctx); return err })
	g.Go(func() (err error) { received, err = s.svc.ReceivedRequests(gctx); return err })

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		metrics.RecordRelationshipOperation("load", err)
		s.logger.WarnContext(ctx, "relationship load failed, keeping previous projection", "error", err)
		if domain.StatusCode(err) == http.StatusUnauthorized {
			err = fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProjectionUnavailable, err)
	}

	p := domain.Projection{
		SelfID:           self,
		Friends:          nonNil(friends),
		ReceivedRequests: nonNil(received),
		SentRequests:     nonNil(sent),
		Available:        nonNil(available),
		LoadedAt:         s.now(),
	}
	p.Discoverable = Discoverable(p)

	if !s.commit(ticket, p) {
		// superseded; keep whatever was committed since
		span.SetAttributes(attribute.Bool("fap.stale", true))
		s.logger.DebugContext(ctx, "discarded stale relationship load", "ticket", ticket)
		return nil, nil
	}
	metrics.RecordRelationshipOperation("load", nil)
	span.SetAttributes(
		attribute.Int("fap.friends", len(p.Friends)),
		attribute.Int("fap.discoverable", len(p.Discoverable)),
	)
	return p, nil
}

// Create sends a friend request to targetID.
func (s *RelationshipStore) Create(ctx context.Context, targetID int64) (*domain.FriendRequest, error) {
	return s.mutate(ctx, "create", func(ctx context.Context) (*domain.FriendRequest, error) {
		if self, ok := s.session.State().UserID(); ok && self == targetID {
			return nil, fmt.Errorf("%w: cannot send a friend request to yourself", domain.ErrRelationshipConflict)
		}
		return s.svc.SendRequest(ctx, targetID)
	})
}

// Accept accepts a received request.
func (s *RelationshipStore) Accept(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return s.transition(ctx, domain.TransitionAccept, requestID, s.svc.AcceptRequest)
}

// Decline declines a received request.
func (s *RelationshipStore) Decline(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return s.transition(ctx, domain.TransitionDecline, requestID, s.svc.DeclineRequest)
}

// Cancel withdraws a sent request.
func (s *RelationshipStore) Cancel(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return s.transition(ctx, domain.TransitionCancel, requestID, s.svc.CancelRequest)
}

// Remove ends a friendship once confirm approves it.
func (s *RelationshipStore) Remove(ctx context.Context, friendID int64, confirm domain.Confirm) error {
	_, err := s.mutate(ctx, "remove", func(ctx context.Context) (*domain.FriendRequest, error) {
		friend, ok := s.Projection().FindFriend(friendID)
		if !ok {
			friend = domain.User{ID: friendID}
		}
		if confirm == nil || !confirm(ctx, friend) {
			return nil, domain.ErrNotConfirmed
		}
		return nil, s.svc.RemoveFriend(ctx, friendID)
	})
	return err
}

type requestCall func(ctx context.Context, requestID int64) (*domain.FriendRequest, error)

func (s *RelationshipStore) transition(ctx context.Context, t domain.Transition, requestID int64, call requestCall) (*domain.FriendRequest, error) {
	return s.mutate(ctx, string(t), func(ctx context.Context) (*domain.FriendRequest, error) {
		if req, ok := s.Projection().FindRequest(requestID); ok {
			self, _ := s.session.State().UserID()
			if err := req.CanApply(t, self); err != nil {
				return nil, err
			}
		}
		return call(ctx, requestID)
	})
}

// mutate runs fn under the operation lock and reloads afterwards. Once fn
// succeeds, loads issued before it can no longer commit. A failed reload is
// reported but does not undo the mutation.
func (s *RelationshipStore) mutate(ctx context.Context, op string, fn func(context.Context) (*domain.FriendRequest, error)) (*domain.FriendRequest, error) {
	ctx, span := tracer.Start(ctx, "RelationshipStore."+op)
	defer span.End()

	s.opMu.Lock()
	defer s.opMu.Unlock()

	res, err := fn(ctx)
	if err != nil {
		err = classifyMutationError(err)
		span.RecordError(err)
		metrics.RecordRelationshipOperation(op, err)
		s.logger.WarnContext(ctx, "relationship operation failed", "operation", op, "error", err)
		return nil, err
	}
	metrics.RecordRelationshipOperation(op, nil)
	s.logger.InfoContext(ctx, "relationship operation succeeded", "operation", op)
	s.invalidate()

	if _, err := s.fetch(ctx); err != nil {
		return res, fmt.Errorf("%s succeeded but reload failed: %w", op, err)
	}
	return res, nil
}

func classifyMutationError(err error) error {
	if errors.Is(err, domain.ErrRelationshipConflict) {
		return err
	}
	switch domain.StatusCode(err) {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict:
		return fmt.Errorf("%w: %w", domain.ErrRelationshipConflict, err)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
	}
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
