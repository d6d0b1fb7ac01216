package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fap-client/internal/domain"
	"fap-client/internal/infrastructure/broadcast"
	"fap-client/metrics"
	"fap-client/utils/validator"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Persisted session keys.
const (
	TokenKey    = "fap_auth_token"
	UserKey     = "fap_current_user"
	RedirectKey = "fap_redirect_url"
)

// DefaultLandingRoute is used after login when no redirect was remembered.
const DefaultLandingRoute = "/dashboard"

var tracer = otel.Tracer("fap-client/usecase")

// SessionOptions tunes a SessionManager.
type SessionOptions struct {
	LandingRoute string
	Now          func() time.Time
}

// SessionManager owns the authentication lifecycle for the process. It is the
// only writer of the session state.
type SessionManager struct {
	issuer    domain.IdentityIssuer
	codec     domain.TokenCodec
	store     domain.KeyValueStore
	validator *validator.Validator
	state     *broadcast.Value[domain.AuthState]
	landing   string
	now       func() time.Time
	logger    *slog.Logger

	mu       sync.Mutex
	initOnce sync.Once
}

// NewSessionManager creates a new SessionManager in the unauthenticated state.
func NewSessionManager(issuer domain.IdentityIssuer, codec domain.TokenCodec, store domain.KeyValueStore, v *validator.Validator, opts SessionOptions, logger *slog.Logger) *SessionManager {
	if opts.LandingRoute == "" {
		opts.LandingRoute = DefaultLandingRoute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionManager{
		issuer:    issuer,
		codec:     codec,
		store:     store,
		validator: v,
		state:     broadcast.New(domain.Unauthenticated()),
		landing:   opts.LandingRoute,
		now:       opts.Now,
		logger:    logger,
	}
}

// Initialize restores the session from storage. It runs once per manager;
// later calls are no-ops. A missing or expired session silently resets.
func (m *SessionManager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		state, ok := m.restore(ctx)
		if !ok {
			m.clearStored(ctx)
			m.publish(domain.Unauthenticated(), "initialize")
			return
		}
		m.publish(state, "restore")
		m.logger.InfoContext(ctx, "session restored", "user_id", state.User.ID)
	})
}

func (m *SessionManager) restore(ctx context.Context) (domain.AuthState, bool) {
	token, ok, err := m.store.Get(ctx, TokenKey)
	if err != nil {
		m.logger.WarnContext(ctx, "failed to read stored token", "error", err)
		return domain.AuthState{}, false
	}
	if !ok || token == "" {
		return domain.AuthState{}, false
	}

	raw, ok, err := m.store.Get(ctx, UserKey)
	if err != nil || !ok {
		return domain.AuthState{}, false
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.logger.WarnContext(ctx, "discarding unreadable stored identity", "error", err)
		return domain.AuthState{}, false
	}

	if m.tokenExpired(token) {
		m.logger.InfoContext(ctx, "stored session expired")
		return domain.AuthState{}, false
	}
	return domain.Authenticated(user, token), true
}

// Login exchanges credentials for a token and establishes the session.
// On success the remembered redirect is consumed.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.Login")
	defer span.End()

	creds := domain.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := m.validator.Validate(creds); err != nil {
		return nil, toAuthError(err)
	}

	token, err := m.issuer.Login(ctx, creds)
	if err != nil {
		return nil, m.fail(ctx, span, "login", err)
	}

	user, err := m.identityFrom(token)
	if err != nil {
		return nil, m.fail(ctx, span, "login", err)
	}

	m.mu.Lock()
	m.persist(ctx, *user, token)
	state := m.publish(domain.Authenticated(*user, token), "login")
	m.mu.Unlock()

	span.SetAttributes(attribute.Int64("fap.user.id", user.ID))
	m.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID, "token_prefix", tokenPrefix(token))

	return &domain.LoginResult{State: state, RedirectTo: m.consumeRedirect(ctx)}, nil
}

func (m *SessionManager) identityFrom(token string) (*domain.User, error) {
	claims, err := m.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if m.codec.IsExpired(claims, m.now()) {
		return nil, domain.ErrSessionExpired
	}
	user := m.codec.ExtractIdentity(claims)
	if user == nil {
		return nil, domain.ErrMissingIdentity
	}
	return user, nil
}

// Register forwards a registration profile. It does not sign the user in.
func (m *SessionManager) Register(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SessionManager.Register")
	defer span.End()

	profile.Username = strings.TrimSpace(profile.Username)
	profile.Email = strings.TrimSpace(profile.Email)
	if err := m.validator.Validate(profile); err != nil {
		return nil, toAuthError(err)
	}

	user, err := m.issuer.Register(ctx, profile)
	if err != nil {
		return nil, m.fail(ctx, span, "register", err)
	}
	m.logger.InfoContext(ctx, "registration succeeded", "user_id", user.ID)
	return user, nil
}

// fail converts err to an AuthError; a 401 forces logout.
func (m *SessionManager) fail(ctx context.Context, span trace.Span, op string, err error) error {
	authErr := toAuthError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, authErr.Message)
	m.logger.WarnContext(ctx, op+" failed", "kind", authErr.Kind, "status", authErr.Status, "error", err)

	if authErr.Kind == domain.AuthKindInvalidCredentials {
		m.Logout(ctx)
	}
	return authErr
}

// Logout clears every persisted key and publishes the unauthenticated state.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutLocked(ctx, "logout")
}

func (m *SessionManager) logoutLocked(ctx context.Context, reason string) {
	m.clearStored(ctx)
	if err := m.store.Remove(ctx, RedirectKey); err != nil {
		m.logger.WarnContext(ctx, "failed to clear redirect", "error", err)
	}
	m.publish(domain.Unauthenticated(), reason)
}

// CheckExpiration logs out when the held token has expired and reports
// whether it did.
func (m *SessionManager) CheckExpiration(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state.Load().Value
	if !st.IsAuthenticated || !m.tokenExpired(st.Token) {
		return false
	}
	m.logger.InfoContext(ctx, "session token expired, logging out")
	m.logoutLocked(ctx, "expired")
	return true
}

// HandleUnauthorized ends a session the collaborator no longer accepts.
func (m *SessionManager) HandleUnauthorized(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Load().Value.IsAuthenticated {
		return
	}
	m.logoutLocked(ctx, "unauthorized")
}

// AuthorizationValue returns "Bearer <token>" while a token is held.
func (m *SessionManager) AuthorizationValue() (string, bool) {
	st := m.state.Load().Value
	if st.Token == "" {
		return "", false
	}
	return "Bearer " + st.Token, true
}

// State returns the latest session snapshot.
func (m *SessionManager) State() domain.AuthState {
	return m.state.Load().Value
}

// Subscribe streams session snapshots starting with the current one.
func (m *SessionManager) Subscribe() (<-chan broadcast.Snapshot[domain.AuthState], func()) {
	return m.state.Subscribe()
}

// Expiry returns the expiry of the held token, if any.
func (m *SessionManager) Expiry() (time.Time, bool) {
	st := m.state.Load().Value
	if st.Token == "" {
		return time.Time{}, false
	}
	claims, err := m.codec.Decode(st.Token)
	if err != nil {
		return time.Time{}, false
	}
	return m.codec.Expiry(claims)
}

// RememberRedirect stores the URL to return to after the next login.
func (m *SessionManager) RememberRedirect(ctx context.Context, url string) error {
	if err := m.store.Set(ctx, RedirectKey, url); err != nil {
		return fmt.Errorf("remember redirect: %w", err)
	}
	return nil
}

func (m *SessionManager) consumeRedirect(ctx context.Context) string {
	url, ok, err := m.store.Get(ctx, RedirectKey)
	if err != nil || !ok || url == "" {
		return m.landing
	}
	if err := m.store.Remove(ctx, RedirectKey); err != nil {
		m.logger.WarnContext(ctx, "failed to clear redirect", "error", err)
	}
	return url
}

func (m *SessionManager) tokenExpired(token string) bool {
	claims, err := m.codec.Decode(token)
	if err != nil {
		return true
	}
	return m.codec.IsExpired(claims, m.now())
}

func (m *SessionManager) persist(ctx context.Context, user domain.User, token string) {
	raw, err := json.Marshal(user)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to encode identity", "error", err)
		return
	}
	if err := m.store.Set(ctx, TokenKey, token); err != nil {
		m.logger.WarnContext(ctx, "failed to persist token", "error", err)
	}
	if err := m.store.Set(ctx, UserKey, string(raw)); err != nil {
		m.logger.WarnContext(ctx, "failed to persist identity", "error", err)
	}
}

func (m *SessionManager) clearStored(ctx context.Context) {
	for _, key := range []string{TokenKey, UserKey} {
		if err := m.store.Remove(ctx, key); err != nil {
			m.logger.WarnContext(ctx, "failed to clear stored session", "key", key, "error", err)
		}
	}
}

func (m *SessionManager) publish(state domain.AuthState, reason string) domain.AuthState {
	m.state.Store(state)
	metrics.RecordSessionTransition(state.IsAuthenticated, reason)
	return state
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "..."
}
