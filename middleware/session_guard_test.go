package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fap-client/internal/domain"
	"fap-client/internal/usecase"
	"fap-client/utils/logger"
)

// MockNavigator is a mock implementation of Navigator.
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) RequireSession(ctx context.Context, target string) usecase.Navigation {
	args := m.Called(ctx, target)
	return args.Get(0).(usecase.Navigation)
}

func (m *MockNavigator) GuestOnly(ctx context.Context) usecase.Navigation {
	args := m.Called(ctx)
	return args.Get(0).(usecase.Navigation)
}

type stubSession struct {
	state  domain.AuthState
	checks int
}

func (s *stubSession) CheckExpiration(context.Context) bool {
	s.checks++
	return false
}

func (s *stubSession) State() domain.AuthState {
	return s.state
}

func servePage(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireSessionPage(t *testing.T) {
	t.Run("redirects to auth route with the requested url", func(t *testing.T) {
		nav := new(MockNavigator)
		nav.On("RequireSession", mock.Anything, "/friends?tab=sent").
			Return(usecase.Navigation{RedirectTo: "/auth?returnUrl=%2Ffriends%3Ftab%3Dsent"})

		e := echo.New()
		e.GET("/friends", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireSessionPage(nav))

		rec := servePage(e, "/friends?tab=sent")

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/auth?returnUrl=%2Ffriends%3Ftab%3Dsent", rec.Header().Get("Location"))
		nav.AssertExpectations(t)
	})

	t.Run("lets an authenticated session through", func(t *testing.T) {
		nav := new(MockNavigator)
		nav.On("RequireSession", mock.Anything, "/dashboard").Return(usecase.Navigation{Allowed: true})

		e := echo.New()
		e.GET("/dashboard", func(c echo.Context) error { return c.String(http.StatusOK, "dashboard") }, RequireSessionPage(nav))

		rec := servePage(e, "/dashboard")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "dashboard", rec.Body.String())
	})
}

func TestGuestOnlyPage(t *testing.T) {
	nav := new(MockNavigator)
	nav.On("GuestOnly", mock.Anything).Return(usecase.Navigation{RedirectTo: "/dashboard"}).Once()
	nav.On("GuestOnly", mock.Anything).Return(usecase.Navigation{Allowed: true}).Once()

	e := echo.New()
	e.GET("/auth", func(c echo.Context) error { return c.String(http.StatusOK, "auth") }, GuestOnlyPage(nav))

	rec := servePage(e, "/auth")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = servePage(e, "/auth")
	assert.Equal(t, http.StatusOK, rec.Code)
	nav.AssertExpectations(t)
}

func TestRequireSessionAPI(t *testing.T) {
	t.Run("rejects without a session", func(t *testing.T) {
		session := &stubSession{state: domain.Unauthenticated()}
		e := echo.New()
		e.GET("/api/friends", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireSessionAPI(session))

		rec := servePage(e, "/api/friends")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 1, session.checks)
	})

	t.Run("tags the context with the user id", func(t *testing.T) {
		session := &stubSession{state: domain.Authenticated(domain.User{ID: 42, Username: "alice"}, "tok")}
		var userID any
		e := echo.New()
		e.GET("/api/friends", func(c echo.Context) error {
			userID = c.Request().Context().Value(logger.UserIDKey)
			return c.NoContent(http.StatusOK)
		}, RequireSessionAPI(session))

		rec := servePage(e, "/api/friends")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(42), userID)
	})
}
