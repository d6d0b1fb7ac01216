package usecase

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("usecase-test-secret-0123456789abcdef"))
	require.NoError(t, err)
	return signed
}

// tokenFor mints a token for userID/email expiring ttl after clock's now.
func tokenFor(t *testing.T, clock *testClock, userID int64, email string, ttl time.Duration) string {
	t.Helper()
	return mintToken(t, jwt.MapClaims{
		"userId": userID,
		"sub":    email,
		"exp":    clock.Now().Add(ttl).Unix(),
	})
}
