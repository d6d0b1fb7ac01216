package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fap-client/internal/domain"
	"fap-client/internal/mocks"
	"fap-client/utils/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestProber(checker domain.AvailabilityChecker, debounce time.Duration) *AvailabilityProber {
	return NewAvailabilityProber(checker, validator.New(), ProberOptions{Debounce: debounce, CacheTTL: time.Minute}, testLogger)
}

func TestAvailabilityProber_ImplausibleValuesSkipCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockAvailabilityChecker(ctrl)
	p := newTestProber(checker, 0)
	ctx := context.Background()

	ok, err := p.Probe(ctx, FieldUsername, " ab ")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Probe(ctx, FieldEmail, "not-an-email")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailabilityProber_ChecksAndCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockAvailabilityChecker(ctrl)
	p := newTestProber(checker, 0)
	ctx := context.Background()

	checker.EXPECT().CheckUsername(gomock.Any(), "jdoe").Return(true, nil).Times(1)
	checker.EXPECT().CheckEmail(gomock.Any(), "j@x.com").Return(false, nil).Times(1)

	for i := 0; i < 3; i++ {
		ok, err := p.Probe(ctx, FieldUsername, "jdoe")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := p.Probe(ctx, FieldEmail, " j@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailabilityProber_ErrorsAreSurfaced(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockAvailabilityChecker(ctrl)
	p := newTestProber(checker, 0)

	transportErr := &domain.TransportError{Op: "GET /auth/checkUsername", Err: errors.New("refused")}
	checker.EXPECT().CheckUsername(gomock.Any(), "jdoe").Return(false, transportErr)
	checker.EXPECT().CheckUsername(gomock.Any(), "jdoe").Return(true, nil)

	ok, err := p.Probe(context.Background(), FieldUsername, "jdoe")
	assert.False(t, ok)
	assert.True(t, domain.IsTransport(err))

	ok, err = p.Probe(context.Background(), FieldUsername, "jdoe")
	require.NoError(t, err, "failures are not cached")
	assert.True(t, ok)
}

func TestAvailabilityProber_NewerProbeSupersedesDebounced(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockAvailabilityChecker(ctrl)
	p := newTestProber(checker, 200*time.Millisecond)

	checker.EXPECT().CheckUsername(gomock.Any(), "jdoe2").Return(true, nil).Times(1)

	var (
		wg       sync.WaitGroup
		staleErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleErr = p.Probe(context.Background(), FieldUsername, "jdoe")
	}()

	time.Sleep(50 * time.Millisecond)
	ok, err := p.Probe(context.Background(), FieldUsername, "jdoe2")
	wg.Wait()

	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, staleErr, domain.ErrProbeSuperseded)
	assert.True(t, IsSuperseded(staleErr))
}

func TestAvailabilityProber_NewerProbeSupersedesInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockAvailabilityChecker(ctrl)
	p := newTestProber(checker, 0)

	started := make(chan struct{})
	checker.EXPECT().CheckEmail(gomock.Any(), "old@x.com").DoAndReturn(func(ctx context.Context, _ string) (bool, error) {
		close(started)
		<-ctx.Done()
		return false, ctx.Err()
	})
	checker.EXPECT().CheckEmail(gomock.Any(), "new@x.com").Return(true, nil)

	var staleErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, staleErr = p.Probe(context.Background(), FieldEmail, "old@x.com")
	}()

	<-started
	ok, err := p.Probe(context.Background(), FieldEmail, "new@x.com")
	<-done

	require.NoError(t, err)
	assert.True(t, ok)
	assert.ErrorIs(t, staleErr, domain.ErrProbeSuperseded)
}

func TestAvailabilityProber_FieldsAreIndependent(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockAvailabilityChecker(ctrl)
	p := newTestProber(checker, 50*time.Millisecond)

	checker.EXPECT().CheckUsername(gomock.Any(), "jdoe").Return(true, nil)
	checker.EXPECT().CheckEmail(gomock.Any(), "j@x.com").Return(true, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); _, errs[0] = p.Probe(context.Background(), FieldUsername, "jdoe") }()
	go func() { defer wg.Done(); _, errs[1] = p.Probe(context.Background(), FieldEmail, "j@x.com") }()
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

func TestAvailabilityProber_CallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	checker := mocks.NewMockAvailabilityChecker(ctrl)
	p := newTestProber(checker, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Probe(ctx, FieldUsername, "jdoe")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsSuperseded(err))
}
