package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fap-client/internal/domain"
	"fap-client/metrics"
	"fap-client/utils/validator"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ProbeField names an availability-checked registration field.
type ProbeField string

const (
	FieldUsername ProbeField = "username"
	FieldEmail    ProbeField = "email"
)

const minUsernameLength = 3

// ProberOptions tunes an AvailabilityProber.
type ProberOptions struct {
	Debounce  time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

type probeTicket struct {
	seq    uint64
	cancel context.CancelFunc
}

// AvailabilityProber answers username/email availability with per-field
// last-result-wins semantics: starting a probe supersedes the previous one
// for the same field.
type AvailabilityProber struct {
	checker   domain.AvailabilityChecker
	validator *validator.Validator
	debounce  time.Duration
	cache     *expirable.LRU[string, bool]
	logger    *slog.Logger

	mu      sync.Mutex
	seq     uint64
	current map[ProbeField]probeTicket
}

// NewAvailabilityProber creates a prober.
func NewAvailabilityProber(checker domain.AvailabilityChecker, v *validator.Validator, opts ProberOptions, logger *slog.Logger) *AvailabilityProber {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	return &AvailabilityProber{
		checker:   checker,
		validator: v,
		debounce:  opts.Debounce,
		cache:     expirable.NewLRU[string, bool](opts.CacheSize, nil, opts.CacheTTL),
		logger:    logger,
		current:   make(map[ProbeField]probeTicket),
	}
}

// Probe reports whether value is available for field. Values that cannot be
// valid answer false without a call. A probe superseded by a newer one for
// the same field returns domain.ErrProbeSuperseded.
func (p *AvailabilityProber) Probe(ctx context.Context, field ProbeField, value string) (bool, error) {
	value = strings.TrimSpace(value)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ticket := p.begin(field, cancel)
	defer p.finish(field, ticket)

	if !p.Plausible(field, value) {
		metrics.RecordProbe(string(field), "implausible")
		return false, nil
	}

	if p.debounce > 0 {
		timer := time.NewTimer(p.debounce)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false, p.interrupted(ctx, field, ticket)
		}
	}

	key := string(field) + ":" + strings.ToLower(value)
	if available, ok := p.cache.Get(key); ok {
		metrics.RecordProbe(string(field), "cached")
		return available, nil
	}

	available, err := p.check(ctx, field, value)
	if !p.isCurrent(field, ticket) {
		metrics.RecordProbe(string(field), "superseded")
		return false, domain.ErrProbeSuperseded
	}
	if err != nil {
		metrics.RecordProbe(string(field), "error")
		p.logger.WarnContext(ctx, "availability probe failed", "field", field, "error", err)
		return false, err
	}

	p.cache.Add(key, available)
	metrics.RecordProbe(string(field), "checked")
	return available, nil
}

// Plausible reports whether value is worth asking the identity service about.
func (p *AvailabilityProber) Plausible(field ProbeField, value string) bool {
	switch field {
	case FieldUsername:
		return len([]rune(value)) >= minUsernameLength
	case FieldEmail:
		return p.validator.IsEmail(value)
	}
	return false
}

func (p *AvailabilityProber) check(ctx context.Context, field ProbeField, value string) (bool, error) {
	if field == FieldUsername {
		return p.checker.CheckUsername(ctx, value)
	}
	return p.checker.CheckEmail(ctx, value)
}

func (p *AvailabilityProber) begin(field ProbeField, cancel context.CancelFunc) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.current[field]; ok {
		prev.cancel()
	}
	p.seq++
	p.current[field] = probeTicket{seq: p.seq, cancel: cancel}
	return p.seq
}

func (p *AvailabilityProber) finish(field ProbeField, seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.current[field]; ok && cur.seq == seq {
		delete(p.current, field)
	}
}

func (p *AvailabilityProber) isCurrent(field ProbeField, seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur, ok := p.current[field]
	return ok && cur.seq == seq
}

func (p *AvailabilityProber) interrupted(ctx context.Context, field ProbeField, seq uint64) error {
	if !p.isCurrent(field, seq) {
		metrics.RecordProbe(string(field), "superseded")
		return domain.ErrProbeSuperseded
	}
	return context.Cause(ctx)
}

// IsSuperseded reports whether err means a newer probe took over.
func IsSuperseded(err error) bool {
	return errors.Is(err, domain.ErrProbeSuperseded)
}
