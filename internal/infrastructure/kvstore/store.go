// Package kvstore provides implementations of domain.KeyValueStore.
package kvstore

import (
	"context"
	"fmt"
	"io"

	"fap-client/internal/domain"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Store is a closable key-value store.
type Store interface {
	domain.KeyValueStore
	io.Closer
}

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Path      string
	RedisURL  string
	KeyPrefix string
}

// Open creates the store selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case BackendMemory, "":
		s = NewMemory()
	case BackendSQLite:
		s, err = OpenSQLite(ctx, opts.Path)
	case BackendRedis:
		s, err = NewRedisWithURL(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if opts.KeyPrefix != "" {
		s = WithPrefix(s, opts.KeyPrefix)
	}
	return s, nil
}

type prefixed struct {
	Store
	prefix string
}

// WithPrefix namespaces every key of s under prefix.
func WithPrefix(s Store, prefix string) Store {
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.Store.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.Store.Remove(ctx, p.prefix+key)
}

func (p *prefixed) Ping(ctx context.Context) error {
	if pinger, ok := p.Store.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
