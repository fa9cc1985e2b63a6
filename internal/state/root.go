// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/storefront/internal/bus"
	"github.com/ManuGH/storefront/internal/log"
	"github.com/rs/zerolog"
)

const defaultPublishTimeout = 50 * time.Millisecond

// Change is published on Topic(domain) after every applied event.
// Publication happens outside the slice lock, so concurrent transitions may be
// delivered out of order. Seq increases by one per applied event within a
// domain; a subscriber drops a Change whose Seq is not above the last one it
// saw and reads the slice for current state. Phase is the phase right after
// event Seq, not necessarily the current one.
type Change struct {
	Domain string
	Op     string
	Kind   Kind
	Phase  Phase
	Seq    uint64
}

// Topic returns the bus topic carrying changes for domain.
func Topic(domain string) string {
	return "state." + domain
}

type registered interface {
	Domain() string
	snapshot() any
}

// Root composes every domain slice into one addressable tree. It never
// mutates a slice; slices notify it after their own transitions.
type Root struct {
	bus            bus.Bus
	publishTimeout time.Duration
	logger         zerolog.Logger

	mu     sync.RWMutex
	slices map[string]registered
	order  []string
}

// RootOption customizes a Root.
type RootOption func(*Root)

// WithPublishTimeout bounds how long a transition waits on a slow subscriber.
func WithPublishTimeout(d time.Duration) RootOption {
	return func(r *Root) {
		if d > 0 {
			r.publishTimeout = d
		}
	}
}

// NewRoot returns an empty root. A nil bus gets a private memory bus.
func NewRoot(b bus.Bus, opts ...RootOption) *Root {
	if b == nil {
		b = bus.NewMemoryBus(0)
	}
	r := &Root{
		bus:            b,
		publishTimeout: defaultPublishTimeout,
		logger:         log.WithComponent("state"),
		slices:         make(map[string]registered),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a slice for domain. Each domain may be registered once.
func Register[T any](r *Root, domain string) (*Slice[T], error) {
	if domain == "" {
		return nil, fmt.Errorf("state: domain name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.slices[domain]; exists {
		return nil, fmt.Errorf("state: domain %q already registered", domain)
	}
	s := NewSlice[T](domain)
	s.root = r
	r.slices[domain] = s
	r.order = append(r.order, domain)
	return s, nil
}

// Get returns the typed state of domain. ok is false when the domain is
// unknown or registered with a different payload type.
func Get[T any](r *Root, domain string) (Lifecycle[T], bool) {
	r.mu.RLock()
	reg, exists := r.slices[domain]
	r.mu.RUnlock()
	if !exists {
		return Lifecycle[T]{}, false
	}
	s, ok := reg.(*Slice[T])
	if !ok {
		return Lifecycle[T]{}, false
	}
	return s.State(), true
}

// Domains lists registered domains in registration order.
func (r *Root) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Snapshot returns every domain's current state keyed by domain. The result
// is JSON-encodable.
func (r *Root) Snapshot() map[string]any {
	r.mu.RLock()
	slices := make([]registered, 0, len(r.order))
	for _, d := range r.order {
		slices = append(slices, r.slices[d])
	}
	r.mu.RUnlock()

	out := make(map[string]any, len(slices))
	for _, s := range slices {
		out[s.Domain()] = s.snapshot()
	}
	return out
}

// Subscribe delivers a Change for every transition in domain.
func (r *Root) Subscribe(ctx context.Context, domain string) (bus.Subscriber, error) {
	return r.bus.Subscribe(ctx, Topic(domain))
}

func (r *Root) publish(c Change) {
	ctx, cancel := context.WithTimeout(context.Background(), r.publishTimeout)
	defer cancel()
	if err := r.bus.Publish(ctx, Topic(c.Domain), c); err != nil {
		r.logger.Debug().Err(err).Str(log.FieldDomain, c.Domain).Msg("state change notification dropped")
	}
}
