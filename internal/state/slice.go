// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package state

import (
	"context"
	"errors"
	"sync"

	"github.com/ManuGH/storefront/internal/bus"
	"github.com/ManuGH/storefront/internal/log"
	"github.com/ManuGH/storefront/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrDetached is returned when subscribing to a slice not registered with a Root.
var ErrDetached = errors.New("state: slice is not registered with a root")

// Slice exclusively owns one domain's Lifecycle. Apply is its only mutator.
type Slice[T any] struct {
	domain string
	root   *Root
	logger zerolog.Logger

	mu    sync.Mutex
	state Lifecycle[T]
	seq   uint64
}

// NewSlice returns a detached slice, for code and tests that need no Root.
func NewSlice[T any](domain string) *Slice[T] {
	return &Slice[T]{
		domain: domain,
		logger: log.Derive(func(c *zerolog.Context) {
			*c = c.Str(log.FieldComponent, "state").Str(log.FieldDomain, domain)
		}),
	}
}

// Domain returns the slice's domain name.
func (s *Slice[T]) Domain() string {
	return s.domain
}

// State returns the current state.
func (s *Slice[T]) State() Lifecycle[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply reduces e into the slice atomically and returns the new state.
func (s *Slice[T]) Apply(e Event[T]) Lifecycle[T] {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, e)
	s.state = next
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	metrics.IncStateTransition(s.domain, string(e.Kind))
	s.logger.Debug().
		Str(log.FieldEvent, string(e.Kind)).
		Str(log.FieldOperation, e.Op).
		Str(log.FieldOldPhase, string(prev.Phase())).
		Str(log.FieldNewPhase, string(next.Phase())).
		Msg("state transition")

	if s.root != nil {
		s.root.publish(Change{Domain: s.domain, Op: e.Op, Kind: e.Kind, Phase: next.Phase(), Seq: seq})
	}
	return next
}

// Subscribe delivers a Change for every transition. Detached slices have no bus.
func (s *Slice[T]) Subscribe(ctx context.Context) (bus.Subscriber, error) {
	if s.root == nil {
		return nil, ErrDetached
	}
	return s.root.Subscribe(ctx, s.domain)
}

func (s *Slice[T]) snapshot() any {
	return s.State()
}
