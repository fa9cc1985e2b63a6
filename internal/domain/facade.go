// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package domain

import (
	"context"

	"github.com/ManuGH/storefront/internal/bus"
	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/state"
)

// File is one binary upload. Payloads carrying a File are sent as multipart forms.
type File struct {
	Name    string
	Content []byte
}

// Attach adds f to form under field. A nil or empty file is skipped.
func (f *File) Attach(form *gateway.Form, field string) {
	if f == nil || len(f.Content) == 0 {
		return
	}
	form.AddFile(field, f.Name, f.Content)
}

// Facade is the read side every domain facade embeds. It never performs network
// calls; the embedding facade exposes its dispatchers for that.
type Facade[T any] struct {
	slice *state.Slice[T]
}

// NewFacade binds a facade to slice.
func NewFacade[T any](slice *state.Slice[T]) Facade[T] {
	return Facade[T]{slice: slice}
}

// State returns the domain's current lifecycle state.
func (f Facade[T]) State() state.Lifecycle[T] {
	return f.slice.State()
}

// Subscribe notifies on every transition of the domain.
func (f Facade[T]) Subscribe(ctx context.Context) (bus.Subscriber, error) {
	return f.slice.Subscribe(ctx)
}

// OnDeactivate clears transient alert fields so they do not reappear on the next
// activation. Data is kept.
func (f Facade[T]) OnDeactivate() {
	f.slice.Apply(state.Reset[T]())
}
