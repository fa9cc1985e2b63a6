// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package state implements the per-domain request lifecycle and the root
// container that composes every domain slice.
//
// One generic reducer serves all domains. It folds three dispatcher events
// (started, succeeded, failed) plus an explicit reset into a Lifecycle record:
//
//	Idle --started--> Pending --succeeded--> Succeeded --reset--> Idle
//	                          \--failed----> Failed    --reset--> Idle
//
// Reduce is pure and total: any event is valid in any phase, which is what lets
// two concurrent dispatches to the same domain race with last-resolved-wins.
package state

// AlertType is the UI hint derived from the last outcome.
type AlertType string

const (
	AlertNone    AlertType = ""
	AlertSuccess AlertType = "success"
	AlertError   AlertType = "error"
)

// Lifecycle is one domain's state. Data stays nil until the first successful
// fetch or mutation. Values reachable through Data are never mutated in place.
type Lifecycle[T any] struct {
	Loading   string    `json:"loading"`
	APIName   string    `json:"apiName"`
	AlertType AlertType `json:"alertType"`
	Message   string    `json:"message"`
	Error     bool      `json:"error"`
	Data      *T        `json:"data"`
}

// Phase is the coarse lifecycle position derived from a Lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Phase derives the lifecycle phase.
func (l Lifecycle[T]) Phase() Phase {
	switch {
	case l.Loading != "":
		return PhasePending
	case l.Error:
		return PhaseFailed
	case l.AlertType == AlertSuccess:
		return PhaseSucceeded
	default:
		return PhaseIdle
	}
}

// IsLoading reports whether op is the in-flight operation.
func (l Lifecycle[T]) IsLoading(op string) bool {
	return op != "" && l.Loading == op
}

// Kind names a lifecycle event.
type Kind string

const (
	KindStarted   Kind = "started"
	KindSucceeded Kind = "succeeded"
	KindFailed    Kind = "failed"
	KindReset     Kind = "reset"
)

// Event is one input to Reduce. Merge computes the new Data from the previous
// value on success; a nil Merge keeps Data as is.
type Event[T any] struct {
	Kind    Kind
	Op      string
	Message string
	Merge   func(prev *T) *T
}

// Started marks op as in flight.
func Started[T any](op string) Event[T] {
	return Event[T]{Kind: KindStarted, Op: op}
}

// Succeeded resolves op with message and merge.
func Succeeded[T any](op, message string, merge func(prev *T) *T) Event[T] {
	return Event[T]{Kind: KindSucceeded, Op: op, Message: message, Merge: merge}
}

// Failed resolves op with a normalized message.
func Failed[T any](op, message string) Event[T] {
	return Event[T]{Kind: KindFailed, Op: op, Message: message}
}

// Reset returns the transient fields to Idle.
func Reset[T any]() Event[T] {
	return Event[T]{Kind: KindReset}
}

// Reduce applies e to s and returns the next state.
func Reduce[T any](s Lifecycle[T], e Event[T]) Lifecycle[T] {
	switch e.Kind {
	case KindStarted:
		s.Loading = e.Op
		s.APIName = e.Op
	case KindSucceeded:
		s.Loading = ""
		if e.Merge != nil {
			s.Data = e.Merge(s.Data)
		}
		s.AlertType = AlertSuccess
		s.Message = e.Message
		s.Error = false
	case KindFailed:
		s.Loading = ""
		s.AlertType = AlertError
		s.Message = e.Message
		s.Error = true
	case KindReset:
		s.Loading = ""
		s.APIName = ""
		s.AlertType = AlertNone
		s.Message = ""
		s.Error = false
	}
	return s
}

// Replace is the merge for operations whose payload becomes the new Data.
func Replace[T any](v T) func(*T) *T {
	return func(*T) *T { return &v }
}

// Keep is the merge for operations that must not touch Data.
func Keep[T any]() func(*T) *T {
	return func(prev *T) *T { return prev }
}
