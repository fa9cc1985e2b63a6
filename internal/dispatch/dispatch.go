// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dispatch runs one domain operation end to end: it marks the slice
// pending, performs exactly one gateway call, normalizes the outcome and
// resolves the slice to succeeded or failed.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/log"
	"github.com/ManuGH/storefront/internal/metrics"
	"github.com/ManuGH/storefront/internal/session"
	"github.com/ManuGH/storefront/internal/state"
	"github.com/ManuGH/storefront/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Outcome labels for metrics and spans.
const (
	OutcomeSucceeded  = "succeeded"
	OutcomeRejected   = "rejected"
	OutcomeNoResponse = "no_response"
	OutcomeUnexpected = "unexpected"
)

// Gateway is the transport the dispatcher drives. *gateway.Client satisfies it.
type Gateway interface {
	Request(ctx context.Context, method, path string, opts gateway.Options) (*gateway.Response, error)
}

// Dispatcher holds what every operation needs: the gateway and the session used for
// bearer credentials. It is safe for concurrent use.
type Dispatcher struct {
	gw     Gateway
	sess   *session.Session
	tracer trace.Tracer
	logger zerolog.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTracer replaces the global storefront tracer.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// New returns a dispatcher bound to gw and sess.
func New(gw Gateway, sess *session.Session, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gw:     gw,
		sess:   sess,
		tracer: telemetry.Tracer(),
		logger: log.WithComponent("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Session returns the injected session.
func (d *Dispatcher) Session() *session.Session {
	return d.sess
}

// Call describes the single gateway request of an operation.
type Call struct {
	Method    string
	Path      string
	Protected bool
	Body      any
	Query     url.Values
	Headers   map[string]string
}

// Operation binds a named action to its messages and merge rule. T is the slice
// payload type, P the decoded response payload.
type Operation[T, P any] struct {
	Name           string
	SuccessMessage string
	FailureMessage string

	// Accept decides which statuses are successes. Nil accepts any 2xx.
	Accept func(status int) bool

	// Merge folds the payload into the slice data. Nil leaves data untouched.
	Merge func(prev *T, p P) *T

	// Commit runs after decoding and before the slice resolves. An error fails
	// the operation with the unexpected-error message.
	Commit func(ctx context.Context, p P) error
}

// Replace is the Merge for operations whose decoded payload becomes the new Data.
func Replace[T any](prev *T, payload T) *T {
	return state.Replace(payload)(prev)
}

// Accept200 accepts exactly 200 OK.
func Accept200(status int) bool {
	return status == http.StatusOK
}

func accept2xx(status int) bool {
	return status >= 200 && status < 300
}

type envelope struct {
	message string
	payload json.RawMessage
}

// decodeEnvelope applies the server response shape: a top-level "message" string is
// the outcome message, and the payload lives under "data" when present, otherwise the
// whole body is the payload.
func decodeEnvelope(body []byte) envelope {
	trimmed := bytes.TrimSpace(body)
	env := envelope{payload: trimmed}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return env
	}
	if raw, ok := obj["message"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil {
			env.message = msg
		}
	}
	if raw, ok := obj["data"]; ok {
		env.payload = raw
	}
	return env
}

// Execute runs op against slice. It always resolves the slice it marked pending.
// The returned error, when non-nil, is a *gateway.Error.
func Execute[T, P any](ctx context.Context, d *Dispatcher, slice *state.Slice[T], op Operation[T, P], call Call) (P, error) {
	var zero P
	domain := slice.Domain()

	ctx = log.ContextWithOperation(ctx, op.Name)
	ctx, span := d.tracer.Start(ctx, domain+"."+op.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.DispatchAttributes(domain, op.Name, call.Method, call.Path, call.Protected)...),
	)
	defer span.End()

	// operation comes from the context set above.
	logger := log.WithContext(ctx, d.logger).With().
		Str(log.FieldDomain, domain).
		Logger()

	inFlight := metrics.DispatchInFlight.WithLabelValues(domain)
	inFlight.Inc()
	defer inFlight.Dec()

	start := time.Now()
	slice.Apply(state.Started[T](op.Name))

	fail := func(outcome string, gwErr *gateway.Error) (P, error) {
		slice.Apply(state.Failed[T](op.Name, gwErr.Message))
		metrics.IncDispatch(domain, op.Name, outcome)
		span.SetAttributes(telemetry.OutcomeAttributes(outcome, gwErr.Status)...)
		span.SetAttributes(telemetry.ErrorAttributes(outcome)...)
		span.SetStatus(codes.Error, gwErr.Message)
		logger.Warn().
			Str("outcome", outcome).
			Int(log.FieldStatus, gwErr.Status).
			Dur(log.FieldDuration, time.Since(start)).
			Err(gwErr.Err).
			Msg(gwErr.Message)
		return zero, gwErr
	}

	opts := gateway.Options{Body: call.Body, Query: call.Query, Headers: call.Headers}
	if call.Protected {
		headers, err := d.authorize(ctx, call.Headers)
		if err != nil {
			return fail(OutcomeUnexpected, gateway.Normalize(err))
		}
		opts.Headers = headers
	}

	resp, err := d.gw.Request(ctx, call.Method, call.Path, opts)
	if err != nil {
		gwErr := gateway.Normalize(err)
		outcome := OutcomeUnexpected
		if errors.Is(gwErr, gateway.ErrNoResponse) {
			outcome = OutcomeNoResponse
		}
		return fail(outcome, gwErr)
	}

	accept := op.Accept
	if accept == nil {
		accept = accept2xx
	}
	if !accept(resp.Status) {
		return fail(OutcomeRejected, gateway.Rejected(resp, failureMessage(op.FailureMessage)))
	}

	env := decodeEnvelope(resp.Data)
	var payload P
	if len(env.payload) > 0 && string(env.payload) != "null" {
		if err := json.Unmarshal(env.payload, &payload); err != nil {
			rej := gateway.Rejected(resp, failureMessage(op.FailureMessage))
			rej.Message = failureMessage(op.FailureMessage)
			rej.Err = fmt.Errorf("decode %s payload: %w", op.Name, err)
			return fail(OutcomeRejected, rej)
		}
	}

	if op.Commit != nil {
		if err := op.Commit(ctx, payload); err != nil {
			return fail(OutcomeUnexpected, gateway.Normalize(err))
		}
	}

	message := env.message
	if message == "" {
		message = op.SuccessMessage
	}
	merge := state.Keep[T]()
	if op.Merge != nil {
		merge = func(prev *T) *T { return op.Merge(prev, payload) }
	}
	slice.Apply(state.Succeeded(op.Name, message, merge))

	metrics.IncDispatch(domain, op.Name, OutcomeSucceeded)
	span.SetAttributes(telemetry.OutcomeAttributes(OutcomeSucceeded, resp.Status)...)
	span.SetStatus(codes.Ok, "")
	logger.Debug().
		Int(log.FieldStatus, resp.Status).
		Dur(log.FieldDuration, time.Since(start)).
		Msg("operation succeeded")
	return payload, nil
}

func (d *Dispatcher) authorize(ctx context.Context, headers map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if d.sess == nil {
		return out, nil
	}
	token, err := d.sess.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		out["Authorization"] = "Bearer " + token
	}
	return out, nil
}

func failureMessage(m string) string {
	if m == "" {
		return gateway.MsgUnexpected
	}
	return m
}
