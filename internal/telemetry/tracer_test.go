// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: ExporterGRPC})
	require.NoError(t, err)
	assert.Nil(t, p.tp)

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ServiceName: "storefront", ExporterType: "invalid"})
	require.EqualError(t, err, "unsupported exporter type: invalid (supported: grpc, http)")
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sampler(tt.rate).Description())
	}
}

func TestNewProvider_InjectedExporterRecordsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "storefront",
		SamplingRate: 1,
		Exporter:     exp,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Shutdown(context.Background())
		_ = resetProvider()
	})

	_, span := Tracer().Start(context.Background(), "cart.fetchCart")
	span.SetAttributes(DispatchAttributes("cart", "fetchCart", "GET", "/cart", true)...)
	span.End()
	require.NoError(t, p.tp.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "cart.fetchCart", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String(DomainKey, "cart"))
	assert.Contains(t, spans[0].Attributes, attribute.Bool(ProtectedKey, true))
}

func TestOutcomeAttributesOmitsZeroStatus(t *testing.T) {
	assert.Len(t, OutcomeAttributes("no_response", 0), 1)
	assert.Len(t, OutcomeAttributes("rejected", 401), 2)
}

// resetProvider restores the noop global provider between tests.
func resetProvider() error {
	_, err := NewProvider(context.Background(), Config{})
	return err
}
