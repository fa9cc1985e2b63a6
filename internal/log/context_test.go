// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestContextHelpersRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithOperation(ctx, "fetchCart")

	require.Equal(t, "req-1", RequestIDFromContext(ctx))
	require.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
	require.Equal(t, "fetchCart", OperationFromContext(ctx))
}

func TestContextHelpersNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	require.Equal(t, "", RequestIDFromContext(nil))
	//nolint:staticcheck
	ctx := ContextWithOperation(nil, "signIn")
	require.Equal(t, "signIn", OperationFromContext(ctx))
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	ctx = ContextWithOperation(ctx, "updateProfile")

	l := WithContext(ctx, base)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "req-42", entry[FieldRequestID])
	require.Equal(t, "updateProfile", entry[FieldOperation])
	require.NotContains(t, entry, FieldCorrelationID)
}

func TestWithContextWithoutFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	l := WithContext(context.Background(), base)
	l.Info().Msg("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.NotContains(t, entry, FieldRequestID)
}

func TestFromContextFallsBackToBase(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
}
