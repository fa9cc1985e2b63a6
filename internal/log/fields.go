// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldUserID        = "user_id"
	FieldRole          = "role"

	// Dispatch / state fields
	FieldComponent = "component"
	FieldDomain    = "domain"
	FieldOperation = "operation"
	FieldEvent     = "event"
	FieldOldPhase  = "old_phase"
	FieldNewPhase  = "new_phase"

	// Transport fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldBaseURL  = "base_url"
	FieldStatus   = "status"
	FieldDuration = "duration"

	// Storage fields
	FieldBackend = "backend"
	FieldKey     = "key"
	FieldTopic   = "topic"
)
