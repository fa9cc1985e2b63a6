// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on dispatch spans.
const (
	DomainKey     = "storefront.domain"
	OperationKey  = "storefront.operation"
	OutcomeKey    = "storefront.outcome"
	ProtectedKey  = "storefront.protected"
	HTTPMethodKey = "http.method"
	HTTPPathKey   = "http.path"
	HTTPStatusKey = "http.status_code"
	ErrorKey      = "error"
	ErrorTypeKey  = "error.type"
)

// DispatchAttributes describes one dispatcher execution.
func DispatchAttributes(domain, operation, method, path string, protected bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DomainKey, domain),
		attribute.String(OperationKey, operation),
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPPathKey, path),
		attribute.Bool(ProtectedKey, protected),
	}
}

// OutcomeAttributes records how an execution resolved. A zero status is omitted.
func OutcomeAttributes(outcome string, status int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(OutcomeKey, outcome)}
	if status > 0 {
		attrs = append(attrs, attribute.Int(HTTPStatusKey, status))
	}
	return attrs
}

// ErrorAttributes marks a span as failed with errorType.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
