// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Normalized outcome messages.
const (
	MsgNoResponse = "No response from server."
	MsgUnexpected = "Unexpected error occurred."
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNoResponse = errors.New("gateway: no response from server")
	ErrUnexpected = errors.New("gateway: local failure before request was sent")
	ErrRejected   = errors.New("gateway: server rejected request")
)

// Error is the normalized error shape handed to dispatchers. Message is the only
// part that reaches state; Status and Raw are kept for callers that inspect them.
type Error struct {
	Sentinel error
	Status   int             // HTTP status, zero when no response was received
	Message  string          // human-readable outcome text
	Raw      json.RawMessage // server body on rejection
	Err      error           // lower-level cause (net.Error, json error, ...)
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}

func noResponse(err error) *Error {
	return &Error{Sentinel: ErrNoResponse, Message: MsgNoResponse, Err: err}
}

func unexpected(err error) *Error {
	return &Error{Sentinel: ErrUnexpected, Message: MsgUnexpected, Err: err}
}

// Rejected normalizes a received response that domain logic treats as a failure.
// The message is the server's "message" (or string "error") field, else fallback.
func Rejected(resp *Response, fallback string) *Error {
	if resp == nil {
		return &Error{Sentinel: ErrRejected, Message: fallback}
	}
	msg := ServerMessage(resp.Data)
	if msg == "" {
		msg = fallback
	}
	out := &Error{Sentinel: ErrRejected, Status: resp.Status, Message: msg}
	if json.Valid(resp.Data) {
		out.Raw = append(json.RawMessage(nil), resp.Data...)
	} else if len(resp.Data) > 0 {
		raw, _ := json.Marshal(string(resp.Data))
		out.Raw = raw
	}
	return out
}

// ServerMessage extracts a human-readable message from a JSON object body.
func ServerMessage(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// Normalize converts any error into *Error. Errors that are already normalized
// pass through; anything else is treated as a local failure.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return unexpected(err)
}
