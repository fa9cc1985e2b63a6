// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session holds the signed-in identity and bearer credential.
//
// Exactly two keys are persisted: KeyAccessToken (the raw token) and KeyUser
// (a JSON object with at least "id" and "role"). Dispatchers receive a *Session
// at construction time and never read storage directly.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ManuGH/storefront/internal/log"
	"github.com/rs/zerolog"
)

// Persisted key names.
const (
	KeyAccessToken = "access_token"
	KeyUser        = "user"
)

// Role is the actor role of a signed-in user.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// ErrInvalidUser is returned when a user record is missing its id or role.
var ErrInvalidUser = errors.New("session: user requires id and a buyer or seller role")

// User is the persisted identity. Fields the client does not model are kept in Extra.
type User struct {
	ID       string `json:"id"`
	Role     Role   `json:"role"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var userKnownFields = map[string]struct{}{
	"id": {}, "role": {}, "email": {}, "full_name": {},
}

// UnmarshalJSON decodes known fields and keeps the rest in Extra. Numeric ids are accepted.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out User
	if v, ok := raw["id"]; ok {
		id, err := decodeID(v)
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		out.ID = id
	}
	if err := decodeOptional(raw, "role", &out.Role); err != nil {
		return err
	}
	if err := decodeOptional(raw, "email", &out.Email); err != nil {
		return err
	}
	if err := decodeOptional(raw, "full_name", &out.FullName); err != nil {
		return err
	}
	for k, v := range raw {
		if _, known := userKnownFields[k]; known {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}
	*u = out
	return nil
}

// MarshalJSON writes known fields plus Extra.
func (u User) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(u.Extra)+4)
	for k, v := range u.Extra {
		obj[k] = v
	}
	obj["id"] = u.ID
	obj["role"] = u.Role
	if u.Email != "" {
		obj["email"] = u.Email
	}
	if u.FullName != "" {
		obj["full_name"] = u.FullName
	}
	return json.Marshal(obj)
}

func decodeOptional(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("user %s: %w", key, err)
	}
	return nil
}

// decodeID accepts "1" and 1.
func decodeID(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Session reads and (for the auth domain only) writes the persisted identity.
type Session struct {
	store  Store
	logger zerolog.Logger
}

// New wraps store.
func New(store Store) *Session {
	return &Session{store: store, logger: log.WithComponent("session")}
}

// Token returns the stored bearer credential, or "" when signed out.
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, ok, err := s.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("session: read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return tok, nil
}

// User returns the stored identity, or nil when signed out.
func (s *Session) User(ctx context.Context) (*User, error) {
	raw, ok, err := s.store.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("session: read user: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("session: decode user: %w", err)
	}
	return &u, nil
}

// Role returns the stored role, or "" when signed out.
func (s *Session) Role(ctx context.Context) (Role, error) {
	u, err := s.User(ctx)
	if err != nil || u == nil {
		return "", err
	}
	return u.Role, nil
}

// Begin persists a new session. Called from the sign-in success path.
func (s *Session) Begin(ctx context.Context, token string, user User) error {
	if user.ID == "" || !user.Role.Valid() {
		return ErrInvalidUser
	}
	buf, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	// The token is written last so a failed Begin never leaves a usable credential.
	if err := s.store.Set(ctx, KeyUser, string(buf)); err != nil {
		return fmt.Errorf("session: write user: %w", err)
	}
	if err := s.store.Set(ctx, KeyAccessToken, token); err != nil {
		if derr := s.store.Delete(ctx, KeyUser); derr != nil {
			s.logger.Warn().Err(derr).Msg("failed to roll back session user")
		}
		return fmt.Errorf("session: write token: %w", err)
	}
	s.logger.Info().
		Str(log.FieldUserID, user.ID).
		Str(log.FieldRole, string(user.Role)).
		Msg("session started")
	return nil
}

// End removes both persisted keys.
func (s *Session) End(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyAccessToken); err != nil {
		return fmt.Errorf("session: delete token: %w", err)
	}
	if err := s.store.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("session: delete user: %w", err)
	}
	s.logger.Info().Msg("session ended")
	return nil
}
