// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package profile reads and updates the signed-in user's profile.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain"
	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/state"
)

const Domain = "profile"

const (
	OpFetchProfile  = "fetchProfile"
	OpUpdateProfile = "updateProfile"
	OpResetPassword = "resetPassword"
)

// Profile is the user profile record.
type Profile struct {
	ID       domain.ID    `json:"id"`
	FullName string       `json:"full_name"`
	Email    string       `json:"email"`
	Phone    string       `json:"phone,omitempty"`
	Role     string       `json:"role,omitempty"`
	Address  string       `json:"address,omitempty"`
	Avatar   string       `json:"avatar,omitempty"`
	Extra    domain.Extra `json:"-"`
}

type profileFields Profile

func (p *Profile) UnmarshalJSON(data []byte) error {
	var f profileFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*p = Profile(f)
	p.Extra = extra
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	return domain.MarshalExtra(profileFields(p), p.Extra)
}

// UpdateInput changes profile fields. Empty strings are not sent. With avatar content the
// update is a multipart form, otherwise JSON.
type UpdateInput struct {
	ID       string
	FullName string
	Email    string
	Phone    string
	Address  string
	Avatar   *domain.File
}

func (in UpdateInput) fields() map[string]string {
	out := make(map[string]string, 4)
	for k, v := range map[string]string{
		"full_name": in.FullName,
		"email":     in.Email,
		"phone":     in.Phone,
		"address":   in.Address,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func (in UpdateInput) body() any {
	f := gateway.NewForm()
	in.Avatar.Attach(f, "avatar")
	if !f.HasFiles() {
		return in.fields()
	}
	for k, v := range in.fields() {
		f.Set(k, v)
	}
	return f
}

// PasswordChange is the reset-password body.
type PasswordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type Actions struct {
	d     *dispatch.Dispatcher
	slice *state.Slice[Profile]
}

func NewActions(d *dispatch.Dispatcher, slice *state.Slice[Profile]) *Actions {
	return &Actions{d: d, slice: slice}
}

// FetchProfile loads the signed-in user's profile.
func (a *Actions) FetchProfile(ctx context.Context) (Profile, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Profile, Profile]{
		Name:           OpFetchProfile,
		SuccessMessage: "Profile fetched successfully",
		FailureMessage: "Failed to fetch user profile",
		Merge:          dispatch.Replace[Profile],
	}, dispatch.Call{Method: http.MethodGet, Path: "/profile", Protected: true})
}

// UpdateProfile replaces the stored profile with the server's updated record.
// An empty in.ID means the signed-in user.
func (a *Actions) UpdateProfile(ctx context.Context, in UpdateInput) (Profile, error) {
	if in.ID == "" {
		u, err := a.d.Session().User(ctx)
		if err != nil {
			return Profile{}, a.failLocal(OpUpdateProfile, err)
		}
		if u == nil || u.ID == "" {
			return Profile{}, a.failLocal(OpUpdateProfile, errors.New("no signed-in user"))
		}
		in.ID = u.ID
	}
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Profile, Profile]{
		Name:           OpUpdateProfile,
		SuccessMessage: "Profile updated successfully",
		FailureMessage: "Failed to update profile",
		Merge:          dispatch.Replace[Profile],
	}, dispatch.Call{
		Method:    http.MethodPut,
		Path:      fmt.Sprintf("/profile/%s", url.PathEscape(in.ID)),
		Protected: true,
		Body:      in.body(),
	})
}

func (a *Actions) failLocal(op string, err error) error {
	gwErr := gateway.Normalize(err)
	a.slice.Apply(state.Started[Profile](op))
	a.slice.Apply(state.Failed[Profile](op, gwErr.Message))
	return gwErr
}

// ResetPassword changes the password. Profile data is untouched.
func (a *Actions) ResetPassword(ctx context.Context, in PasswordChange) error {
	_, err := dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Profile, json.RawMessage]{
		Name:           OpResetPassword,
		SuccessMessage: "Password changed successfully",
		FailureMessage: "Failed to change password",
	}, dispatch.Call{Method: http.MethodPost, Path: "/reset-password", Protected: true, Body: in})
	return err
}

type Facade struct {
	domain.Facade[Profile]
	*Actions
}

func NewFacade(actions *Actions) *Facade {
	return &Facade{Facade: domain.NewFacade(actions.slice), Actions: actions}
}

// OnActivate fetches the profile.
func (f *Facade) OnActivate(ctx context.Context) error {
	_, err := f.FetchProfile(ctx)
	return err
}
