// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth implements registration, sign-in and password recovery. It is the
// only domain that writes the session.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain"
	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/session"
	"github.com/ManuGH/storefront/internal/state"
)

// Domain is the state slice name.
const Domain = "auth"

// Operation names.
const (
	OpSignUp         = "signUp"
	OpSignIn         = "signIn"
	OpForgotPassword = "forgotPassword"
	OpSignOut        = "signOut"
)

// Data is the auth slice payload. User is the signed-in identity; Registered is the
// account returned by the last successful sign-up.
type Data struct {
	User       *session.User `json:"user"`
	Registered *session.User `json:"registered,omitempty"`
}

// SignUpInput is sent as a multipart form.
type SignUpInput struct {
	FullName string
	Email    string
	Password string
	Role     session.Role
	Phone    string
	Avatar   *domain.File
}

func (in SignUpInput) form() *gateway.Form {
	f := gateway.NewForm().
		Set("full_name", in.FullName).
		Set("email", in.Email).
		Set("password", in.Password).
		Set("role", string(in.Role))
	if in.Phone != "" {
		f.Set("phone", in.Phone)
	}
	in.Avatar.Attach(f, "avatar")
	return f
}

// SignUpResult is the register response.
type SignUpResult struct {
	User  *session.User `json:"user"`
	Extra domain.Extra  `json:"-"`
}

type signUpResultFields SignUpResult

func (r *SignUpResult) UnmarshalJSON(data []byte) error {
	var f signUpResultFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*r = SignUpResult(f)
	r.Extra = extra
	return nil
}

// Credentials is the login body.
type Credentials struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Role     session.Role `json:"role,omitempty"`
}

// SignInResult is the login response.
type SignInResult struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
	Extra domain.Extra `json:"-"`
}

type signInResultFields SignInResult

func (r *SignInResult) UnmarshalJSON(data []byte) error {
	var f signInResultFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*r = SignInResult(f)
	r.Extra = extra
	return nil
}

// ForgotPasswordInput is the recovery body.
type ForgotPasswordInput struct {
	Email string       `json:"email"`
	Role  session.Role `json:"role"`
}

// Actions are the auth dispatchers.
type Actions struct {
	d     *dispatch.Dispatcher
	slice *state.Slice[Data]
}

// NewActions binds the auth dispatchers to d and slice.
func NewActions(d *dispatch.Dispatcher, slice *state.Slice[Data]) *Actions {
	return &Actions{d: d, slice: slice}
}

// SignUp registers a new account.
func (a *Actions) SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, SignUpResult]{
		Name:           OpSignUp,
		SuccessMessage: "Registration successful",
		FailureMessage: "Failed to register",
		Merge: func(prev *Data, r SignUpResult) *Data {
			next := Data{Registered: r.User}
			if prev != nil {
				next.User = prev.User
			}
			return &next
		},
	}, dispatch.Call{Method: http.MethodPost, Path: "/auth/register", Body: in.form()})
}

// SignIn authenticates and, on a 200 response, persists the session.
func (a *Actions) SignIn(ctx context.Context, in Credentials) (SignInResult, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, SignInResult]{
		Name:           OpSignIn,
		SuccessMessage: "Login successful",
		FailureMessage: "Failed to sign in",
		Accept:         dispatch.Accept200,
		Commit: func(ctx context.Context, r SignInResult) error {
			if r.Token == "" {
				return fmt.Errorf("sign in: response carries no token")
			}
			return a.d.Session().Begin(ctx, r.Token, r.User)
		},
		Merge: func(prev *Data, r SignInResult) *Data {
			u := r.User
			next := Data{User: &u}
			if prev != nil {
				next.Registered = prev.Registered
			}
			return &next
		},
	}, dispatch.Call{Method: http.MethodPost, Path: "/auth/login", Body: in})
}

// ForgotPassword requests a recovery mail.
func (a *Actions) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	_, err := dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, json.RawMessage]{
		Name:           OpForgotPassword,
		SuccessMessage: "Password reset link sent",
		FailureMessage: "Failed to send password reset link",
	}, dispatch.Call{Method: http.MethodPost, Path: "/auth/forgot-password", Body: in})
	return err
}

// SignOut ends the local session. No request is made.
func (a *Actions) SignOut(ctx context.Context) error {
	a.slice.Apply(state.Started[Data](OpSignOut))
	if err := a.d.Session().End(ctx); err != nil {
		gwErr := gateway.Normalize(err)
		a.slice.Apply(state.Failed[Data](OpSignOut, gwErr.Message))
		return gwErr
	}
	a.slice.Apply(state.Succeeded(OpSignOut, "Signed out", func(*Data) *Data { return nil }))
	return nil
}

// Facade is the auth view binding.
type Facade struct {
	domain.Facade[Data]
	*Actions
}

// NewFacade builds the auth facade.
func NewFacade(actions *Actions) *Facade {
	return &Facade{Facade: domain.NewFacade(actions.slice), Actions: actions}
}

// OnActivate does nothing; auth has no initial fetch.
func (f *Facade) OnActivate(context.Context) error {
	return nil
}
