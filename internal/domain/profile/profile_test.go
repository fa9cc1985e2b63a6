// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain"
	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/gateway/gatewaytest"
	"github.com/ManuGH/storefront/internal/session"
	"github.com/ManuGH/storefront/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFacade(t *testing.T) (*gatewaytest.Server, *Facade) {
	t.Helper()
	srv := gatewaytest.NewServer()
	t.Cleanup(srv.Close)

	gw, err := gateway.New(gateway.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	sess := session.New(session.NewMemoryStore())
	require.NoError(t, sess.Begin(context.Background(), "tok", session.User{ID: "1", Role: session.RoleBuyer}))

	slice, err := state.Register[Profile](state.NewRoot(nil), Domain)
	require.NoError(t, err)
	return srv, NewFacade(NewActions(dispatch.New(gw, sess), slice))
}

func TestUpdateProfileRoundTrip(t *testing.T) {
	srv, f := newFacade(t)
	srv.Handle(http.MethodPut, "/profile/{id}", gatewaytest.JSON(http.StatusOK, map[string]any{"id": 1, "full_name": "Jane"}))

	_, err := f.UpdateProfile(context.Background(), UpdateInput{ID: "1", FullName: "Jane"})
	require.NoError(t, err)

	st := f.State()
	require.NotNil(t, st.Data)
	assert.Equal(t, "Jane", st.Data.FullName)
	assert.False(t, st.Error)
	assert.Equal(t, state.AlertSuccess, st.AlertType)

	last, _ := srv.Last()
	assert.Equal(t, "/api/profile/1", last.Path)
	assert.Equal(t, "Bearer tok", last.Header.Get("Authorization"))
	assert.JSONEq(t, `{"full_name":"Jane"}`, string(last.Body))
}

func TestUpdateProfileWithoutIDTargetsSignedInUser(t *testing.T) {
	srv, f := newFacade(t)
	srv.Handle(http.MethodPut, "/profile/{id}", gatewaytest.JSON(http.StatusOK, map[string]any{"id": 1, "full_name": "Jane"}))

	_, err := f.UpdateProfile(context.Background(), UpdateInput{FullName: "Jane"})
	require.NoError(t, err)

	last, ok := srv.Last()
	require.True(t, ok)
	assert.Equal(t, "/api/profile/1", last.Path)
}

func TestUpdateProfileWithoutIDOrUserFailsLocally(t *testing.T) {
	srv, f := newFacade(t)
	ctx := context.Background()
	require.NoError(t, f.Actions.d.Session().End(ctx))

	_, err := f.UpdateProfile(ctx, UpdateInput{FullName: "Jane"})
	require.ErrorIs(t, err, gateway.ErrUnexpected)

	st := f.State()
	assert.True(t, st.Error)
	assert.Equal(t, gateway.MsgUnexpected, st.Message)
	assert.Equal(t, OpUpdateProfile, st.APIName)
	assert.Empty(t, srv.Requests())
}

func TestUpdateProfileWithAvatarIsMultipart(t *testing.T) {
	srv, f := newFacade(t)
	srv.Handle(http.MethodPut, "/profile/{id}", gatewaytest.JSON(http.StatusOK, map[string]any{"id": "1", "full_name": "Jane", "avatar": "/a.png"}))

	_, err := f.UpdateProfile(context.Background(), UpdateInput{ID: "1", FullName: "Jane", Avatar: &domain.File{Name: "a.png", Content: []byte("x")}})
	require.NoError(t, err)

	last, _ := srv.Last()
	assert.True(t, strings.HasPrefix(last.Header.Get("Content-Type"), "multipart/form-data"))
	assert.Equal(t, "/a.png", f.State().Data.Avatar)
}

func TestOnActivateFetchesAndDeactivateResets(t *testing.T) {
	srv, f := newFacade(t)
	srv.Handle(http.MethodGet, "/profile", gatewaytest.JSON(http.StatusOK, map[string]any{
		"data": map[string]any{"id": "1", "full_name": "Jane", "loyalty": 3},
	}))

	require.NoError(t, f.OnActivate(context.Background()))
	st := f.State()
	assert.Equal(t, OpFetchProfile, st.APIName)
	assert.Equal(t, "Profile fetched successfully", st.Message)
	assert.Equal(t, json.RawMessage(`3`), st.Data.Extra["loyalty"])

	f.OnDeactivate()
	st = f.State()
	assert.Equal(t, state.PhaseIdle, st.Phase())
	assert.Equal(t, "Jane", st.Data.FullName)
}

func TestFetchProfileInvalidToken(t *testing.T) {
	srv, f := newFacade(t)
	srv.Handle(http.MethodGet, "/profile", gatewaytest.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid token"}))

	require.Error(t, f.OnActivate(context.Background()))
	assert.Equal(t, "Invalid token", f.State().Message)
	assert.True(t, f.State().Error)
}

func TestResetPasswordLeavesProfile(t *testing.T) {
	srv, f := newFacade(t)
	srv.Handle(http.MethodGet, "/profile", gatewaytest.JSON(http.StatusOK, map[string]any{"id": "1", "full_name": "Jane"}))
	srv.Handle(http.MethodPost, "/reset-password", gatewaytest.JSON(http.StatusOK, map[string]string{"message": "Password updated"}))

	require.NoError(t, f.OnActivate(context.Background()))
	require.NoError(t, f.ResetPassword(context.Background(), PasswordChange{OldPassword: "a", NewPassword: "b"}))

	assert.Equal(t, "Password updated", f.State().Message)
	assert.Equal(t, "Jane", f.State().Data.FullName)
	last, _ := srv.Last()
	assert.JSONEq(t, `{"oldPassword":"a","newPassword":"b"}`, string(last.Body))
}
