// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package category

import (
	"context"
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
	require.NoError(t, sess.Begin(context.Background(), "tok", session.User{ID: "5", Role: session.RoleSeller}))

	return srv, NewFacade(NewActions(dispatch.New(gw, sess), state.NewSlice[Data](Domain)))
}

func names(cs []Category) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func TestCategoryCRUD(t *testing.T) {
	srv, f := newFacade(t)
	ctx := context.Background()
	srv.Handle(http.MethodGet, "/categories", gatewaytest.JSON(http.StatusOK, []map[string]any{{"id": 1, "name": "Home"}}))
	srv.Handle(http.MethodPost, "/categories", gatewaytest.JSON(http.StatusCreated, map[string]any{"id": 2, "name": "Garden"}))
	srv.Handle(http.MethodPut, "/categories/{id}", gatewaytest.JSON(http.StatusOK, map[string]any{"id": 1, "name": "House"}))
	srv.Handle(http.MethodDelete, "/categories/{id}", gatewaytest.JSON(http.StatusOK, map[string]string{"message": "gone"}))

	require.NoError(t, f.OnActivate(ctx))
	last, _ := srv.Last()
	assert.Empty(t, last.Header.Get("Authorization"), "listing is public")

	_, err := f.AddCategory(ctx, CategoryInput{Name: "Garden"})
	require.NoError(t, err)
	last, _ = srv.Last()
	assert.Equal(t, "Bearer tok", last.Header.Get("Authorization"))
	assert.Equal(t, []string{"Home", "Garden"}, names(f.State().Data.Categories))

	_, err = f.UpdateCategory(ctx, "1", CategoryInput{Name: "House", Image: &domain.File{Name: "h.png", Content: []byte("p")}})
	require.NoError(t, err)
	last, _ = srv.Last()
	assert.True(t, strings.HasPrefix(last.Header.Get("Content-Type"), "multipart/form-data"))
	assert.Equal(t, []string{"House", "Garden"}, names(f.State().Data.Categories))

	require.NoError(t, f.DeleteCategory(ctx, "2"))
	assert.Equal(t, []string{"House"}, names(f.State().Data.Categories))
	assert.Equal(t, "gone", f.State().Message)
}

func TestSubcategoryCRUD(t *testing.T) {
	srv, f := newFacade(t)
	ctx := context.Background()
	srv.Handle(http.MethodGet, "/subcategories", gatewaytest.JSON(http.StatusOK, []map[string]any{{"id": 10, "name": "Lamps", "category_id": 1}}))
	srv.Handle(http.MethodPost, "/subcategories", gatewaytest.JSON(http.StatusCreated, map[string]any{"id": 11, "name": "Chairs", "category_id": 1}))
	srv.Handle(http.MethodPut, "/subcategories/{id}", gatewaytest.JSON(http.StatusOK, map[string]any{"id": 10, "name": "Lighting", "category_id": 1}))
	srv.Handle(http.MethodDelete, "/subcategories/{id}", gatewaytest.JSON(http.StatusNoContent, nil))

	_, err := f.FetchSubcategories(ctx, "1")
	require.NoError(t, err)
	last, _ := srv.Last()
	assert.Equal(t, []string{"1"}, last.Query["category_id"])

	_, err = f.AddSubcategory(ctx, SubcategoryInput{Name: "Chairs", CategoryID: "1"})
	require.NoError(t, err)
	last, _ = srv.Last()
	assert.JSONEq(t, `{"name":"Chairs","category_id":"1"}`, string(last.Body))

	_, err = f.UpdateSubcategory(ctx, "10", SubcategoryInput{Name: "Lighting", CategoryID: "1"})
	require.NoError(t, err)
	require.NoError(t, f.DeleteSubcategory(ctx, "11"))

	subs := f.State().Data.Subcategories
	require.Len(t, subs, 1)
	assert.Equal(t, "Lighting", subs[0].Name)
	assert.Equal(t, domain.ID("1"), subs[0].CategoryID)
}

func TestDeleteCategoryDropsItsSubcategories(t *testing.T) {
	srv, f := newFacade(t)
	ctx := context.Background()
	srv.Handle(http.MethodGet, "/categories", gatewaytest.JSON(http.StatusOK, []map[string]any{{"id": 1, "name": "Home"}, {"id": 2, "name": "Garden"}}))
	srv.Handle(http.MethodGet, "/subcategories", gatewaytest.JSON(http.StatusOK, []map[string]any{
		{"id": 10, "category_id": 1}, {"id": 20, "category_id": 2},
	}))
	srv.Handle(http.MethodDelete, "/categories/{id}", gatewaytest.JSON(http.StatusOK, map[string]string{}))

	require.NoError(t, f.OnActivate(ctx))
	_, err := f.FetchSubcategories(ctx, "")
	require.NoError(t, err)
	last, _ := srv.Last()
	assert.NotContains(t, last.Query, "category_id")

	require.NoError(t, f.DeleteCategory(ctx, "1"))
	subs := f.State().Data.Subcategories
	require.Len(t, subs, 1)
	assert.Equal(t, domain.ID("20"), subs[0].ID)
}

func TestFetchCategoriesFailureThenDeactivate(t *testing.T) {
	srv, f := newFacade(t)
	srv.Close()

	require.ErrorIs(t, f.OnActivate(context.Background()), gateway.ErrNoResponse)
	assert.Equal(t, gateway.MsgNoResponse, f.State().Message)

	f.OnDeactivate()
	assert.Equal(t, state.PhaseIdle, f.State().Phase())
	assert.Empty(t, f.State().Message)
}
