// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package gateway

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/storefront/internal/gateway/gatewaytest"
	"github.com/ManuGH/storefront/internal/log"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, base string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: base, Timeout: 500 * time.Millisecond})
	require.NoError(t, err)
	c.http = &http.Client{Timeout: 500 * time.Millisecond}
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "ftp://example.com", "http://", "://bad"} {
		_, err := New(Config{BaseURL: base})
		require.Error(t, err, "base %q", base)
	}

	c, err := New(Config{BaseURL: "https://shop.example.com/"})
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com/api", c.BaseURL())
}

func TestRequestReturnsResponseForAnyStatus(t *testing.T) {
	srv := gatewaytest.NewServer()
	defer srv.Close()
	srv.Handle(http.MethodGet, "/profile", gatewaytest.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid token"}))

	c := newTestClient(t, srv.URL)
	resp, err := c.Request(context.Background(), http.MethodGet, "/profile", Options{})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.Status)
	require.False(t, resp.OK())
	require.Equal(t, "Invalid token", ServerMessage(resp.Data))
}

func TestRequestMergesHeadersCallerWins(t *testing.T) {
	srv := gatewaytest.NewServer()
	defer srv.Close()
	srv.Handle(http.MethodPost, "/auth/login", gatewaytest.JSON(http.StatusOK, map[string]string{}))

	c, err := New(Config{
		BaseURL:   srv.URL,
		Headers:   map[string]string{"X-Client": "storefront", "Accept": "text/plain"},
		UserAgent: "storefront-test/1",
	})
	require.NoError(t, err)

	ctx := log.ContextWithRequestID(context.Background(), "req-7")
	_, err = c.Request(ctx, http.MethodPost, "auth/login", Options{
		Headers: map[string]string{"accept": "application/vnd.shop+json"},
		Body:    map[string]string{"email": "a@b.com", "password": "x"},
	})
	require.NoError(t, err)

	rec, ok := srv.Last()
	require.True(t, ok)
	require.Equal(t, "/api/auth/login", rec.Path)
	require.Equal(t, "application/vnd.shop+json", rec.Header.Get("Accept"))
	require.Equal(t, "application/json", rec.Header.Get("Content-Type"))
	require.Equal(t, "storefront", rec.Header.Get("X-Client"))
	require.Equal(t, "storefront-test/1", rec.Header.Get("User-Agent"))
	require.Equal(t, "req-7", rec.Header.Get(HeaderRequestID))

	var body map[string]string
	require.NoError(t, rec.JSONBody(&body))
	require.Equal(t, "a@b.com", body["email"])
}

func TestRequestGeneratesRequestID(t *testing.T) {
	srv := gatewaytest.NewServer()
	defer srv.Close()
	srv.Handle(http.MethodGet, "/cart", gatewaytest.JSON(http.StatusOK, []any{}))

	c := newTestClient(t, srv.URL)
	_, err := c.Request(context.Background(), http.MethodGet, "/cart", Options{})
	require.NoError(t, err)

	rec, _ := srv.Last()
	require.Len(t, rec.Header.Get(HeaderRequestID), 36)
}

func TestRequestEncodesQuery(t *testing.T) {
	srv := gatewaytest.NewServer()
	defer srv.Close()
	srv.Handle(http.MethodGet, "/products", gatewaytest.JSON(http.StatusOK, []any{}))

	c := newTestClient(t, srv.URL)
	_, err := c.Request(context.Background(), http.MethodGet, "/products", Options{
		Query: url.Values{"category_id": {"3"}, "page": {"2"}},
	})
	require.NoError(t, err)

	rec, _ := srv.Last()
	require.Equal(t, []string{"3"}, rec.Query["category_id"])
	require.Equal(t, []string{"2"}, rec.Query["page"])
}

func TestRequestMultipartNegotiatesContentType(t *testing.T) {
	srv := gatewaytest.NewServer()
	defer srv.Close()
	srv.Handle(http.MethodPost, "/auth/register", gatewaytest.JSON(http.StatusCreated, map[string]string{"message": "ok"}))

	c := newTestClient(t, srv.URL)
	form := NewForm().
		Set("email", "a@b.com").
		AddFile("avatar", "me.png", []byte{0x89, 0x50, 0x4e, 0x47})
	_, err := c.Request(context.Background(), http.MethodPost, "/auth/register", Options{
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    form,
	})
	require.NoError(t, err)

	rec, _ := srv.Last()
	mediaType, params, err := mime.ParseMediaType(rec.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)
	require.NotEmpty(t, params["boundary"])

	mr := multipart.NewReader(strings.NewReader(string(rec.Body)), params["boundary"])
	parts := map[string]string{}
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts[p.FormName()] = string(data)
	}
	require.Equal(t, "a@b.com", parts["email"])
	require.Equal(t, "\x89PNG", parts["avatar"])
}

func TestRequestNoResponse(t *testing.T) {
	srv := gatewaytest.NewServer()
	base := srv.URL
	srv.Close()

	c := newTestClient(t, base)
	_, err := c.Request(context.Background(), http.MethodGet, "/profile", Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoResponse)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	require.Equal(t, MsgNoResponse, gwErr.Message)
	require.Zero(t, gwErr.Status)
}

func TestRequestTimeoutIsNoResponse(t *testing.T) {
	srv := gatewaytest.NewServer()
	defer srv.Close()
	srv.Handle(http.MethodGet, "/slow", gatewaytest.Delayed(2*time.Second, gatewaytest.JSON(http.StatusOK, nil)))

	c := newTestClient(t, srv.URL)
	c.http = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.Request(context.Background(), http.MethodGet, "/slow", Options{})
	require.ErrorIs(t, err, ErrNoResponse)
}

func TestRequestLocalFailure(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")

	_, err := c.Request(context.Background(), http.MethodPost, "/orders", Options{Body: make(chan int)})
	require.ErrorIs(t, err, ErrUnexpected)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	require.Equal(t, MsgUnexpected, gwErr.Message)

	_, err = c.Request(context.Background(), "", "/orders", Options{})
	require.ErrorIs(t, err, ErrUnexpected)
}

func TestRequestRateLimitWaitCanceled(t *testing.T) {
	srv := gatewaytest.NewServer()
	defer srv.Close()
	srv.Handle(http.MethodGet, "/categories", gatewaytest.JSON(http.StatusOK, []any{}))

	c, err := New(Config{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = c.Request(context.Background(), http.MethodGet, "/categories", Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Request(ctx, http.MethodGet, "/categories", Options{})
	require.ErrorIs(t, err, ErrUnexpected)
	require.Len(t, srv.Requests(), 1)
}

func TestResponseDecode(t *testing.T) {
	resp := &Response{Status: 200, Data: []byte(`{"id":"1"}`)}
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, resp.Decode(&out))
	require.Equal(t, "1", out.ID)

	empty := &Response{Status: 204}
	require.NoError(t, empty.Decode(&out))
	require.Equal(t, "1", out.ID)
}
