// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package app is the composition root: configuration in, wired facades out.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/storefront/internal/bus"
	"github.com/ManuGH/storefront/internal/config"
	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain/auth"
	"github.com/ManuGH/storefront/internal/domain/cart"
	"github.com/ManuGH/storefront/internal/domain/category"
	"github.com/ManuGH/storefront/internal/domain/order"
	"github.com/ManuGH/storefront/internal/domain/payment"
	"github.com/ManuGH/storefront/internal/domain/product"
	"github.com/ManuGH/storefront/internal/domain/profile"
	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/log"
	"github.com/ManuGH/storefront/internal/session"
	"github.com/ManuGH/storefront/internal/state"
	"github.com/ManuGH/storefront/internal/telemetry"
	"github.com/rs/zerolog"
)

// Version is stamped at build time.
var Version = "dev"

// Activatable is the lifecycle surface every facade offers the view layer.
type Activatable interface {
	OnActivate(ctx context.Context) error
	OnDeactivate()
}

// App owns every long-lived component of one client session.
type App struct {
	Config  config.Config
	Gateway *gateway.Client
	Session *session.Session
	Bus     *bus.MemoryBus
	Root    *state.Root

	Auth     *auth.Facade
	Profile  *profile.Facade
	Cart     *cart.Facade
	Category *category.Facade
	Payment  *payment.Facade
	Order    *order.Facade
	Product  *product.Facade

	store     session.Store
	telemetry *telemetry.Provider
	logger    zerolog.Logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	store      session.Store
	logOutput  io.Writer
}

// WithHTTPClient replaces the gateway's HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogOutput sends log entries to w instead of stderr. It only applies if the
// global logger is not configured yet.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithStore uses store instead of opening the configured backend. The App closes it.
func WithStore(store session.Store) Option {
	return func(o *options) { o.store = store }
}

// New wires the client from cfg. cfg is expected to be validated.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log.Configure(log.Config{Level: cfg.Log.Level, Output: o.logOutput, Service: "storefront", Version: Version})
	logger := log.WithComponent("app")
	logger.Debug().Interface("config", config.MaskSecrets(cfg)).Msg("effective configuration")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "storefront",
		ServiceVersion: Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	gw, err := gateway.New(gateway.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		UserAgent:  cfg.API.UserAgent,
		RateLimit:  cfg.API.RateLimit,
		Burst:      cfg.API.Burst,
		HTTPClient: o.httpClient,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	store := o.store
	if store == nil {
		store, err = session.OpenStore(ctx, cfg.SessionOptions())
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("session store: %w", err)
		}
	}

	a := &App{
		Config:    cfg,
		Gateway:   gw,
		Session:   session.New(store),
		Bus:       bus.NewMemoryBus(0),
		store:     store,
		telemetry: tp,
		logger:    logger,
	}
	a.Root = state.NewRoot(a.Bus)

	if err := a.wire(); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str(log.FieldBaseURL, gw.BaseURL()).
		Str(log.FieldBackend, cfg.Session.Backend).
		Strs("domains", a.Root.Domains()).
		Msg("storefront client ready")
	return a, nil
}

func (a *App) wire() error {
	d := dispatch.New(a.Gateway, a.Session)

	authSlice, err := state.Register[auth.Data](a.Root, auth.Domain)
	if err != nil {
		return err
	}
	profileSlice, err := state.Register[profile.Profile](a.Root, profile.Domain)
	if err != nil {
		return err
	}
	cartSlice, err := state.Register[[]cart.Item](a.Root, cart.Domain)
	if err != nil {
		return err
	}
	categorySlice, err := state.Register[category.Data](a.Root, category.Domain)
	if err != nil {
		return err
	}
	paymentSlice, err := state.Register[payment.Data](a.Root, payment.Domain)
	if err != nil {
		return err
	}
	orderSlice, err := state.Register[order.Data](a.Root, order.Domain)
	if err != nil {
		return err
	}
	productSlice, err := state.Register[product.Data](a.Root, product.Domain)
	if err != nil {
		return err
	}

	products := product.NewActions(d, productSlice)
	a.Auth = auth.NewFacade(auth.NewActions(d, authSlice))
	a.Profile = profile.NewFacade(profile.NewActions(d, profileSlice))
	a.Cart = cart.NewFacade(cart.NewActions(d, cartSlice), products)
	a.Category = category.NewFacade(category.NewActions(d, categorySlice))
	a.Payment = payment.NewFacade(payment.NewActions(d, paymentSlice))
	a.Order = order.NewFacade(order.NewActions(d, orderSlice))
	a.Product = product.NewFacade(products)
	return nil
}

// Facades returns every facade keyed by domain.
func (a *App) Facades() map[string]Activatable {
	return map[string]Activatable{
		auth.Domain:     a.Auth,
		profile.Domain:  a.Profile,
		cart.Domain:     a.Cart,
		category.Domain: a.Category,
		payment.Domain:  a.Payment,
		order.Domain:    a.Order,
		product.Domain:  a.Product,
	}
}

// Close releases the session store and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session store: %w", err))
		}
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
	}
	return errors.Join(errs...)
}
