// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package payment reads a seller's received payments and earnings summary.
package payment

import (
	"context"
	"net/http"

	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain"
	"github.com/ManuGH/storefront/internal/state"
	"golang.org/x/sync/errgroup"
)

const Domain = "payment"

const (
	OpFetchSellerPayments = "fetchSellerPayments"
	OpFetchSellerEarnings = "fetchSellerEarnings"
)

type Payment struct {
	ID        domain.ID    `json:"id"`
	OrderID   domain.ID    `json:"order_id"`
	Amount    float64      `json:"amount"`
	Currency  string       `json:"currency,omitempty"`
	Status    string       `json:"status"`
	Method    string       `json:"method,omitempty"`
	CreatedAt string       `json:"created_at,omitempty"`
	Extra     domain.Extra `json:"-"`
}

type paymentFields Payment

func (p *Payment) UnmarshalJSON(data []byte) error {
	var f paymentFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*p = Payment(f)
	p.Extra = extra
	return nil
}

func (p Payment) MarshalJSON() ([]byte, error) {
	return domain.MarshalExtra(paymentFields(p), p.Extra)
}

// Earnings is the seller's aggregate.
type Earnings struct {
	Total    float64      `json:"total"`
	Pending  float64      `json:"pending"`
	Paid     float64      `json:"paid"`
	Currency string       `json:"currency,omitempty"`
	Extra    domain.Extra `json:"-"`
}

type earningsFields Earnings

func (e *Earnings) UnmarshalJSON(data []byte) error {
	var f earningsFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*e = Earnings(f)
	e.Extra = extra
	return nil
}

func (e Earnings) MarshalJSON() ([]byte, error) {
	return domain.MarshalExtra(earningsFields(e), e.Extra)
}

type Data struct {
	Payments []Payment `json:"payments"`
	Earnings *Earnings `json:"earnings"`
}

func (d *Data) clone() Data {
	if d == nil {
		return Data{}
	}
	return *d
}

type Actions struct {
	d     *dispatch.Dispatcher
	slice *state.Slice[Data]
}

func NewActions(d *dispatch.Dispatcher, slice *state.Slice[Data]) *Actions {
	return &Actions{d: d, slice: slice}
}

func (a *Actions) FetchSellerPayments(ctx context.Context) ([]Payment, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, []Payment]{
		Name:           OpFetchSellerPayments,
		SuccessMessage: "Payments fetched successfully",
		FailureMessage: "Failed to fetch payments",
		Merge: func(prev *Data, ps []Payment) *Data {
			next := prev.clone()
			next.Payments = ps
			return &next
		},
	}, dispatch.Call{Method: http.MethodGet, Path: "/payments", Protected: true})
}

func (a *Actions) FetchSellerEarnings(ctx context.Context) (Earnings, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Earnings]{
		Name:           OpFetchSellerEarnings,
		SuccessMessage: "Earnings fetched successfully",
		FailureMessage: "Failed to fetch earnings",
		Merge: func(prev *Data, e Earnings) *Data {
			next := prev.clone()
			next.Earnings = &e
			return &next
		},
	}, dispatch.Call{Method: http.MethodGet, Path: "/payments/earnings", Protected: true})
}

type Facade struct {
	domain.Facade[Data]
	*Actions
}

func NewFacade(actions *Actions) *Facade {
	return &Facade{Facade: domain.NewFacade(actions.slice), Actions: actions}
}

// OnActivate fetches payments and earnings concurrently.
func (f *Facade) OnActivate(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := f.FetchSellerPayments(ctx)
		return err
	})
	g.Go(func() error {
		_, err := f.FetchSellerEarnings(ctx)
		return err
	})
	return g.Wait()
}
