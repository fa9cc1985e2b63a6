// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package order places buyer orders and lets sellers move them through fulfilment.
package order

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain"
	"github.com/ManuGH/storefront/internal/state"
)

const Domain = "order"

const (
	OpPlaceOrder        = "placeOrder"
	OpFetchOrders       = "fetchOrders"
	OpUpdateOrderStatus = "updateOrderStatus"
)

// Status is an order's fulfilment status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Line is one ordered product.
type Line struct {
	ProductID domain.ID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price,omitempty"`
}

type Order struct {
	ID              domain.ID    `json:"id"`
	Status          Status       `json:"status"`
	Total           float64      `json:"total,omitempty"`
	DeliveryAddress string       `json:"delivery_address,omitempty"`
	Products        []Line       `json:"products,omitempty"`
	CreatedAt       string       `json:"created_at,omitempty"`
	Extra           domain.Extra `json:"-"`
}

type orderFields Order

func (o *Order) UnmarshalJSON(data []byte) error {
	var f orderFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*o = Order(f)
	o.Extra = extra
	return nil
}

func (o Order) MarshalJSON() ([]byte, error) {
	return domain.MarshalExtra(orderFields(o), o.Extra)
}

// Data holds the known orders, newest first, and the last placed order.
type Data struct {
	Orders []Order `json:"orders"`
	Last   *Order  `json:"last,omitempty"`
}

func (d *Data) clone() Data {
	if d == nil {
		return Data{}
	}
	return Data{Orders: append([]Order(nil), d.Orders...), Last: d.Last}
}

// PlaceInput is the checkout body.
type PlaceInput struct {
	DeliveryAddress string `json:"delivery_address"`
	Products        []Line `json:"products"`
}

type statusBody struct {
	Status Status `json:"status"`
}

type Actions struct {
	d     *dispatch.Dispatcher
	slice *state.Slice[Data]
}

func NewActions(d *dispatch.Dispatcher, slice *state.Slice[Data]) *Actions {
	return &Actions{d: d, slice: slice}
}

// PlaceOrder checks out and records the new order as Last.
func (a *Actions) PlaceOrder(ctx context.Context, in PlaceInput) (Order, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Order]{
		Name:           OpPlaceOrder,
		SuccessMessage: "Order placed successfully",
		FailureMessage: "Failed to place order",
		Merge: func(prev *Data, o Order) *Data {
			next := prev.clone()
			next.Orders = append([]Order{o}, next.Orders...)
			next.Last = &o
			return &next
		},
	}, dispatch.Call{Method: http.MethodPost, Path: "/orders", Protected: true, Body: in})
}

func (a *Actions) FetchOrders(ctx context.Context) ([]Order, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, []Order]{
		Name:           OpFetchOrders,
		SuccessMessage: "Orders fetched successfully",
		FailureMessage: "Failed to fetch orders",
		Merge: func(prev *Data, orders []Order) *Data {
			next := prev.clone()
			next.Orders = orders
			return &next
		},
	}, dispatch.Call{Method: http.MethodGet, Path: "/orders", Protected: true})
}

// UpdateOrderStatus replaces order id with the server's updated record.
func (a *Actions) UpdateOrderStatus(ctx context.Context, id string, status Status) (Order, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Order]{
		Name:           OpUpdateOrderStatus,
		SuccessMessage: "Order status updated",
		FailureMessage: "Failed to update order status",
		Merge: func(prev *Data, o Order) *Data {
			if o.ID == "" {
				o.ID = domain.ID(id)
			}
			next := prev.clone()
			for i := range next.Orders {
				if next.Orders[i].ID == o.ID {
					next.Orders[i] = o
				}
			}
			if next.Last != nil && next.Last.ID == o.ID {
				next.Last = &o
			}
			return &next
		},
	}, dispatch.Call{Method: http.MethodPut, Path: "/orders/" + url.PathEscape(id) + "/status", Protected: true, Body: statusBody{Status: status}})
}

type Facade struct {
	domain.Facade[Data]
	*Actions
}

func NewFacade(actions *Actions) *Facade {
	return &Facade{Facade: domain.NewFacade(actions.slice), Actions: actions}
}

// OnActivate fetches the orders.
func (f *Facade) OnActivate(ctx context.Context) error {
	_, err := f.FetchOrders(ctx)
	return err
}
