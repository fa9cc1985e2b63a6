// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cart manages the buyer's shopping cart.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain"
	"github.com/ManuGH/storefront/internal/domain/product"
	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/state"
	"golang.org/x/sync/errgroup"
)

const Domain = "cart"

const (
	OpFetchCart         = "fetchCart"
	OpAddCartItem       = "addCartItem"
	OpUpdateCartItem    = "updateCartItem"
	OpDeleteCartItem    = "deleteCartItem"
	OpDeleteCartByOwner = "deleteCartByOwner"
)

// Item is one cart line.
type Item struct {
	ID        domain.ID    `json:"id"`
	ProductID domain.ID    `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Name      string       `json:"name,omitempty"`
	Price     float64      `json:"price,omitempty"`
	Image     string       `json:"image,omitempty"`
	Extra     domain.Extra `json:"-"`
}

type itemFields Item

func (it *Item) UnmarshalJSON(data []byte) error {
	var f itemFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*it = Item(f)
	it.Extra = extra
	return nil
}

func (it Item) MarshalJSON() ([]byte, error) {
	return domain.MarshalExtra(itemFields(it), it.Extra)
}

// Total is the sum of price times quantity over items.
func Total(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

// AddInput is the add-to-cart body.
type AddInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type quantityBody struct {
	Quantity int `json:"quantity"`
}

func items(prev *[]Item) []Item {
	if prev == nil {
		return nil
	}
	return append([]Item(nil), (*prev)...)
}

// upsert replaces the line with the same id or product, else appends.
func upsert(prev *[]Item, it Item) *[]Item {
	next := items(prev)
	for i := range next {
		if (it.ID != "" && next[i].ID == it.ID) || (it.ProductID != "" && next[i].ProductID == it.ProductID) {
			next[i] = it
			return &next
		}
	}
	next = append(next, it)
	return &next
}

func remove(prev *[]Item, id string) *[]Item {
	next := items(prev)
	kept := next[:0]
	for _, it := range next {
		if string(it.ID) != id {
			kept = append(kept, it)
		}
	}
	return &kept
}

type Actions struct {
	d     *dispatch.Dispatcher
	slice *state.Slice[[]Item]
}

func NewActions(d *dispatch.Dispatcher, slice *state.Slice[[]Item]) *Actions {
	return &Actions{d: d, slice: slice}
}

// FetchCart replaces the cart lines.
func (a *Actions) FetchCart(ctx context.Context) ([]Item, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[[]Item, []Item]{
		Name:           OpFetchCart,
		SuccessMessage: "Cart fetched successfully",
		FailureMessage: "Failed to fetch cart",
		Merge:          dispatch.Replace[[]Item],
	}, dispatch.Call{Method: http.MethodGet, Path: "/cart", Protected: true})
}

// AddCartItem adds a product, or replaces its existing line.
func (a *Actions) AddCartItem(ctx context.Context, in AddInput) (Item, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[[]Item, Item]{
		Name:           OpAddCartItem,
		SuccessMessage: "Item added to cart",
		FailureMessage: "Failed to add item to cart",
		Merge:          upsert,
	}, dispatch.Call{Method: http.MethodPost, Path: "/cart", Protected: true, Body: in})
}

// UpdateCartItem changes the quantity of line id.
func (a *Actions) UpdateCartItem(ctx context.Context, id string, quantity int) (Item, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[[]Item, Item]{
		Name:           OpUpdateCartItem,
		SuccessMessage: "Cart item updated",
		FailureMessage: "Failed to update cart item",
		Merge: func(prev *[]Item, it Item) *[]Item {
			if it.ID == "" {
				it.ID = domain.ID(id)
			}
			return upsert(prev, it)
		},
	}, dispatch.Call{Method: http.MethodPut, Path: "/cart/" + url.PathEscape(id), Protected: true, Body: quantityBody{Quantity: quantity}})
}

// DeleteCartItem removes line id.
func (a *Actions) DeleteCartItem(ctx context.Context, id string) error {
	_, err := dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[[]Item, json.RawMessage]{
		Name:           OpDeleteCartItem,
		SuccessMessage: "Item removed from cart",
		FailureMessage: "Failed to remove cart item",
		Merge:          func(prev *[]Item, _ json.RawMessage) *[]Item { return remove(prev, id) },
	}, dispatch.Call{Method: http.MethodDelete, Path: "/cart/" + url.PathEscape(id), Protected: true})
	return err
}

// DeleteCartByOwner empties the cart of userID. An empty userID means the
// signed-in user.
func (a *Actions) DeleteCartByOwner(ctx context.Context, userID string) error {
	op := dispatch.Operation[[]Item, json.RawMessage]{
		Name:           OpDeleteCartByOwner,
		SuccessMessage: "Cart cleared",
		FailureMessage: "Failed to clear cart",
		Merge:          func(*[]Item, json.RawMessage) *[]Item { return &[]Item{} },
	}
	if userID == "" {
		u, err := a.d.Session().User(ctx)
		if err != nil {
			return a.failLocal(op.Name, err)
		}
		if u == nil {
			return a.failLocal(op.Name, errors.New("no signed-in user"))
		}
		userID = u.ID
	}
	_, err := dispatch.Execute(ctx, a.d, a.slice, op, dispatch.Call{
		Method:    http.MethodDelete,
		Path:      "/cart/user/" + url.PathEscape(userID),
		Protected: true,
	})
	return err
}

func (a *Actions) failLocal(op string, err error) error {
	gwErr := gateway.Normalize(err)
	a.slice.Apply(state.Started[[]Item](op))
	a.slice.Apply(state.Failed[[]Item](op, gwErr.Message))
	return gwErr
}

// Facade is the cart view binding. It also fetches products, which the cart
// view renders next to the lines.
type Facade struct {
	domain.Facade[[]Item]
	*Actions
	products *product.Actions
}

func NewFacade(actions *Actions, products *product.Actions) *Facade {
	return &Facade{Facade: domain.NewFacade(actions.slice), Actions: actions, products: products}
}

// OnActivate fetches the cart and the product list concurrently. Both dispatches
// always run to completion; the first error is returned.
func (f *Facade) OnActivate(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := f.FetchCart(ctx)
		return err
	})
	if f.products != nil {
		g.Go(func() error {
			_, err := f.products.FetchProducts(ctx, product.Query{})
			return err
		})
	}
	return g.Wait()
}
