// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package product lists products for buyers and manages a seller's catalogue.
package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain"
	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/state"
)

const Domain = "product"

const (
	OpFetchProducts = "fetchProducts"
	OpFetchProduct  = "fetchProduct"
	OpAddProduct    = "addProduct"
	OpUpdateProduct = "updateProduct"
	OpDeleteProduct = "deleteProduct"
)

// Product is one catalogue entry.
type Product struct {
	ID            domain.ID    `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Price         float64      `json:"price"`
	Stock         int          `json:"stock"`
	CategoryID    domain.ID    `json:"category_id,omitempty"`
	SubcategoryID domain.ID    `json:"subcategory_id,omitempty"`
	SellerID      domain.ID    `json:"seller_id,omitempty"`
	Images        []string     `json:"images,omitempty"`
	Extra         domain.Extra `json:"-"`
}

type productFields Product

func (p *Product) UnmarshalJSON(data []byte) error {
	var f productFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*p = Product(f)
	p.Extra = extra
	return nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	return domain.MarshalExtra(productFields(p), p.Extra)
}

// Data is the product slice payload.
type Data struct {
	Products []Product `json:"products"`
	Selected *Product  `json:"selected,omitempty"`
}

func (d *Data) clone() Data {
	if d == nil {
		return Data{}
	}
	return Data{Products: append([]Product(nil), d.Products...), Selected: d.Selected}
}

// Query filters the product list. Zero values are not sent.
type Query struct {
	CategoryID    string
	SubcategoryID string
	Search        string
	SellerID      string
	Page          int
	Limit         int
}

// Values encodes q as URL query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("category_id", q.CategoryID)
	set("subcategory_id", q.SubcategoryID)
	set("search", q.Search)
	set("seller_id", q.SellerID)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Input creates or updates a product. Images force a multipart form.
type Input struct {
	Name          string
	Description   string
	Price         float64
	Stock         int
	CategoryID    string
	SubcategoryID string
	Images        []domain.File
}

func (in Input) json() map[string]any {
	out := map[string]any{
		"name":  in.Name,
		"price": in.Price,
		"stock": in.Stock,
	}
	if in.Description != "" {
		out["description"] = in.Description
	}
	if in.CategoryID != "" {
		out["category_id"] = in.CategoryID
	}
	if in.SubcategoryID != "" {
		out["subcategory_id"] = in.SubcategoryID
	}
	return out
}

func (in Input) form() *gateway.Form {
	f := gateway.NewForm().
		Set("name", in.Name).
		Set("price", strconv.FormatFloat(in.Price, 'f', -1, 64)).
		Set("stock", strconv.Itoa(in.Stock))
	if in.Description != "" {
		f.Set("description", in.Description)
	}
	if in.CategoryID != "" {
		f.Set("category_id", in.CategoryID)
	}
	if in.SubcategoryID != "" {
		f.Set("subcategory_id", in.SubcategoryID)
	}
	for i := range in.Images {
		in.Images[i].Attach(f, "images")
	}
	return f
}

type Actions struct {
	d     *dispatch.Dispatcher
	slice *state.Slice[Data]
}

func NewActions(d *dispatch.Dispatcher, slice *state.Slice[Data]) *Actions {
	return &Actions{d: d, slice: slice}
}

// FetchProducts replaces the product list.
func (a *Actions) FetchProducts(ctx context.Context, q Query) ([]Product, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, []Product]{
		Name:           OpFetchProducts,
		SuccessMessage: "Products fetched successfully",
		FailureMessage: "Failed to fetch products",
		Merge: func(prev *Data, ps []Product) *Data {
			next := prev.clone()
			next.Products = ps
			return &next
		},
	}, dispatch.Call{Method: http.MethodGet, Path: "/products", Query: q.Values()})
}

// FetchProduct loads one product into Selected.
func (a *Actions) FetchProduct(ctx context.Context, id string) (Product, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Product]{
		Name:           OpFetchProduct,
		SuccessMessage: "Product fetched successfully",
		FailureMessage: "Failed to fetch product",
		Merge: func(prev *Data, p Product) *Data {
			next := prev.clone()
			next.Selected = &p
			return &next
		},
	}, dispatch.Call{Method: http.MethodGet, Path: "/products/" + url.PathEscape(id)})
}

// AddProduct creates a product. The request is always multipart.
func (a *Actions) AddProduct(ctx context.Context, in Input) (Product, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Product]{
		Name:           OpAddProduct,
		SuccessMessage: "Product added successfully",
		FailureMessage: "Failed to add product",
		Merge: func(prev *Data, p Product) *Data {
			next := prev.clone()
			next.Products = append(next.Products, p)
			return &next
		},
	}, dispatch.Call{Method: http.MethodPost, Path: "/products", Protected: true, Body: in.form()})
}

// UpdateProduct replaces the product with the same id.
func (a *Actions) UpdateProduct(ctx context.Context, id string, in Input) (Product, error) {
	var body any = in.json()
	if f := in.form(); f.HasFiles() {
		body = f
	}
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Product]{
		Name:           OpUpdateProduct,
		SuccessMessage: "Product updated successfully",
		FailureMessage: "Failed to update product",
		Merge: func(prev *Data, p Product) *Data {
			next := prev.clone()
			for i := range next.Products {
				if next.Products[i].ID == p.ID {
					next.Products[i] = p
				}
			}
			if next.Selected != nil && next.Selected.ID == p.ID {
				next.Selected = &p
			}
			return &next
		},
	}, dispatch.Call{Method: http.MethodPut, Path: "/products/" + url.PathEscape(id), Protected: true, Body: body})
}

// DeleteProduct removes the product with id.
func (a *Actions) DeleteProduct(ctx context.Context, id string) error {
	_, err := dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, json.RawMessage]{
		Name:           OpDeleteProduct,
		SuccessMessage: "Product deleted successfully",
		FailureMessage: "Failed to delete product",
		Merge: func(prev *Data, _ json.RawMessage) *Data {
			next := prev.clone()
			kept := next.Products[:0]
			for _, p := range next.Products {
				if string(p.ID) != id {
					kept = append(kept, p)
				}
			}
			next.Products = kept
			if next.Selected != nil && string(next.Selected.ID) == id {
				next.Selected = nil
			}
			return &next
		},
	}, dispatch.Call{Method: http.MethodDelete, Path: "/products/" + url.PathEscape(id), Protected: true})
	return err
}

type Facade struct {
	domain.Facade[Data]
	*Actions
}

func NewFacade(actions *Actions) *Facade {
	return &Facade{Facade: domain.NewFacade(actions.slice), Actions: actions}
}

// OnActivate does nothing; listing needs a caller-chosen Query.
func (f *Facade) OnActivate(context.Context) error {
	return nil
}
