// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package category manages the category and subcategory taxonomy.
package category

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/ManuGH/storefront/internal/dispatch"
	"github.com/ManuGH/storefront/internal/domain"
	"github.com/ManuGH/storefront/internal/gateway"
	"github.com/ManuGH/storefront/internal/state"
)

const Domain = "category"

const (
	OpFetchCategories    = "fetchCategories"
	OpAddCategory        = "addCategory"
	OpUpdateCategory     = "updateCategory"
	OpDeleteCategory     = "deleteCategory"
	OpFetchSubcategories = "fetchSubcategories"
	OpAddSubcategory     = "addSubcategory"
	OpUpdateSubcategory  = "updateSubcategory"
	OpDeleteSubcategory  = "deleteSubcategory"
)

type Category struct {
	ID          domain.ID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Image       string       `json:"image,omitempty"`
	Extra       domain.Extra `json:"-"`
}

type categoryFields Category

func (c *Category) UnmarshalJSON(data []byte) error {
	var f categoryFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*c = Category(f)
	c.Extra = extra
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	return domain.MarshalExtra(categoryFields(c), c.Extra)
}

type Subcategory struct {
	ID         domain.ID    `json:"id"`
	Name       string       `json:"name"`
	CategoryID domain.ID    `json:"category_id"`
	Extra      domain.Extra `json:"-"`
}

type subcategoryFields Subcategory

func (s *Subcategory) UnmarshalJSON(data []byte) error {
	var f subcategoryFields
	extra, err := domain.UnmarshalExtra(data, &f)
	if err != nil {
		return err
	}
	*s = Subcategory(f)
	s.Extra = extra
	return nil
}

func (s Subcategory) MarshalJSON() ([]byte, error) {
	return domain.MarshalExtra(subcategoryFields(s), s.Extra)
}

// Data is the category slice payload.
type Data struct {
	Categories    []Category    `json:"categories"`
	Subcategories []Subcategory `json:"subcategories"`
}

func (d *Data) clone() Data {
	if d == nil {
		return Data{}
	}
	return Data{
		Categories:    append([]Category(nil), d.Categories...),
		Subcategories: append([]Subcategory(nil), d.Subcategories...),
	}
}

// CategoryInput creates or updates a category. An Image makes it multipart.
type CategoryInput struct {
	Name        string
	Description string
	Image       *domain.File
}

func (in CategoryInput) body() any {
	if in.Image == nil {
		m := map[string]string{"name": in.Name}
		if in.Description != "" {
			m["description"] = in.Description
		}
		return m
	}
	f := gateway.NewForm().Set("name", in.Name)
	if in.Description != "" {
		f.Set("description", in.Description)
	}
	in.Image.Attach(f, "image")
	return f
}

// SubcategoryInput creates or updates a subcategory.
type SubcategoryInput struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
}

type Actions struct {
	d     *dispatch.Dispatcher
	slice *state.Slice[Data]
}

func NewActions(d *dispatch.Dispatcher, slice *state.Slice[Data]) *Actions {
	return &Actions{d: d, slice: slice}
}

func (a *Actions) FetchCategories(ctx context.Context) ([]Category, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, []Category]{
		Name:           OpFetchCategories,
		SuccessMessage: "Categories fetched successfully",
		FailureMessage: "Failed to fetch categories",
		Merge: func(prev *Data, cs []Category) *Data {
			next := prev.clone()
			next.Categories = cs
			return &next
		},
	}, dispatch.Call{Method: http.MethodGet, Path: "/categories"})
}

func (a *Actions) AddCategory(ctx context.Context, in CategoryInput) (Category, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Category]{
		Name:           OpAddCategory,
		SuccessMessage: "Category added successfully",
		FailureMessage: "Failed to add category",
		Merge: func(prev *Data, c Category) *Data {
			next := prev.clone()
			next.Categories = append(next.Categories, c)
			return &next
		},
	}, dispatch.Call{Method: http.MethodPost, Path: "/categories", Protected: true, Body: in.body()})
}

func (a *Actions) UpdateCategory(ctx context.Context, id string, in CategoryInput) (Category, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Category]{
		Name:           OpUpdateCategory,
		SuccessMessage: "Category updated successfully",
		FailureMessage: "Failed to update category",
		Merge: func(prev *Data, c Category) *Data {
			next := prev.clone()
			for i := range next.Categories {
				if string(next.Categories[i].ID) == id {
					next.Categories[i] = c
				}
			}
			return &next
		},
	}, dispatch.Call{Method: http.MethodPut, Path: "/categories/" + url.PathEscape(id), Protected: true, Body: in.body()})
}

// DeleteCategory removes the category and its subcategories from state.
func (a *Actions) DeleteCategory(ctx context.Context, id string) error {
	_, err := dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, json.RawMessage]{
		Name:           OpDeleteCategory,
		SuccessMessage: "Category deleted successfully",
		FailureMessage: "Failed to delete category",
		Merge: func(prev *Data, _ json.RawMessage) *Data {
			next := prev.clone()
			cats := next.Categories[:0]
			for _, c := range next.Categories {
				if string(c.ID) != id {
					cats = append(cats, c)
				}
			}
			subs := next.Subcategories[:0]
			for _, s := range next.Subcategories {
				if string(s.CategoryID) != id {
					subs = append(subs, s)
				}
			}
			next.Categories, next.Subcategories = cats, subs
			return &next
		},
	}, dispatch.Call{Method: http.MethodDelete, Path: "/categories/" + url.PathEscape(id), Protected: true})
	return err
}

// FetchSubcategories lists subcategories, optionally of one category.
func (a *Actions) FetchSubcategories(ctx context.Context, categoryID string) ([]Subcategory, error) {
	var q url.Values
	if categoryID != "" {
		q = url.Values{"category_id": {categoryID}}
	}
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, []Subcategory]{
		Name:           OpFetchSubcategories,
		SuccessMessage: "Subcategories fetched successfully",
		FailureMessage: "Failed to fetch subcategories",
		Merge: func(prev *Data, ss []Subcategory) *Data {
			next := prev.clone()
			next.Subcategories = ss
			return &next
		},
	}, dispatch.Call{Method: http.MethodGet, Path: "/subcategories", Query: q})
}

func (a *Actions) AddSubcategory(ctx context.Context, in SubcategoryInput) (Subcategory, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Subcategory]{
		Name:           OpAddSubcategory,
		SuccessMessage: "Subcategory added successfully",
		FailureMessage: "Failed to add subcategory",
		Merge: func(prev *Data, s Subcategory) *Data {
			next := prev.clone()
			next.Subcategories = append(next.Subcategories, s)
			return &next
		},
	}, dispatch.Call{Method: http.MethodPost, Path: "/subcategories", Protected: true, Body: in})
}

func (a *Actions) UpdateSubcategory(ctx context.Context, id string, in SubcategoryInput) (Subcategory, error) {
	return dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, Subcategory]{
		Name:           OpUpdateSubcategory,
		SuccessMessage: "Subcategory updated successfully",
		FailureMessage: "Failed to update subcategory",
		Merge: func(prev *Data, s Subcategory) *Data {
			next := prev.clone()
			for i := range next.Subcategories {
				if string(next.Subcategories[i].ID) == id {
					next.Subcategories[i] = s
				}
			}
			return &next
		},
	}, dispatch.Call{Method: http.MethodPut, Path: "/subcategories/" + url.PathEscape(id), Protected: true, Body: in})
}

func (a *Actions) DeleteSubcategory(ctx context.Context, id string) error {
	_, err := dispatch.Execute(ctx, a.d, a.slice, dispatch.Operation[Data, json.RawMessage]{
		Name:           OpDeleteSubcategory,
		SuccessMessage: "Subcategory deleted successfully",
		FailureMessage: "Failed to delete subcategory",
		Merge: func(prev *Data, _ json.RawMessage) *Data {
			next := prev.clone()
			subs := next.Subcategories[:0]
			for _, s := range next.Subcategories {
				if string(s.ID) != id {
					subs = append(subs, s)
				}
			}
			next.Subcategories = subs
			return &next
		},
	}, dispatch.Call{Method: http.MethodDelete, Path: "/subcategories/" + url.PathEscape(id), Protected: true})
	return err
}

type Facade struct {
	domain.Facade[Data]
	*Actions
}

func NewFacade(actions *Actions) *Facade {
	return &Facade{Facade: domain.NewFacade(actions.slice), Actions: actions}
}

// OnActivate fetches the categories.
func (f *Facade) OnActivate(ctx context.Context) error {
	_, err := f.FetchCategories(ctx)
	return err
}
