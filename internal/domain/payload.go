// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package domain holds what the per-domain packages share: tolerant id decoding,
// the Extra bag for unmodeled fields, upload files and the facade base.
package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ID is a server identifier. The API sends both "12" and 12; both decode to "12".
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Extra carries response fields the client does not model.
type Extra map[string]json.RawMessage

// UnmarshalExtra decodes data into known, a pointer to a struct without custom
// JSON methods, and returns the object keys that no field of known claims.
func UnmarshalExtra(data []byte, known any) (Extra, error) {
	if err := json.Unmarshal(data, known); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	fields := jsonFields(reflect.TypeOf(known))
	var extra Extra
	for k, v := range raw {
		if _, ok := fields[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(Extra)
		}
		extra[k] = v
	}
	return extra, nil
}

// MarshalExtra encodes known and adds every Extra key known does not already set.
func MarshalExtra(known any, extra Extra) ([]byte, error) {
	buf, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return buf, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(buf, &obj); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := obj[k]; !ok {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}

var fieldCache sync.Map // reflect.Type -> map[string]struct{}

func jsonFields(t reflect.Type) map[string]struct{} {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	out := make(map[string]struct{})
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag := f.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, _, _ := strings.Cut(tag, ",")
			if name == "" {
				name = f.Name
			}
			out[name] = struct{}{}
		}
	}
	fieldCache.Store(t, out)
	return out
}
