// SPDX-License-Identifier: MIT

package config

import (
	"reflect"
	"strings"
)

// sensitiveKeywords mark keys whose values are never logged.
var sensitiveKeywords = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"apikey",
	"api_key",
	"credential",
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MaskSecrets returns a printable copy of data with sensitive values replaced by "***".
// Structs are walked by their yaml tag names, falling back to the field name.
func MaskSecrets(data any) any {
	if data == nil {
		return nil
	}
	return maskValue(reflect.ValueOf(data))
}

func maskValue(val reflect.Value) any {
	for val.Kind() == reflect.Pointer || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Map:
		out := make(map[string]any, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			if isSensitiveKey(key) {
				out[key] = "***"
				continue
			}
			out[key] = maskValue(iter.Value())
		}
		return out
	case reflect.Struct:
		out := make(map[string]any, val.NumField())
		t := val.Type()
		for i := 0; i < val.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				continue
			}
			if name == "" {
				name = f.Name
			}
			if isSensitiveKey(name) || isSensitiveKey(f.Name) {
				if !val.Field(i).IsZero() {
					out[name] = "***"
				} else {
					out[name] = ""
				}
				continue
			}
			out[name] = maskValue(val.Field(i))
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, val.Len())
		for i := range out {
			out[i] = maskValue(val.Index(i))
		}
		return out
	default:
		if !val.IsValid() || !val.CanInterface() {
			return nil
		}
		return val.Interface()
	}
}
