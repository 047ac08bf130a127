package cajaclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PageShape tells which of the backend's list encodings a page came from.
type PageShape int

const (
	// ShapeList is a bare JSON array.
	ShapeList PageShape = iota
	// ShapeCounted is {"count": n, "<key>": [...]}.
	ShapeCounted
	// ShapePaginated is {"count", "next", "previous", "results"}.
	ShapePaginated
)

func (s PageShape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeCounted:
		return "counted"
	case ShapePaginated:
		return "paginated"
	}
	return fmt.Sprintf("PageShape(%d)", int(s))
}

// Page is a list response normalized once at the client boundary.
// Count is the server total when reported, else len(Items).
type Page[T any] struct {
	Shape       PageShape
	Items       []T
	Count       int
	HasNext     bool
	HasPrevious bool
}

// DecodePage accepts a bare array, {count, <key>} or the paginated envelope.
// Items is never nil.
func DecodePage[T any](raw []byte, key string) (Page[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Page[T]{}, fmt.Errorf("decode page: empty body")
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return Page[T]{}, fmt.Errorf("decode page: %w", err)
		}
		return newPage(ShapeList, items, nil), nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return Page[T]{}, fmt.Errorf("decode page: %w", err)
	}

	var count *int
	if c, ok := env["count"]; ok {
		var n int
		if err := json.Unmarshal(c, &n); err != nil {
			return Page[T]{}, fmt.Errorf("decode page count: %w", err)
		}
		count = &n
	}

	if res, ok := env["results"]; ok {
		var items []T
		if err := unmarshalItems(res, &items); err != nil {
			return Page[T]{}, err
		}
		p := newPage(ShapePaginated, items, count)
		p.HasNext = present(env["next"])
		p.HasPrevious = present(env["previous"])
		return p, nil
	}

	if res, ok := env[key]; ok && key != "" {
		var items []T
		if err := unmarshalItems(res, &items); err != nil {
			return Page[T]{}, err
		}
		return newPage(ShapeCounted, items, count), nil
	}

	return Page[T]{}, fmt.Errorf("decode page: no %q or \"results\" field", key)
}

func unmarshalItems[T any](raw json.RawMessage, items *[]T) error {
	if !present(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, items); err != nil {
		return fmt.Errorf("decode page items: %w", err)
	}
	return nil
}

func newPage[T any](shape PageShape, items []T, count *int) Page[T] {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	if count != nil {
		n = *count
	}
	return Page[T]{Shape: shape, Items: items, Count: n}
}

// present is false for a missing field and for JSON null.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
