package dataapi

import (
	"bytes"
	"encoding/json"
)

// Pagination is the server-side paging metadata. Pages is authoritative and
// never recomputed by callers.
type Pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit,omitempty"`
	Total int `json:"total,omitempty"`
}

// Envelope is the response wrapper every data API endpoint uses.
type Envelope[T any] struct {
	Data       T           `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Page is a decoded paginated listing.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

type rawEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Message    string          `json:"message"`
}

// decodeEnvelope validates that body is an object carrying a data member and
// decodes that member into T.
func decodeEnvelope[T any](operation string, body []byte) (*Envelope[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &DecodeError{Operation: operation, Reason: "expected JSON object envelope"}
	}

	var raw rawEnvelope
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &DecodeError{Operation: operation, Reason: "invalid envelope", Err: err}
	}
	if len(raw.Data) == 0 || bytes.Equal(raw.Data, []byte("null")) {
		return nil, &DecodeError{Operation: operation, Reason: "missing data member"}
	}

	var out Envelope[T]
	if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
		return nil, &DecodeError{Operation: operation, Reason: "data does not match schema", Err: err}
	}
	out.Pagination = raw.Pagination
	return &out, nil
}

// pageFrom converts a list envelope into a Page, filling pagination defaults
// for endpoints that omit it.
func pageFrom[T any](env *Envelope[[]T], requestedPage int) *Page[T] {
	p := &Page[T]{Items: env.Data}
	if p.Items == nil {
		p.Items = []T{}
	}
	if env.Pagination != nil {
		p.Pagination = *env.Pagination
	} else {
		p.Pagination = Pagination{Page: requestedPage, Pages: 1}
	}
	return p
}
