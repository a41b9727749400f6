package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errListShape = errors.New("list field must be an array of strings or a comma-separated string")

// ListInput is a multi-valued request field.  Clients send it either as an
// array or as one comma-separated string; Normalize turns both into the
// same trimmed slice.
type ListInput struct {
	items  []string
	text   string
	isText bool
}

// ListOf returns a ListInput holding the array variant.
func ListOf(items ...string) ListInput {
	return ListInput{items: items}
}

// ListText returns a ListInput holding the comma-separated variant.
func ListText(s string) ListInput {
	return ListInput{text: s, isText: true}
}

// Normalize splits the string variant on commas, trims every element and
// drops elements that are empty after trimming.  The result is never nil.
func (l ListInput) Normalize() []string {
	src := l.items
	if l.isText {
		src = strings.Split(l.text, ",")
	}
	out := make([]string, 0, len(src))
	for _, v := range src {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// UnmarshalJSON accepts a string, an array of strings or null.
func (l *ListInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*l = ListInput{}
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = ListText(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return errListShape
	}
	*l = ListOf(items...)
	return nil
}

// UnmarshalParam lets echo bind form and query values, which are always the
// comma-separated variant.
func (l *ListInput) UnmarshalParam(param string) error {
	*l = ListText(param)
	return nil
}

// MarshalJSON writes the normalized array.
func (l ListInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Normalize())
}
