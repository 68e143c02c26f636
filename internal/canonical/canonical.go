// Package canonical produces deterministic JSON encodings and hashable forms
// of DataPack records for change detection.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Stringify encodes v as compact JSON with object keys sorted and without
// HTML escaping. Equal trees always produce identical text.
func Stringify(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode canonical json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Decode parses a single JSON value, keeping numbers as json.Number so
// re-encoding preserves their literal form.
func Decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after json value")
	}
	return v, nil
}

// CanonicalString returns the stable encoding of s when s holds JSON text,
// and s unchanged otherwise.
func CanonicalString(s string) string {
	v, err := Decode(s)
	if err != nil {
		return s
	}
	out, err := Stringify(v)
	if err != nil {
		return s
	}
	return out
}

// ToTree converts any JSON-encodable value into a generic tree of
// map[string]any, []any and scalars.
func ToTree(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return Decode(string(raw))
}

// Clone deep-copies a generic JSON tree.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = Clone(child)
		}
		return out
	default:
		return v
	}
}

// Hash returns the hex SHA-256 of the stable encoding of v.
func Hash(v any) (string, error) {
	text, err := Stringify(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}
