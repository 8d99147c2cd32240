package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// Document is a stored record in its JSON shape: string keys; values are
// strings, float64, bool, nil, nested Documents or []any.
type Document map[string]any

// Filter selects documents by equality on top-level fields.
type Filter map[string]any

// ByID returns a filter on the document identifier.
func ByID(id types.ID) Filter {
	return Filter{IDField: id.String()}
}

// ID returns the document identifier as a string, or "".
func (d Document) ID() string {
	s, _ := d[IDField].(string)
	return s
}

// Encode converts a typed value into a Document through its JSON form.
func Encode(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode converts a Document into a typed value through its JSON form.
func Decode(doc Document, v any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// DecodeAll decodes every document into a slice of T.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// normalize returns a deep copy of v in canonical JSON shape, so values
// coming from Go code (ints, typed strings, structs) compare equal to
// values read back from storage.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeDocument(doc Document) (Document, error) {
	n, err := normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	m, _ := n.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return Document(m), nil
}

// matches reports whether doc satisfies every equality in filter.
// Both sides must already be normalized.
func matches(doc Document, filter Filter) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func normalizeFilter(filter Filter) (Filter, error) {
	if len(filter) == 0 {
		return Filter{}, nil
	}
	n, err := normalize(filter)
	if err != nil {
		return nil, fmt.Errorf("normalize filter: %w", err)
	}
	m, _ := n.(map[string]any)
	return Filter(m), nil
}

// copyDocument returns a deep copy of an already normalized document.
func copyDocument(doc Document) Document {
	return Document(copyValue(map[string]any(doc)).(map[string]any))
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = copyValue(val)
		}
		return m
	case Document:
		return copyValue(map[string]any(t))
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = copyValue(val)
		}
		return s
	default:
		return v
	}
}

// sortedNames returns the collection names in a stable order.
func sortedNames(names []string) []string {
	sort.Strings(names)
	return names
}
