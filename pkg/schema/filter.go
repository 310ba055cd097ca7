package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FilterType discriminates the nodes of a filter tree.
type FilterType string

const (
	FilterTypeEQ  FilterType = "EQ"
	FilterTypeNE  FilterType = "NE"
	FilterTypeGEQ FilterType = "GEQ"
	FilterTypeLEQ FilterType = "LEQ"
	FilterTypeGT  FilterType = "GT"
	FilterTypeLT  FilterType = "LT"
	FilterTypeIN  FilterType = "IN"
	FilterTypeAND FilterType = "AND"
	FilterTypeOR  FilterType = "OR"
)

// Filter is a discriminated tree over resource documents. Leaves compare a
// dotted document path against a JSON scalar; branches combine sub-filters.
// A zero Filter matches everything.
type Filter struct {
	Type    FilterType `json:"type,omitempty"`
	Key     string     `json:"key,omitempty"`
	Value   any        `json:"value,omitempty"`
	Values  []any      `json:"values,omitempty"`
	Filters []*Filter  `json:"filters,omitempty"`
}

// Leaf constructors.

func EQ(key string, value any) *Filter  { return &Filter{Type: FilterTypeEQ, Key: key, Value: value} }
func NE(key string, value any) *Filter  { return &Filter{Type: FilterTypeNE, Key: key, Value: value} }
func GEQ(key string, value any) *Filter { return &Filter{Type: FilterTypeGEQ, Key: key, Value: value} }
func LEQ(key string, value any) *Filter { return &Filter{Type: FilterTypeLEQ, Key: key, Value: value} }
func GT(key string, value any) *Filter  { return &Filter{Type: FilterTypeGT, Key: key, Value: value} }
func LT(key string, value any) *Filter  { return &Filter{Type: FilterTypeLT, Key: key, Value: value} }

func IN(key string, values ...any) *Filter {
	return &Filter{Type: FilterTypeIN, Key: key, Values: values}
}

func And(filters ...*Filter) *Filter { return &Filter{Type: FilterTypeAND, Filters: filters} }
func Or(filters ...*Filter) *Filter  { return &Filter{Type: FilterTypeOR, Filters: filters} }

// IsZero reports whether the filter is empty (matches everything).
func (f *Filter) IsZero() bool {
	return f == nil || f.Type == ""
}

// Validate checks the tree shape: leaves need a key, branches need children,
// and every type must belong to the enumeration.
func (f *Filter) Validate() error {
	if f.IsZero() {
		return nil
	}
	switch f.Type {
	case FilterTypeAND, FilterTypeOR:
		if len(f.Filters) == 0 {
			return fmt.Errorf("%s filter requires sub-filters", f.Type)
		}
		for _, sub := range f.Filters {
			if sub.IsZero() {
				return fmt.Errorf("%s filter contains an empty sub-filter", f.Type)
			}
			if err := sub.Validate(); err != nil {
				return err
			}
		}
		return nil
	case FilterTypeEQ, FilterTypeNE, FilterTypeGEQ, FilterTypeLEQ, FilterTypeGT, FilterTypeLT:
		if f.Key == "" {
			return fmt.Errorf("%s filter requires a key", f.Type)
		}
		return nil
	case FilterTypeIN:
		if f.Key == "" {
			return fmt.Errorf("IN filter requires a key")
		}
		return nil
	default:
		return fmt.Errorf("unknown filter type %q", f.Type)
	}
}

// Matches evaluates the filter against a document. This in-memory evaluator
// is the reference semantics; the SQL translation must agree with it.
func (f *Filter) Matches(doc map[string]any) bool {
	if f.IsZero() {
		return true
	}
	switch f.Type {
	case FilterTypeAND:
		for _, sub := range f.Filters {
			if !sub.Matches(doc) {
				return false
			}
		}
		return true
	case FilterTypeOR:
		for _, sub := range f.Filters {
			if sub.Matches(doc) {
				return true
			}
		}
		return false
	}

	val, ok := lookupPath(doc, f.Key)
	if !ok {
		return false
	}
	switch f.Type {
	case FilterTypeEQ:
		return compareValues(val, f.Value) == 0
	case FilterTypeNE:
		return compareValues(val, f.Value) != 0
	case FilterTypeGEQ:
		return comparableValues(val, f.Value) && compareValues(val, f.Value) >= 0
	case FilterTypeLEQ:
		return comparableValues(val, f.Value) && compareValues(val, f.Value) <= 0
	case FilterTypeGT:
		return comparableValues(val, f.Value) && compareValues(val, f.Value) > 0
	case FilterTypeLT:
		return comparableValues(val, f.Value) && compareValues(val, f.Value) < 0
	case FilterTypeIN:
		for _, candidate := range f.Values {
			if compareValues(val, candidate) == 0 {
				return true
			}
		}
		return false
	}
	return false
}

// MatchesDoc evaluates the filter against any JSON-marshalable value by
// round-tripping it into a generic document.
func (f *Filter) MatchesDoc(v any) bool {
	if f.IsZero() {
		return true
	}
	doc, err := DocumentOf(v)
	if err != nil {
		return false
	}
	return f.Matches(doc)
}

// DocumentOf converts a struct into its generic JSON document form.
func DocumentOf(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// lookupPath resolves a dotted path against nested JSON objects.
func lookupPath(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// compareValues orders two JSON scalars. Numbers compare numerically across
// integer widths, strings lexicographically, bools false < true. Incomparable
// values compare as unequal.
func compareValues(a, b any) int {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.Compare(as, bs)
	}

	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	}

	if a == nil && b == nil {
		return 0
	}
	return -1
}

// comparableValues guards ordered comparisons against mixed-type operands,
// for which EQ/NE still work but GEQ/LEQ/GT/LT must not match.
func comparableValues(a, b any) bool {
	_, aNum := asFloat(a)
	_, bNum := asFloat(b)
	if aNum && bNum {
		return true
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	return aStr && bStr
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
