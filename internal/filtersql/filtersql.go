// Package filtersql translates filter trees into SQL predicates that bun
// can append to list queries, so filtering and access control both run in
// the database instead of post-processing result pages.
package filtersql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/tumcps/tupli/pkg/schema"
)

var keySegmentRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Translator compiles filter trees for one resource kind and one SQL
// dialect. Plain keys resolve to table columns; dotted keys under a JSON
// column resolve to JSON path expressions.
type Translator struct {
	dialect  dialect.Name
	columns  map[string]string
	jsonCols map[string]string
}

// ForKind builds the translator for a resource kind. The key maps mirror
// the wire document shape of each header type.
func ForKind(d dialect.Name, kind string) (*Translator, error) {
	t := &Translator{dialect: d}
	switch kind {
	case schema.KindBenchmark:
		t.columns = map[string]string{
			"id":         "id",
			"hash":       "hash",
			"created_by": "created_by",
			"created_at": "created_at",
		}
		t.jsonCols = map[string]string{"metadata": "metadata"}
	case schema.KindArtifact:
		t.columns = map[string]string{
			"id":          "id",
			"hash":        "id",
			"name":        "name",
			"description": "description",
			"created_by":  "created_by",
			"created_at":  "created_at",
		}
	case schema.KindEpisode:
		t.columns = map[string]string{
			"id":           "id",
			"benchmark_id": "benchmark_id",
			"created_by":   "created_by",
			"created_at":   "created_at",
			"n_tuples":     "n_tuples",
			"terminated":   "terminated",
			"timeout":      "timeout",
		}
		t.jsonCols = map[string]string{"metadata": "metadata"}
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
	return t, nil
}

// Compile turns a filter tree into a SQL predicate with ? placeholders.
// A zero filter compiles to an always-true predicate.
func (t *Translator) Compile(f *schema.Filter) (string, []any, error) {
	if f.IsZero() {
		return "1 = 1", nil, nil
	}
	if err := f.Validate(); err != nil {
		return "", nil, schema.Validationf("invalid filter: %v", err)
	}
	return t.compile(f)
}

func (t *Translator) compile(f *schema.Filter) (string, []any, error) {
	switch f.Type {
	case schema.FilterTypeAND, schema.FilterTypeOR:
		op := " AND "
		if f.Type == schema.FilterTypeOR {
			op = " OR "
		}
		parts := make([]string, 0, len(f.Filters))
		var args []any
		for _, sub := range f.Filters {
			expr, subArgs, err := t.compile(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, expr)
			args = append(args, subArgs...)
		}
		return "(" + strings.Join(parts, op) + ")", args, nil
	}

	expr, err := t.keyExpr(f.Key, f.Value)
	if err != nil {
		return "", nil, err
	}

	switch f.Type {
	case schema.FilterTypeEQ:
		return expr + " = ?", []any{f.Value}, nil
	case schema.FilterTypeNE:
		return expr + " <> ?", []any{f.Value}, nil
	case schema.FilterTypeGEQ:
		return expr + " >= ?", []any{f.Value}, nil
	case schema.FilterTypeLEQ:
		return expr + " <= ?", []any{f.Value}, nil
	case schema.FilterTypeGT:
		return expr + " > ?", []any{f.Value}, nil
	case schema.FilterTypeLT:
		return expr + " < ?", []any{f.Value}, nil
	case schema.FilterTypeIN:
		if len(f.Values) == 0 {
			return "1 = 0", nil, nil
		}
		return expr + " IN (?)", []any{bun.In(f.Values)}, nil
	}
	return "", nil, schema.Validationf("unknown filter type %q", f.Type)
}

// keyExpr resolves a wire key to a column or JSON path expression. The
// sample value decides the cast Postgres needs, since #>> always yields
// text.
func (t *Translator) keyExpr(key string, sample any) (string, error) {
	if col, ok := t.columns[key]; ok {
		return col, nil
	}

	prefix, rest, found := strings.Cut(key, ".")
	if found {
		if col, ok := t.jsonCols[prefix]; ok {
			segments := strings.Split(rest, ".")
			for _, seg := range segments {
				if !keySegmentRe.MatchString(seg) {
					return "", schema.Validationf("invalid filter key %q", key)
				}
			}
			if t.dialect == dialect.PG {
				expr := fmt.Sprintf("%s #>> '{%s}'", col, strings.Join(segments, ","))
				switch sample.(type) {
				case float64, float32, int, int32, int64:
					return "(" + expr + ")::numeric", nil
				case bool:
					return "(" + expr + ")::boolean", nil
				}
				return expr, nil
			}
			return fmt.Sprintf("json_extract(%s, '$.%s')", col, strings.Join(segments, ".")), nil
		}
	}
	return "", schema.Validationf("unknown filter key %q", key)
}

// Visibility builds the access predicate for list queries: rows created by
// the caller, or published into any group the caller can read. An empty
// readable set still lets the caller see their own rows.
func Visibility(d dialect.Name, caller string, readable []string) (string, []any) {
	if len(readable) == 0 {
		return "created_by = ?", []any{caller}
	}
	if d == dialect.PG {
		return "(created_by = ? OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(published_in) AS pub(g) WHERE pub.g IN (?)))",
			[]any{caller, bun.In(readable)}
	}
	return "(created_by = ? OR EXISTS (SELECT 1 FROM json_each(published_in) WHERE json_each.value IN (?)))",
		[]any{caller, bun.In(readable)}
}

// VisibleIn builds the predicate for a single publication scope, used when
// listing the contents of one group.
func VisibleIn(d dialect.Name, group string) (string, []any) {
	if d == dialect.PG {
		return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(published_in) AS pub(g) WHERE pub.g = ?)", []any{group}
	}
	return "EXISTS (SELECT 1 FROM json_each(published_in) WHERE json_each.value = ?)", []any{group}
}
