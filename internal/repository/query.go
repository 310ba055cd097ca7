package repository

import (
	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/internal/filtersql"
	"github.com/tumcps/tupli/pkg/schema"
)

// applyListPredicates appends the compiled filter and the visibility
// predicate to a resource list query.
func applyListPredicates(q *bun.SelectQuery, db *bun.DB, kind string, f *schema.Filter, vis Visibility) (*bun.SelectQuery, error) {
	d := db.Dialect().Name()

	tr, err := filtersql.ForKind(d, kind)
	if err != nil {
		return nil, schema.StorageErr("build filter translator", err)
	}
	expr, args, err := tr.Compile(f)
	if err != nil {
		return nil, err
	}
	q = q.Where(expr, args...)

	if !vis.All {
		visExpr, visArgs := filtersql.Visibility(d, vis.Caller, vis.Readable)
		q = q.Where(visExpr, visArgs...)
	}
	return q, nil
}
