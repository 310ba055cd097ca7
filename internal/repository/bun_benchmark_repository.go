package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/internal/filtersql"
	"github.com/tumcps/tupli/pkg/schema"
)

// BunBenchmarkRepository persists benchmarks using Bun.
type BunBenchmarkRepository struct {
	db *bun.DB
}

// NewBunBenchmarkRepository constructs a repository backed by Bun.
func NewBunBenchmarkRepository(db *bun.DB) *BunBenchmarkRepository {
	return &BunBenchmarkRepository{db: db}
}

// Create inserts a new benchmark row.
func (r *BunBenchmarkRepository) Create(ctx context.Context, benchmark *models.Benchmark) error {
	benchmark.CreatedAt = time.Now()

	_, err := r.db.NewInsert().Model(benchmark).Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return schema.Conflictf("Benchmark already exists")
		}
		return schema.StorageErr("insert benchmark", err)
	}
	return nil
}

// GetByID fetches a benchmark by its fingerprint id.
func (r *BunBenchmarkRepository) GetByID(ctx context.Context, id string) (*models.Benchmark, error) {
	benchmark := new(models.Benchmark)
	err := r.db.NewSelect().Model(benchmark).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schema.NotFoundf("Benchmark not found")
		}
		return nil, schema.StorageErr("query benchmark", err)
	}
	return benchmark, nil
}

// List returns benchmarks matching the filter and visible to the caller,
// newest first.
func (r *BunBenchmarkRepository) List(ctx context.Context, filter *schema.Filter, vis Visibility) ([]models.Benchmark, error) {
	var benchmarks []models.Benchmark
	q := r.db.NewSelect().Model(&benchmarks)
	q, err := applyListPredicates(q, r.db, schema.KindBenchmark, filter, vis)
	if err != nil {
		return nil, err
	}
	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, schema.StorageErr("list benchmarks", err)
	}
	if benchmarks == nil {
		benchmarks = []models.Benchmark{}
	}
	return benchmarks, nil
}

// Delete removes a benchmark row. Deleting a missing row is not an error.
func (r *BunBenchmarkRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*models.Benchmark)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("delete benchmark", err)
	}
	return nil
}

// SetPublishedIn replaces the publication set of a benchmark.
func (r *BunBenchmarkRepository) SetPublishedIn(ctx context.Context, id string, groups []string) error {
	result, err := r.db.NewUpdate().
		Model((*models.Benchmark)(nil)).
		Set("published_in = ?", models.StringList(groups)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("update benchmark publication", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schema.NotFoundf("Benchmark not found")
	}
	return nil
}

// CountVisibleByHash counts benchmarks with the given content hash that
// the caller can already see.
func (r *BunBenchmarkRepository) CountVisibleByHash(ctx context.Context, hash string, vis Visibility) (int, error) {
	q := r.db.NewSelect().
		Model((*models.Benchmark)(nil)).
		Where("hash = ?", hash)
	if !vis.All {
		visExpr, visArgs := filtersql.Visibility(r.db.Dialect().Name(), vis.Caller, vis.Readable)
		q = q.Where(visExpr, visArgs...)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, schema.StorageErr("count benchmarks by hash", err)
	}
	return count, nil
}

// RemoveScope strips a deleted group from every benchmark's publication set.
func (r *BunBenchmarkRepository) RemoveScope(ctx context.Context, group string) error {
	var benchmarks []models.Benchmark
	expr, args := filtersql.VisibleIn(r.db.Dialect().Name(), group)
	if err := r.db.NewSelect().Model(&benchmarks).Where(expr, args...).Scan(ctx); err != nil {
		return schema.StorageErr("list benchmarks by scope", err)
	}
	for _, b := range benchmarks {
		if err := r.SetPublishedIn(ctx, b.ID, removeString(b.PublishedIn, group)); err != nil {
			return err
		}
	}
	return nil
}

func removeString(list []string, drop string) []string {
	kept := make([]string, 0, len(list))
	for _, s := range list {
		if s != drop {
			kept = append(kept, s)
		}
	}
	return kept
}
