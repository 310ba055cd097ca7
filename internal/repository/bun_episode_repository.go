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

// BunEpisodeRepository persists episodes using Bun.
type BunEpisodeRepository struct {
	db *bun.DB
}

// NewBunEpisodeRepository constructs a repository backed by Bun.
func NewBunEpisodeRepository(db *bun.DB) *BunEpisodeRepository {
	return &BunEpisodeRepository{db: db}
}

// Create inserts a new episode row.
func (r *BunEpisodeRepository) Create(ctx context.Context, episode *models.Episode) error {
	episode.CreatedAt = time.Now()

	_, err := r.db.NewInsert().Model(episode).Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return schema.Conflictf("Episode already exists")
		}
		return schema.StorageErr("insert episode", err)
	}
	return nil
}

// GetByID fetches an episode by id.
func (r *BunEpisodeRepository) GetByID(ctx context.Context, id string) (*models.Episode, error) {
	episode := new(models.Episode)
	err := r.db.NewSelect().Model(episode).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schema.NotFoundf("Episode not found")
		}
		return nil, schema.StorageErr("query episode", err)
	}
	return episode, nil
}

// List returns episodes matching the filter and visible to the caller,
// newest first.
func (r *BunEpisodeRepository) List(ctx context.Context, filter *schema.Filter, vis Visibility) ([]models.Episode, error) {
	var episodes []models.Episode
	q := r.db.NewSelect().Model(&episodes)
	q, err := applyListPredicates(q, r.db, schema.KindEpisode, filter, vis)
	if err != nil {
		return nil, err
	}
	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, schema.StorageErr("list episodes", err)
	}
	if episodes == nil {
		episodes = []models.Episode{}
	}
	return episodes, nil
}

// Delete removes an episode row. Deleting a missing row is not an error.
func (r *BunEpisodeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*models.Episode)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("delete episode", err)
	}
	return nil
}

// SetPublishedIn replaces the publication set of an episode.
func (r *BunEpisodeRepository) SetPublishedIn(ctx context.Context, id string, groups []string) error {
	result, err := r.db.NewUpdate().
		Model((*models.Episode)(nil)).
		Set("published_in = ?", models.StringList(groups)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("update episode publication", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schema.NotFoundf("Episode not found")
	}
	return nil
}

// DeleteByBenchmark removes all episodes recorded against a benchmark.
func (r *BunEpisodeRepository) DeleteByBenchmark(ctx context.Context, benchmarkID string) error {
	_, err := r.db.NewDelete().
		Model((*models.Episode)(nil)).
		Where("benchmark_id = ?", benchmarkID).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("delete episodes by benchmark", err)
	}
	return nil
}

// DeletePrivateByCreator removes the user's episodes whose publication
// never left the personal scope. Published episodes survive, still
// attributed to the deleted username.
func (r *BunEpisodeRepository) DeletePrivateByCreator(ctx context.Context, username string) error {
	var episodes []models.Episode
	if err := r.db.NewSelect().Model(&episodes).Where("created_by = ?", username).Scan(ctx); err != nil {
		return schema.StorageErr("list episodes by creator", err)
	}
	for _, e := range episodes {
		if !PrivateScope(e.PublishedIn, username) {
			continue
		}
		if err := r.Delete(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveScope strips a deleted group from every episode's publication set.
func (r *BunEpisodeRepository) RemoveScope(ctx context.Context, group string) error {
	var episodes []models.Episode
	expr, args := filtersql.VisibleIn(r.db.Dialect().Name(), group)
	if err := r.db.NewSelect().Model(&episodes).Where(expr, args...).Scan(ctx); err != nil {
		return schema.StorageErr("list episodes by scope", err)
	}
	for _, e := range episodes {
		if err := r.SetPublishedIn(ctx, e.ID, removeString(e.PublishedIn, group)); err != nil {
			return err
		}
	}
	return nil
}
