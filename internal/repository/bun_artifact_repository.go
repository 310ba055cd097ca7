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

// BunArtifactRepository persists artifact metadata and blobs using Bun.
type BunArtifactRepository struct {
	db *bun.DB
}

// NewBunArtifactRepository constructs a repository backed by Bun.
func NewBunArtifactRepository(db *bun.DB) *BunArtifactRepository {
	return &BunArtifactRepository{db: db}
}

// CreateWithBlob stores metadata and blob in one transaction. Artifacts
// are content-addressed, so storing an existing hash returns the stored
// row unchanged.
func (r *BunArtifactRepository) CreateWithBlob(ctx context.Context, artifact *models.Artifact, data []byte) (*models.Artifact, error) {
	existing := new(models.Artifact)
	err := r.db.NewSelect().Model(existing).Where("id = ?", artifact.ID).Scan(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, schema.StorageErr("query artifact", err)
	}

	artifact.CreatedAt = time.Now()
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(artifact).Exec(ctx); err != nil {
			return err
		}
		blob := &models.ArtifactBlob{ID: artifact.ID, Data: data}
		_, err := tx.NewInsert().Model(blob).Exec(ctx)
		return err
	})
	if err != nil {
		// Lost a race against a concurrent upload of the same bytes.
		if isDuplicateKeyError(err) {
			return r.GetByID(ctx, artifact.ID)
		}
		return nil, schema.StorageErr("insert artifact", err)
	}
	return artifact, nil
}

// GetByID fetches artifact metadata by content hash.
func (r *BunArtifactRepository) GetByID(ctx context.Context, id string) (*models.Artifact, error) {
	artifact := new(models.Artifact)
	err := r.db.NewSelect().Model(artifact).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schema.NotFoundf("Artifact not found")
		}
		return nil, schema.StorageErr("query artifact", err)
	}
	return artifact, nil
}

// GetBlob fetches the raw bytes of an artifact.
func (r *BunArtifactRepository) GetBlob(ctx context.Context, id string) ([]byte, error) {
	blob := new(models.ArtifactBlob)
	err := r.db.NewSelect().Model(blob).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schema.NotFoundf("Artifact not found")
		}
		return nil, schema.StorageErr("query artifact blob", err)
	}
	return blob.Data, nil
}

// List returns artifact metadata matching the filter and visible to the
// caller, newest first. Blobs are never paged in by list queries.
func (r *BunArtifactRepository) List(ctx context.Context, filter *schema.Filter, vis Visibility) ([]models.Artifact, error) {
	var artifacts []models.Artifact
	q := r.db.NewSelect().Model(&artifacts)
	q, err := applyListPredicates(q, r.db, schema.KindArtifact, filter, vis)
	if err != nil {
		return nil, err
	}
	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, schema.StorageErr("list artifacts", err)
	}
	if artifacts == nil {
		artifacts = []models.Artifact{}
	}
	return artifacts, nil
}

// Delete removes metadata and blob. Deleting a missing artifact is not an
// error.
func (r *BunArtifactRepository) Delete(ctx context.Context, id string) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Artifact)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().Model((*models.ArtifactBlob)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
	if err != nil {
		return schema.StorageErr("delete artifact", err)
	}
	return nil
}

// SetPublishedIn replaces the publication set of an artifact.
func (r *BunArtifactRepository) SetPublishedIn(ctx context.Context, id string, groups []string) error {
	result, err := r.db.NewUpdate().
		Model((*models.Artifact)(nil)).
		Set("published_in = ?", models.StringList(groups)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("update artifact publication", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schema.NotFoundf("Artifact not found")
	}
	return nil
}

// DeletePrivateByCreator removes the user's artifacts whose publication
// never left the personal scope. Published artifacts survive, still
// attributed to the deleted username.
func (r *BunArtifactRepository) DeletePrivateByCreator(ctx context.Context, username string) error {
	var artifacts []models.Artifact
	if err := r.db.NewSelect().Model(&artifacts).Where("created_by = ?", username).Scan(ctx); err != nil {
		return schema.StorageErr("list artifacts by creator", err)
	}
	for _, a := range artifacts {
		if !PrivateScope(a.PublishedIn, username) {
			continue
		}
		if err := r.Delete(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveScope strips a deleted group from every artifact's publication set.
func (r *BunArtifactRepository) RemoveScope(ctx context.Context, group string) error {
	var artifacts []models.Artifact
	expr, args := filtersql.VisibleIn(r.db.Dialect().Name(), group)
	if err := r.db.NewSelect().Model(&artifacts).Where(expr, args...).Scan(ctx); err != nil {
		return schema.StorageErr("list artifacts by scope", err)
	}
	for _, a := range artifacts {
		if err := r.SetPublishedIn(ctx, a.ID, removeString(a.PublishedIn, group)); err != nil {
			return err
		}
	}
	return nil
}
