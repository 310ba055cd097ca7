package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/pkg/schema"
)

// BunGroupRepository persists groups using Bun.
type BunGroupRepository struct {
	db *bun.DB
}

// NewBunGroupRepository constructs a repository backed by Bun.
func NewBunGroupRepository(db *bun.DB) *BunGroupRepository {
	return &BunGroupRepository{db: db}
}

// Create inserts a new group row.
func (r *BunGroupRepository) Create(ctx context.Context, group *models.Group) error {
	group.CreatedAt = time.Now()

	_, err := r.db.NewInsert().Model(group).Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return schema.Conflictf("Group already exists")
		}
		return schema.StorageErr("insert group", err)
	}
	return nil
}

// GetByName fetches a group by name.
func (r *BunGroupRepository) GetByName(ctx context.Context, name string) (*models.Group, error) {
	group := new(models.Group)
	err := r.db.NewSelect().Model(group).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schema.NotFoundf("Group not found")
		}
		return nil, schema.StorageErr("query group", err)
	}
	return group, nil
}

// List returns all groups ordered by name.
func (r *BunGroupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.NewSelect().Model(&groups).Order("name ASC").Scan(ctx); err != nil {
		return nil, schema.StorageErr("list groups", err)
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

// Delete removes a group row. Deleting a missing group is not an error.
func (r *BunGroupRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.NewDelete().
		Model((*models.Group)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("delete group", err)
	}
	return nil
}
