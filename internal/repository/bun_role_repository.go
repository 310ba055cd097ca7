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

// BunRoleRepository persists roles using Bun.
type BunRoleRepository struct {
	db *bun.DB
}

// NewBunRoleRepository constructs a repository backed by Bun.
func NewBunRoleRepository(db *bun.DB) *BunRoleRepository {
	return &BunRoleRepository{db: db}
}

// Create inserts a new role row.
func (r *BunRoleRepository) Create(ctx context.Context, role *models.Role) error {
	role.CreatedAt = time.Now()

	_, err := r.db.NewInsert().Model(role).Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return schema.Conflictf("Role already exists")
		}
		return schema.StorageErr("insert role", err)
	}
	return nil
}

// GetByName fetches a role by name.
func (r *BunRoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	role := new(models.Role)
	err := r.db.NewSelect().Model(role).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schema.NotFoundf("Role %s not found", name)
		}
		return nil, schema.StorageErr("query role", err)
	}
	return role, nil
}

// List returns all roles ordered by name.
func (r *BunRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.NewSelect().Model(&roles).Order("name ASC").Scan(ctx); err != nil {
		return nil, schema.StorageErr("list roles", err)
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return roles, nil
}

// Delete removes a role row. Deleting a missing role is not an error.
func (r *BunRoleRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.NewDelete().
		Model((*models.Role)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("delete role", err)
	}
	return nil
}
