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

// BunUserRepository persists users using Bun.
type BunUserRepository struct {
	db *bun.DB
}

// NewBunUserRepository constructs a repository backed by Bun.
func NewBunUserRepository(db *bun.DB) *BunUserRepository {
	return &BunUserRepository{db: db}
}

// Create inserts a new user row.
func (r *BunUserRepository) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()

	_, err := r.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return schema.Conflictf("User already exists")
		}
		return schema.StorageErr("insert user", err)
	}
	return nil
}

// GetByUsername fetches a user by name.
func (r *BunUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().Model(user).Where("username = ?", username).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schema.NotFoundf("User %s not found", username)
		}
		return nil, schema.StorageErr("query user", err)
	}
	return user, nil
}

// List returns all users ordered by name.
func (r *BunUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.NewSelect().Model(&users).Order("username ASC").Scan(ctx); err != nil {
		return nil, schema.StorageErr("list users", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// UpdateMemberships replaces the user's membership list.
func (r *BunUserRepository) UpdateMemberships(ctx context.Context, username string, memberships []schema.Membership) error {
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("memberships = ?", models.MembershipList(memberships)).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("update user memberships", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schema.NotFoundf("User %s not found", username)
	}
	return nil
}

// UpdatePassword replaces the user's password hash.
func (r *BunUserRepository) UpdatePassword(ctx context.Context, username string, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("update user password", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schema.NotFoundf("User %s not found", username)
	}
	return nil
}

// Delete removes a user row. Deleting a missing user is not an error.
func (r *BunUserRepository) Delete(ctx context.Context, username string) error {
	_, err := r.db.NewDelete().
		Model((*models.User)(nil)).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return schema.StorageErr("delete user", err)
	}
	return nil
}

// ListByGroup returns all users holding a membership in the group.
// Memberships live in a JSON column, so the match runs over the full user
// set; the user table is small compared to the resource tables.
func (r *BunUserRepository) ListByGroup(ctx context.Context, group string) ([]models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]models.User, 0)
	for _, u := range users {
		for _, m := range u.Memberships {
			if m.Group == group {
				members = append(members, u)
				break
			}
		}
	}
	return members, nil
}

// RemoveGroupMemberships strips the group from every user's membership list.
func (r *BunUserRepository) RemoveGroupMemberships(ctx context.Context, group string) error {
	users, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		kept := make([]schema.Membership, 0, len(u.Memberships))
		changed := false
		for _, m := range u.Memberships {
			if m.Group == group {
				changed = true
				continue
			}
			kept = append(kept, m)
		}
		if !changed {
			continue
		}
		if err := r.UpdateMemberships(ctx, u.Username, kept); err != nil {
			return err
		}
	}
	return nil
}
