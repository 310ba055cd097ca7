package migrations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/pkg/schema"
)

func init() {
	Migrations.MustRegister(up_20260110000001, down_20260110000001)
}

func rightNames(rights ...schema.Right) models.StringList {
	names := make(models.StringList, len(rights))
	for i, r := range rights {
		names[i] = string(r)
	}
	return names
}

// up_20260110000001 seeds the builtin roles and the global group
func up_20260110000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding builtin roles...")

	builtinRoles := []models.Role{
		{
			ID:          uuid.NewString(),
			Name:        schema.RoleAdmin,
			Description: "Full administrative access",
			Rights:      rightNames(schema.AllRights.Rights()...),
		},
		{
			ID:          uuid.NewString(),
			Name:        schema.RoleContentAdmin,
			Description: "Read, create and delete resources",
			Rights: rightNames(
				schema.ArtifactRead, schema.ArtifactCreate, schema.ArtifactDelete,
				schema.BenchmarkRead, schema.BenchmarkCreate, schema.BenchmarkDelete,
				schema.EpisodeRead, schema.EpisodeCreate, schema.EpisodeDelete,
			),
		},
		{
			ID:          uuid.NewString(),
			Name:        schema.RoleContributor,
			Description: "Read and create resources",
			Rights: rightNames(
				schema.ArtifactRead, schema.ArtifactCreate,
				schema.BenchmarkRead, schema.BenchmarkCreate,
				schema.EpisodeRead, schema.EpisodeCreate,
			),
		},
		{
			ID:          uuid.NewString(),
			Name:        schema.RoleGuest,
			Description: "Read-only resource access",
			Rights:      rightNames(schema.ArtifactRead, schema.BenchmarkRead, schema.EpisodeRead),
		},
	}

	for _, role := range builtinRoles {
		_, err := db.NewInsert().
			Model(&role).
			On("CONFLICT (name) DO NOTHING"). // Idempotent
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	fmt.Println(" OK")

	fmt.Print(" [up] seeding global group...")
	global := models.Group{
		ID:        uuid.NewString(),
		Name:      schema.GroupGlobal,
		CreatedBy: "system",
	}
	_, err := db.NewInsert().
		Model(&global).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed global group: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260110000001 removes the seeded rows
func down_20260110000001(ctx context.Context, db *bun.DB) error {
	builtin := []string{schema.RoleAdmin, schema.RoleContentAdmin, schema.RoleContributor, schema.RoleGuest}
	if _, err := db.NewDelete().
		Model((*models.Role)(nil)).
		Where("name IN (?)", bun.In(builtin)).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete builtin roles: %w", err)
	}
	if _, err := db.NewDelete().
		Model((*models.Group)(nil)).
		Where("name = ?", schema.GroupGlobal).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete global group: %w", err)
	}
	return nil
}
