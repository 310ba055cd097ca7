package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260110000000, down_20260110000000)
}

// up_20260110000000 initializes the full database schema
func up_20260110000000(ctx context.Context, db *bun.DB) error {
	// 1. Identity tables
	fmt.Print(" [up] creating users table...")
	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating roles table...")
	_, err = db.NewCreateTable().
		Model((*models.Role)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create roles table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating groups table...")
	_, err = db.NewCreateTable().
		Model((*models.Group)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create groups table: %w", err)
	}
	fmt.Println(" OK")

	// 2. Resource tables
	fmt.Print(" [up] creating benchmarks table...")
	_, err = db.NewCreateTable().
		Model((*models.Benchmark)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create benchmarks table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_benchmarks_hash ON benchmarks(hash)`)
	if err != nil {
		return fmt.Errorf("failed to create index on benchmarks(hash): %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_benchmarks_created_by ON benchmarks(created_by)`)
	if err != nil {
		return fmt.Errorf("failed to create index on benchmarks(created_by): %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating artifacts tables...")
	_, err = db.NewCreateTable().
		Model((*models.Artifact)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create artifacts table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_artifacts_created_by ON artifacts(created_by)`)
	if err != nil {
		return fmt.Errorf("failed to create index on artifacts(created_by): %w", err)
	}
	_, err = db.NewCreateTable().
		Model((*models.ArtifactBlob)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create artifact_blobs table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating episodes table...")
	q := db.NewCreateTable().
		Model((*models.Episode)(nil)).
		IfNotExists()
	// For SQLite, define FKs during table creation
	if IsSQLite(db) {
		q = q.ForeignKey(`(benchmark_id) REFERENCES benchmarks(id) ON DELETE CASCADE`)
	}
	_, err = q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create episodes table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_episodes_benchmark_id ON episodes(benchmark_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on episodes(benchmark_id): %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_episodes_created_by ON episodes(created_by)`)
	if err != nil {
		return fmt.Errorf("failed to create index on episodes(created_by): %w", err)
	}
	fmt.Println(" OK")

	// 3. JSONB indexes on the publication sets (PostgreSQL only)
	if IsPostgres(db) {
		fmt.Print(" [up] creating GIN indexes on published_in...")
		for _, table := range []string{"benchmarks", "artifacts", "episodes"} {
			_, err = db.Exec(fmt.Sprintf(
				`CREATE INDEX IF NOT EXISTS idx_%s_published_in_gin ON %s USING gin (published_in jsonb_path_ops)`,
				table, table))
			if err != nil {
				return fmt.Errorf("failed to create GIN index on %s.published_in: %w", table, err)
			}
		}
		fmt.Println(" OK")
	}

	return nil
}

// down_20260110000000 drops all tables
func down_20260110000000(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{
		(*models.Episode)(nil),
		(*models.ArtifactBlob)(nil),
		(*models.Artifact)(nil),
		(*models.Benchmark)(nil),
		(*models.Group)(nil),
		(*models.Role)(nil),
		(*models.User)(nil),
	} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}
