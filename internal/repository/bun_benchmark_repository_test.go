package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/pkg/schema"
)

func newBenchmark(id, hash, creator string, publishedIn ...string) *models.Benchmark {
	if publishedIn == nil {
		publishedIn = []string{creator}
	}
	return &models.Benchmark{
		ID:          id,
		Hash:        hash,
		CreatedBy:   creator,
		Metadata:    models.BenchmarkMeta{Name: "bench-" + id, Difficulty: "easy"},
		Serialized:  `{"env": "cartpole"}`,
		PublishedIn: publishedIn,
	}
}

func TestBunBenchmarkRepository_CreateGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunBenchmarkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBenchmark("b1", "h1", "alice")))

	got, err := repo.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "h1", got.Hash)
	assert.Equal(t, "alice", got.CreatedBy)
	assert.Equal(t, []string{"alice"}, []string(got.PublishedIn))
	assert.Equal(t, "bench-b1", got.Metadata.Name)
	assert.NotZero(t, got.CreatedAt)

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := repo.Create(ctx, newBenchmark("b1", "h1", "alice"))
		assert.True(t, schema.IsConflict(err))
	})

	t.Run("missing id not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		assert.True(t, schema.IsNotFound(err))
	})
}

func TestBunBenchmarkRepository_ListVisibility(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunBenchmarkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBenchmark("own", "h1", "alice")))
	require.NoError(t, repo.Create(ctx, newBenchmark("shared", "h2", "bob", "bob", "global")))
	require.NoError(t, repo.Create(ctx, newBenchmark("private", "h3", "bob")))

	t.Run("caller sees own plus published", func(t *testing.T) {
		got, err := repo.List(ctx, nil, Visibility{Caller: "alice", Readable: []string{"alice", "global"}})
		require.NoError(t, err)
		ids := idsOf(got)
		assert.ElementsMatch(t, []string{"own", "shared"}, ids)
	})

	t.Run("empty readable set still shows own rows", func(t *testing.T) {
		got, err := repo.List(ctx, nil, Visibility{Caller: "alice"})
		require.NoError(t, err)
		assert.Equal(t, []string{"own"}, idsOf(got))
	})

	t.Run("superuser sees everything", func(t *testing.T) {
		got, err := repo.List(ctx, nil, Visibility{All: true})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("filter on metadata path", func(t *testing.T) {
		got, err := repo.List(ctx, schema.EQ("metadata.name", "bench-shared"), Visibility{All: true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "shared", got[0].ID)
	})

	t.Run("filter on column", func(t *testing.T) {
		got, err := repo.List(ctx, schema.And(schema.EQ("created_by", "bob"), schema.EQ("hash", "h3")), Visibility{All: true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "private", got[0].ID)
	})

	t.Run("invalid filter key rejected", func(t *testing.T) {
		_, err := repo.List(ctx, schema.EQ("serialized", "x"), Visibility{All: true})
		assert.True(t, schema.IsValidation(err))
	})
}

func TestBunBenchmarkRepository_PublicationAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunBenchmarkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newBenchmark("b1", "h1", "alice")))

	require.NoError(t, repo.SetPublishedIn(ctx, "b1", []string{"alice", "global"}))
	got, err := repo.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "global"}, []string(got.PublishedIn))

	t.Run("count visible by hash", func(t *testing.T) {
		n, err := repo.CountVisibleByHash(ctx, "h1", Visibility{Caller: "bob", Readable: []string{"bob", "global"}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = repo.CountVisibleByHash(ctx, "h1", Visibility{Caller: "bob"})
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("remove scope", func(t *testing.T) {
		require.NoError(t, repo.RemoveScope(ctx, "global"))
		got, err := repo.GetByID(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, []string(got.PublishedIn))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "b1"))
		require.NoError(t, repo.Delete(ctx, "b1"))
		_, err := repo.GetByID(ctx, "b1")
		assert.True(t, schema.IsNotFound(err))
	})

	t.Run("publication update on missing row", func(t *testing.T) {
		err := repo.SetPublishedIn(ctx, "gone", []string{"x"})
		assert.True(t, schema.IsNotFound(err))
	})
}

func idsOf(benchmarks []models.Benchmark) []string {
	ids := make([]string, len(benchmarks))
	for i, b := range benchmarks {
		ids[i] = b.ID
	}
	return ids
}
