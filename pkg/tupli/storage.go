// Package tupli is the client library for the benchmark registry. It
// offers two interchangeable backends: an HTTP client against a running
// server, and a filesystem store for offline work.
package tupli

import (
	"context"

	"github.com/tumcps/tupli/pkg/schema"
)

// Storage is the backend-agnostic operation surface. Client (HTTP) and
// FileStorage both implement it.
type Storage interface {
	// Benchmarks
	CreateBenchmark(ctx context.Context, query schema.BenchmarkQuery) (schema.BenchmarkHeader, error)
	LoadBenchmark(ctx context.Context, id string) (schema.Benchmark, error)
	ListBenchmarks(ctx context.Context, filter *schema.Filter) ([]schema.BenchmarkHeader, error)
	PublishBenchmark(ctx context.Context, id, group string) error
	UnpublishBenchmark(ctx context.Context, id, group string) error
	DeleteBenchmark(ctx context.Context, id string) error

	// Artifacts
	StoreArtifact(ctx context.Context, data []byte, metadata schema.ArtifactMetadata) (schema.ArtifactMetadataItem, error)
	LoadArtifact(ctx context.Context, id string) (schema.ArtifactMetadataItem, []byte, error)
	ListArtifacts(ctx context.Context, filter *schema.Filter) ([]schema.ArtifactMetadataItem, error)
	PublishArtifact(ctx context.Context, id, group string) error
	UnpublishArtifact(ctx context.Context, id, group string) error
	DeleteArtifact(ctx context.Context, id string) error

	// Episodes
	RecordEpisode(ctx context.Context, episode schema.Episode) (schema.EpisodeHeader, error)
	ListEpisodes(ctx context.Context, query schema.EpisodesListQuery) ([]schema.EpisodeItem, error)
	PublishEpisode(ctx context.Context, id, group string) error
	UnpublishEpisode(ctx context.Context, id, group string) error
	DeleteEpisode(ctx context.Context, id string) error
}

// DeleteBenchmarkArtifacts deletes a benchmark and, before that, every
// artifact its serialized form references. The cascade is a client-side
// convenience: the server treats artifacts as independent resources.
func DeleteBenchmarkArtifacts(ctx context.Context, s Storage, id string) error {
	benchmark, err := s.LoadBenchmark(ctx, id)
	if err != nil {
		if schema.IsNotFound(err) {
			return nil
		}
		return err
	}
	for _, artifactID := range extractArtifactIDs(benchmark.Serialized) {
		if err := s.DeleteArtifact(ctx, artifactID); err != nil {
			return err
		}
	}
	return s.DeleteBenchmark(ctx, id)
}
