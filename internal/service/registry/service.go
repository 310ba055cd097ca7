// Package registry implements the resource store: benchmarks, artifacts,
// and episodes, with per-operation rights checks and publication scopes.
package registry

import (
	"context"

	"github.com/tumcps/tupli/internal/repository"
	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/pkg/schema"
)

// Service is the resource surface consumed by the HTTP layer.
type Service interface {
	// Benchmarks
	CreateBenchmark(ctx context.Context, caller *iam.Caller, query schema.BenchmarkQuery) (schema.BenchmarkHeader, error)
	LoadBenchmark(ctx context.Context, caller *iam.Caller, id string) (schema.Benchmark, error)
	ListBenchmarks(ctx context.Context, caller *iam.Caller, filter *schema.Filter) ([]schema.BenchmarkHeader, error)
	PublishBenchmark(ctx context.Context, caller *iam.Caller, id, group string) error
	UnpublishBenchmark(ctx context.Context, caller *iam.Caller, id, group string) error
	DeleteBenchmark(ctx context.Context, caller *iam.Caller, id string) error

	// Artifacts
	StoreArtifact(ctx context.Context, caller *iam.Caller, data []byte, metadata schema.ArtifactMetadata) (schema.ArtifactMetadataItem, error)
	LoadArtifact(ctx context.Context, caller *iam.Caller, id string) (schema.ArtifactMetadataItem, []byte, error)
	ListArtifacts(ctx context.Context, caller *iam.Caller, filter *schema.Filter) ([]schema.ArtifactMetadataItem, error)
	PublishArtifact(ctx context.Context, caller *iam.Caller, id, group string) error
	UnpublishArtifact(ctx context.Context, caller *iam.Caller, id, group string) error
	DeleteArtifact(ctx context.Context, caller *iam.Caller, id string) error

	// Episodes
	RecordEpisode(ctx context.Context, caller *iam.Caller, episode schema.Episode) (schema.EpisodeHeader, error)
	ListEpisodes(ctx context.Context, caller *iam.Caller, query schema.EpisodesListQuery) ([]schema.EpisodeItem, error)
	PublishEpisode(ctx context.Context, caller *iam.Caller, id, group string) error
	UnpublishEpisode(ctx context.Context, caller *iam.Caller, id, group string) error
	DeleteEpisode(ctx context.Context, caller *iam.Caller, id string) error
}

// Dependencies contains the repositories the registry service runs on.
type Dependencies struct {
	Benchmarks repository.BenchmarkRepository
	Artifacts  repository.ArtifactRepository
	Episodes   repository.EpisodeRepository
}

const schemaCacheSize = 64

type registryService struct {
	benchmarks repository.BenchmarkRepository
	artifacts  repository.ArtifactRepository
	episodes   repository.EpisodeRepository
	validator  *metadataValidator
}

// NewService creates the registry service.
func NewService(deps Dependencies) (Service, error) {
	validator, err := newMetadataValidator(schemaCacheSize)
	if err != nil {
		return nil, err
	}
	return &registryService{
		benchmarks: deps.Benchmarks,
		artifacts:  deps.Artifacts,
		episodes:   deps.Episodes,
		validator:  validator,
	}, nil
}

// visibilityFor builds the list-query scope for a caller and a read right.
func visibilityFor(caller *iam.Caller, r schema.Right) repository.Visibility {
	if caller.IsSuperuser() {
		return repository.Visibility{All: true}
	}
	return repository.Visibility{
		Caller:   caller.User.Username,
		Readable: caller.ReadableScopes(r),
	}
}
