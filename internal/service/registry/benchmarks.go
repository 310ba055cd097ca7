package registry

import (
	"context"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/internal/repository"
	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/pkg/schema"
)

func visibilityAll() repository.Visibility {
	return repository.Visibility{All: true}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func removeString(list []string, drop string) []string {
	kept := make([]string, 0, len(list))
	for _, s := range list {
		if s != drop {
			kept = append(kept, s)
		}
	}
	return kept
}

// CreateBenchmark stores a serialized environment. The content hash is
// caller-supplied; a hash the caller can already see is a conflict.
func (s *registryService) CreateBenchmark(ctx context.Context, caller *iam.Caller, query schema.BenchmarkQuery) (schema.BenchmarkHeader, error) {
	if !caller.IsSuperuser() && !caller.HasInPersonal(schema.BenchmarkCreate) {
		return schema.BenchmarkHeader{}, schema.Forbiddenf("Insufficient rights to create benchmarks")
	}
	if query.Hash == "" {
		return schema.BenchmarkHeader{}, schema.Validationf("hash is required")
	}
	if query.Metadata.Name == "" {
		return schema.BenchmarkHeader{}, schema.Validationf("metadata.name is required")
	}
	if len(query.Metadata.EpisodeSchema) > 0 {
		if err := s.validator.CheckSchema(string(query.Metadata.EpisodeSchema)); err != nil {
			return schema.BenchmarkHeader{}, err
		}
	}

	vis := visibilityFor(caller, schema.BenchmarkRead)
	count, err := s.benchmarks.CountVisibleByHash(ctx, query.Hash, vis)
	if err != nil {
		return schema.BenchmarkHeader{}, err
	}
	if count > 0 {
		return schema.BenchmarkHeader{}, schema.Conflictf("Benchmark already exists")
	}

	username := caller.User.Username
	row := &models.Benchmark{
		ID:          benchmarkID(query.Hash, username),
		Hash:        query.Hash,
		CreatedBy:   username,
		Metadata:    models.BenchmarkMeta(query.Metadata),
		Serialized:  query.Serialized,
		PublishedIn: []string{username},
	}
	if err := s.benchmarks.Create(ctx, row); err != nil {
		return schema.BenchmarkHeader{}, err
	}
	return row.Header(), nil
}

// LoadBenchmark returns the full benchmark. An existing benchmark the
// caller has no read right on is forbidden, not missing.
func (s *registryService) LoadBenchmark(ctx context.Context, caller *iam.Caller, id string) (schema.Benchmark, error) {
	row, err := s.benchmarks.GetByID(ctx, id)
	if err != nil {
		return schema.Benchmark{}, err
	}
	if !caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.BenchmarkRead) {
		return schema.Benchmark{}, schema.Forbiddenf("Insufficient rights to access this benchmark")
	}
	return row.ToSchema(), nil
}

// ListBenchmarks returns headers matching the filter within the caller's
// visibility.
func (s *registryService) ListBenchmarks(ctx context.Context, caller *iam.Caller, filter *schema.Filter) ([]schema.BenchmarkHeader, error) {
	rows, err := s.benchmarks.List(ctx, filter, visibilityFor(caller, schema.BenchmarkRead))
	if err != nil {
		return nil, err
	}
	headers := make([]schema.BenchmarkHeader, len(rows))
	for i := range rows {
		headers[i] = rows[i].Header()
	}
	return headers, nil
}

// PublishBenchmark adds a publication scope. Publishing requires the
// benchmark create right inside the target group.
func (s *registryService) PublishBenchmark(ctx context.Context, caller *iam.Caller, id, group string) error {
	row, err := s.benchmarks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.BenchmarkRead) {
		return schema.Forbiddenf("Insufficient rights to access this benchmark")
	}
	if !caller.IsSuperuser() && !caller.HasInScope(group, schema.BenchmarkCreate) {
		return schema.Forbiddenf("Insufficient rights to publish into group %s", group)
	}
	if containsString(row.PublishedIn, group) {
		return nil
	}
	return s.benchmarks.SetPublishedIn(ctx, id, append(row.PublishedIn, group))
}

// UnpublishBenchmark removes a publication scope, dragging the scope out
// of the benchmark's episodes as well so episode publication never
// outlives the parent's.
func (s *registryService) UnpublishBenchmark(ctx context.Context, caller *iam.Caller, id, group string) error {
	row, err := s.benchmarks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.BenchmarkRead) {
		return schema.Forbiddenf("Insufficient rights to access this benchmark")
	}
	if !caller.IsSuperuser() && !caller.HasInScope(group, schema.BenchmarkDelete) {
		return schema.Forbiddenf("Insufficient rights to unpublish from group %s", group)
	}
	if !containsString(row.PublishedIn, group) {
		return nil
	}

	episodes, err := s.episodes.List(ctx, schema.EQ("benchmark_id", id), visibilityAll())
	if err != nil {
		return err
	}
	for _, e := range episodes {
		if !containsString(e.PublishedIn, group) {
			continue
		}
		if err := s.episodes.SetPublishedIn(ctx, e.ID, removeString(e.PublishedIn, group)); err != nil {
			return err
		}
	}
	return s.benchmarks.SetPublishedIn(ctx, id, removeString(row.PublishedIn, group))
}

// DeleteBenchmark removes a benchmark and its episodes. The creator may
// always delete their own benchmark, published or not. Idempotent.
func (s *registryService) DeleteBenchmark(ctx context.Context, caller *iam.Caller, id string) error {
	row, err := s.benchmarks.GetByID(ctx, id)
	if err != nil {
		if schema.IsNotFound(err) {
			return nil
		}
		return err
	}
	if row.CreatedBy != caller.User.Username &&
		!caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.BenchmarkDelete) {
		return schema.Forbiddenf("Insufficient rights to delete this benchmark")
	}
	if err := s.episodes.DeleteByBenchmark(ctx, id); err != nil {
		return err
	}
	return s.benchmarks.Delete(ctx, id)
}
