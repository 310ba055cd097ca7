package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/pkg/schema"
)

// RecordEpisode stores a trajectory against a benchmark the caller can
// read. When the benchmark declares an episode schema, the metadata must
// satisfy it.
func (s *registryService) RecordEpisode(ctx context.Context, caller *iam.Caller, episode schema.Episode) (schema.EpisodeHeader, error) {
	if !caller.IsSuperuser() && !caller.HasInPersonal(schema.EpisodeCreate) {
		return schema.EpisodeHeader{}, schema.Forbiddenf("Insufficient rights to record episodes")
	}
	if len(episode.Tuples) == 0 {
		return schema.EpisodeHeader{}, schema.Validationf("episode must contain at least one tuple")
	}

	benchmark, err := s.benchmarks.GetByID(ctx, episode.BenchmarkID)
	if err != nil {
		return schema.EpisodeHeader{}, err
	}
	if !caller.CanOnResource(benchmark.CreatedBy, benchmark.PublishedIn, schema.BenchmarkRead) {
		return schema.EpisodeHeader{}, schema.Forbiddenf("Insufficient rights to access this benchmark")
	}
	if len(benchmark.Metadata.EpisodeSchema) > 0 {
		if err := s.validator.Validate(string(benchmark.Metadata.EpisodeSchema), episode.Metadata); err != nil {
			return schema.EpisodeHeader{}, err
		}
	}

	last := episode.Tuples[len(episode.Tuples)-1]
	username := caller.User.Username
	row := &models.Episode{
		ID:          uuid.NewString(),
		BenchmarkID: episode.BenchmarkID,
		CreatedBy:   username,
		Metadata:    episode.Metadata,
		Tuples:      episode.Tuples,
		NTuples:     len(episode.Tuples),
		Terminated:  last.Terminal,
		Timeout:     last.Timeout,
		PublishedIn: []string{username},
	}
	if err := s.episodes.Create(ctx, row); err != nil {
		return schema.EpisodeHeader{}, err
	}
	return row.Header(), nil
}

// ListEpisodes returns episodes matching the filter within the caller's
// visibility. Tuples are stripped unless asked for.
func (s *registryService) ListEpisodes(ctx context.Context, caller *iam.Caller, query schema.EpisodesListQuery) ([]schema.EpisodeItem, error) {
	rows, err := s.episodes.List(ctx, &query.Filter, visibilityFor(caller, schema.EpisodeRead))
	if err != nil {
		return nil, err
	}
	items := make([]schema.EpisodeItem, len(rows))
	for i := range rows {
		if query.IncludeTuples {
			items[i] = rows[i].ToSchema()
		} else {
			items[i] = schema.EpisodeItem{EpisodeHeader: rows[i].Header()}
		}
	}
	return items, nil
}

// PublishEpisode adds a publication scope. An episode can only follow its
// parent benchmark: the target group must already carry the benchmark.
func (s *registryService) PublishEpisode(ctx context.Context, caller *iam.Caller, id, group string) error {
	row, err := s.episodes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.EpisodeRead) {
		return schema.Forbiddenf("Insufficient rights to access this episode")
	}
	if !caller.IsSuperuser() && !caller.HasInScope(group, schema.EpisodeCreate) {
		return schema.Forbiddenf("Insufficient rights to publish into group %s", group)
	}

	benchmark, err := s.benchmarks.GetByID(ctx, row.BenchmarkID)
	if err != nil {
		return err
	}
	// Holds for every caller, superusers included.
	if group != row.CreatedBy && !containsString(benchmark.PublishedIn, group) {
		return schema.Validationf("benchmark is not published in group %s", group)
	}

	if containsString(row.PublishedIn, group) {
		return nil
	}
	return s.episodes.SetPublishedIn(ctx, id, append(row.PublishedIn, group))
}

// UnpublishEpisode removes a publication scope.
func (s *registryService) UnpublishEpisode(ctx context.Context, caller *iam.Caller, id, group string) error {
	row, err := s.episodes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.EpisodeRead) {
		return schema.Forbiddenf("Insufficient rights to access this episode")
	}
	if !caller.IsSuperuser() && !caller.HasInScope(group, schema.EpisodeDelete) {
		return schema.Forbiddenf("Insufficient rights to unpublish from group %s", group)
	}
	if !containsString(row.PublishedIn, group) {
		return nil
	}
	return s.episodes.SetPublishedIn(ctx, id, removeString(row.PublishedIn, group))
}

// DeleteEpisode removes an episode. The creator may always delete their
// own episode. Idempotent.
func (s *registryService) DeleteEpisode(ctx context.Context, caller *iam.Caller, id string) error {
	row, err := s.episodes.GetByID(ctx, id)
	if err != nil {
		if schema.IsNotFound(err) {
			return nil
		}
		return err
	}
	if row.CreatedBy != caller.User.Username &&
		!caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.EpisodeDelete) {
		return schema.Forbiddenf("Insufficient rights to delete this episode")
	}
	return s.episodes.Delete(ctx, id)
}
