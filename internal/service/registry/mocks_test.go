package registry

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/internal/repository"
	"github.com/tumcps/tupli/pkg/schema"
)

type MockBenchmarkRepository struct {
	mock.Mock
}

func (m *MockBenchmarkRepository) Create(ctx context.Context, benchmark *models.Benchmark) error {
	return m.Called(ctx, benchmark).Error(0)
}

func (m *MockBenchmarkRepository) GetByID(ctx context.Context, id string) (*models.Benchmark, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Benchmark), args.Error(1)
}

func (m *MockBenchmarkRepository) List(ctx context.Context, filter *schema.Filter, vis repository.Visibility) ([]models.Benchmark, error) {
	args := m.Called(ctx, filter, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Benchmark), args.Error(1)
}

func (m *MockBenchmarkRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBenchmarkRepository) SetPublishedIn(ctx context.Context, id string, groups []string) error {
	return m.Called(ctx, id, groups).Error(0)
}

func (m *MockBenchmarkRepository) CountVisibleByHash(ctx context.Context, hash string, vis repository.Visibility) (int, error) {
	args := m.Called(ctx, hash, vis)
	return args.Int(0), args.Error(1)
}

func (m *MockBenchmarkRepository) RemoveScope(ctx context.Context, group string) error {
	return m.Called(ctx, group).Error(0)
}

type MockArtifactRepository struct {
	mock.Mock
}

func (m *MockArtifactRepository) CreateWithBlob(ctx context.Context, artifact *models.Artifact, data []byte) (*models.Artifact, error) {
	args := m.Called(ctx, artifact, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artifact), args.Error(1)
}

func (m *MockArtifactRepository) GetByID(ctx context.Context, id string) (*models.Artifact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artifact), args.Error(1)
}

func (m *MockArtifactRepository) GetBlob(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArtifactRepository) List(ctx context.Context, filter *schema.Filter, vis repository.Visibility) ([]models.Artifact, error) {
	args := m.Called(ctx, filter, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Artifact), args.Error(1)
}

func (m *MockArtifactRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockArtifactRepository) SetPublishedIn(ctx context.Context, id string, groups []string) error {
	return m.Called(ctx, id, groups).Error(0)
}

func (m *MockArtifactRepository) DeletePrivateByCreator(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *MockArtifactRepository) RemoveScope(ctx context.Context, group string) error {
	return m.Called(ctx, group).Error(0)
}

type MockEpisodeRepository struct {
	mock.Mock
}

func (m *MockEpisodeRepository) Create(ctx context.Context, episode *models.Episode) error {
	return m.Called(ctx, episode).Error(0)
}

func (m *MockEpisodeRepository) GetByID(ctx context.Context, id string) (*models.Episode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Episode), args.Error(1)
}

func (m *MockEpisodeRepository) List(ctx context.Context, filter *schema.Filter, vis repository.Visibility) ([]models.Episode, error) {
	args := m.Called(ctx, filter, vis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Episode), args.Error(1)
}

func (m *MockEpisodeRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEpisodeRepository) SetPublishedIn(ctx context.Context, id string, groups []string) error {
	return m.Called(ctx, id, groups).Error(0)
}

func (m *MockEpisodeRepository) DeleteByBenchmark(ctx context.Context, benchmarkID string) error {
	return m.Called(ctx, benchmarkID).Error(0)
}

func (m *MockEpisodeRepository) DeletePrivateByCreator(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *MockEpisodeRepository) RemoveScope(ctx context.Context, group string) error {
	return m.Called(ctx, group).Error(0)
}
