package server

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/pkg/schema"
)

type MockIAMService struct {
	mock.Mock
}

func (m *MockIAMService) Login(ctx context.Context, username, password string) (schema.TokenPair, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(schema.TokenPair), args.Error(1)
}

func (m *MockIAMService) Refresh(ctx context.Context, refreshToken string) (schema.Token, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(schema.Token), args.Error(1)
}

func (m *MockIAMService) Authenticate(ctx context.Context, accessToken string) (*iam.Caller, error) {
	args := m.Called(ctx, accessToken)
	if caller := args.Get(0); caller != nil {
		return caller.(*iam.Caller), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIAMService) Signup(ctx context.Context, creds schema.UserCredentials) (schema.User, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(schema.User), args.Error(1)
}

func (m *MockIAMService) CreateUser(ctx context.Context, caller *iam.Caller, creds schema.UserCredentials) (schema.User, error) {
	args := m.Called(ctx, caller, creds)
	return args.Get(0).(schema.User), args.Error(1)
}

func (m *MockIAMService) ListUsers(ctx context.Context, caller *iam.Caller) ([]schema.User, error) {
	args := m.Called(ctx, caller)
	if users := args.Get(0); users != nil {
		return users.([]schema.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIAMService) ReadUser(ctx context.Context, caller *iam.Caller, username string) (schema.User, error) {
	args := m.Called(ctx, caller, username)
	return args.Get(0).(schema.User), args.Error(1)
}

func (m *MockIAMService) ChangePassword(ctx context.Context, caller *iam.Caller, creds schema.UserCredentials) (schema.User, error) {
	args := m.Called(ctx, caller, creds)
	return args.Get(0).(schema.User), args.Error(1)
}

func (m *MockIAMService) DeleteUser(ctx context.Context, caller *iam.Caller, username string) error {
	args := m.Called(ctx, caller, username)
	return args.Error(0)
}

func (m *MockIAMService) CreateRole(ctx context.Context, caller *iam.Caller, role schema.Role) (schema.Role, error) {
	args := m.Called(ctx, caller, role)
	return args.Get(0).(schema.Role), args.Error(1)
}

func (m *MockIAMService) ListRoles(ctx context.Context, caller *iam.Caller) ([]schema.Role, error) {
	args := m.Called(ctx, caller)
	if roles := args.Get(0); roles != nil {
		return roles.([]schema.Role), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIAMService) DeleteRole(ctx context.Context, caller *iam.Caller, name string) error {
	args := m.Called(ctx, caller, name)
	return args.Error(0)
}

func (m *MockIAMService) CreateGroup(ctx context.Context, caller *iam.Caller, group schema.Group) (schema.Group, error) {
	args := m.Called(ctx, caller, group)
	return args.Get(0).(schema.Group), args.Error(1)
}

func (m *MockIAMService) ListGroups(ctx context.Context, caller *iam.Caller) ([]schema.Group, error) {
	args := m.Called(ctx, caller)
	if groups := args.Get(0); groups != nil {
		return groups.([]schema.Group), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIAMService) ReadGroup(ctx context.Context, caller *iam.Caller, name string) (schema.GroupWithMembers, error) {
	args := m.Called(ctx, caller, name)
	return args.Get(0).(schema.GroupWithMembers), args.Error(1)
}

func (m *MockIAMService) DeleteGroup(ctx context.Context, caller *iam.Caller, name string) error {
	args := m.Called(ctx, caller, name)
	return args.Error(0)
}

func (m *MockIAMService) AddMembers(ctx context.Context, caller *iam.Caller, query schema.GroupMembershipQuery) (schema.Group, error) {
	args := m.Called(ctx, caller, query)
	return args.Get(0).(schema.Group), args.Error(1)
}

func (m *MockIAMService) RemoveMembers(ctx context.Context, caller *iam.Caller, query schema.GroupMembershipQuery) (schema.Group, error) {
	args := m.Called(ctx, caller, query)
	return args.Get(0).(schema.Group), args.Error(1)
}

func (m *MockIAMService) EnsureAdmin(ctx context.Context, username, password string) error {
	args := m.Called(ctx, username, password)
	return args.Error(0)
}

type MockRegistryService struct {
	mock.Mock
}

func (m *MockRegistryService) CreateBenchmark(ctx context.Context, caller *iam.Caller, query schema.BenchmarkQuery) (schema.BenchmarkHeader, error) {
	args := m.Called(ctx, caller, query)
	return args.Get(0).(schema.BenchmarkHeader), args.Error(1)
}

func (m *MockRegistryService) LoadBenchmark(ctx context.Context, caller *iam.Caller, id string) (schema.Benchmark, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(schema.Benchmark), args.Error(1)
}

func (m *MockRegistryService) ListBenchmarks(ctx context.Context, caller *iam.Caller, filter *schema.Filter) ([]schema.BenchmarkHeader, error) {
	args := m.Called(ctx, caller, filter)
	if headers := args.Get(0); headers != nil {
		return headers.([]schema.BenchmarkHeader), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRegistryService) PublishBenchmark(ctx context.Context, caller *iam.Caller, id, group string) error {
	args := m.Called(ctx, caller, id, group)
	return args.Error(0)
}

func (m *MockRegistryService) UnpublishBenchmark(ctx context.Context, caller *iam.Caller, id, group string) error {
	args := m.Called(ctx, caller, id, group)
	return args.Error(0)
}

func (m *MockRegistryService) DeleteBenchmark(ctx context.Context, caller *iam.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockRegistryService) StoreArtifact(ctx context.Context, caller *iam.Caller, data []byte, metadata schema.ArtifactMetadata) (schema.ArtifactMetadataItem, error) {
	args := m.Called(ctx, caller, data, metadata)
	return args.Get(0).(schema.ArtifactMetadataItem), args.Error(1)
}

func (m *MockRegistryService) LoadArtifact(ctx context.Context, caller *iam.Caller, id string) (schema.ArtifactMetadataItem, []byte, error) {
	args := m.Called(ctx, caller, id)
	if data := args.Get(1); data != nil {
		return args.Get(0).(schema.ArtifactMetadataItem), data.([]byte), args.Error(2)
	}
	return args.Get(0).(schema.ArtifactMetadataItem), nil, args.Error(2)
}

func (m *MockRegistryService) ListArtifacts(ctx context.Context, caller *iam.Caller, filter *schema.Filter) ([]schema.ArtifactMetadataItem, error) {
	args := m.Called(ctx, caller, filter)
	if items := args.Get(0); items != nil {
		return items.([]schema.ArtifactMetadataItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRegistryService) PublishArtifact(ctx context.Context, caller *iam.Caller, id, group string) error {
	args := m.Called(ctx, caller, id, group)
	return args.Error(0)
}

func (m *MockRegistryService) UnpublishArtifact(ctx context.Context, caller *iam.Caller, id, group string) error {
	args := m.Called(ctx, caller, id, group)
	return args.Error(0)
}

func (m *MockRegistryService) DeleteArtifact(ctx context.Context, caller *iam.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockRegistryService) RecordEpisode(ctx context.Context, caller *iam.Caller, episode schema.Episode) (schema.EpisodeHeader, error) {
	args := m.Called(ctx, caller, episode)
	return args.Get(0).(schema.EpisodeHeader), args.Error(1)
}

func (m *MockRegistryService) ListEpisodes(ctx context.Context, caller *iam.Caller, query schema.EpisodesListQuery) ([]schema.EpisodeItem, error) {
	args := m.Called(ctx, caller, query)
	if items := args.Get(0); items != nil {
		return items.([]schema.EpisodeItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRegistryService) PublishEpisode(ctx context.Context, caller *iam.Caller, id, group string) error {
	args := m.Called(ctx, caller, id, group)
	return args.Error(0)
}

func (m *MockRegistryService) UnpublishEpisode(ctx context.Context, caller *iam.Caller, id, group string) error {
	args := m.Called(ctx, caller, id, group)
	return args.Error(0)
}

func (m *MockRegistryService) DeleteEpisode(ctx context.Context, caller *iam.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}
