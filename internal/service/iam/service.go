// Package iam owns identities, groups, roles, token issuance, and the
// rights evaluation every authenticated request runs through.
package iam

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tumcps/tupli/internal/repository"
	"github.com/tumcps/tupli/pkg/schema"
)

// Service is the identity and access management surface consumed by the
// HTTP layer and the registry service.
type Service interface {
	// Tokens
	Login(ctx context.Context, username, password string) (schema.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (schema.Token, error)
	// Authenticate verifies an access token and resolves the caller's
	// effective rights.
	Authenticate(ctx context.Context, accessToken string) (*Caller, error)

	// Users
	Signup(ctx context.Context, creds schema.UserCredentials) (schema.User, error)
	CreateUser(ctx context.Context, caller *Caller, creds schema.UserCredentials) (schema.User, error)
	ListUsers(ctx context.Context, caller *Caller) ([]schema.User, error)
	ReadUser(ctx context.Context, caller *Caller, username string) (schema.User, error)
	ChangePassword(ctx context.Context, caller *Caller, creds schema.UserCredentials) (schema.User, error)
	DeleteUser(ctx context.Context, caller *Caller, username string) error

	// Roles
	CreateRole(ctx context.Context, caller *Caller, role schema.Role) (schema.Role, error)
	ListRoles(ctx context.Context, caller *Caller) ([]schema.Role, error)
	DeleteRole(ctx context.Context, caller *Caller, name string) error

	// Groups
	CreateGroup(ctx context.Context, caller *Caller, group schema.Group) (schema.Group, error)
	ListGroups(ctx context.Context, caller *Caller) ([]schema.Group, error)
	ReadGroup(ctx context.Context, caller *Caller, name string) (schema.GroupWithMembers, error)
	DeleteGroup(ctx context.Context, caller *Caller, name string) error
	AddMembers(ctx context.Context, caller *Caller, query schema.GroupMembershipQuery) (schema.Group, error)
	RemoveMembers(ctx context.Context, caller *Caller, query schema.GroupMembershipQuery) (schema.Group, error)

	// EnsureAdmin provisions the initial admin account. Idempotent.
	EnsureAdmin(ctx context.Context, username, password string) error
}

// Dependencies contains everything the IAM service needs. A struct keeps
// construction sites readable and mock injection trivial.
type Dependencies struct {
	Users  repository.UserRepository
	Roles  repository.RoleRepository
	Groups repository.GroupRepository

	// Resource repositories, needed for delete cascades.
	Benchmarks repository.BenchmarkRepository
	Artifacts  repository.ArtifactRepository
	Episodes   repository.EpisodeRepository
}

// Config carries token signing material and lifetimes.
type Config struct {
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

const roleCacheSize = 128

type iamService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	groups repository.GroupRepository

	benchmarks repository.BenchmarkRepository
	artifacts  repository.ArtifactRepository
	episodes   repository.EpisodeRepository

	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration

	// Role right-sets rarely change; cache them to keep per-request
	// rights resolution off the roles table.
	roleCache *lru.Cache[string, schema.RightSet]
}

// NewService creates the IAM service.
func NewService(deps Dependencies, cfg Config) (Service, error) {
	cache, err := lru.New[string, schema.RightSet](roleCacheSize)
	if err != nil {
		return nil, err
	}
	return &iamService{
		users:           deps.Users,
		roles:           deps.Roles,
		groups:          deps.Groups,
		benchmarks:      deps.Benchmarks,
		artifacts:       deps.Artifacts,
		episodes:        deps.Episodes,
		secret:          cfg.JWTSecret,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		roleCache:       cache,
	}, nil
}
