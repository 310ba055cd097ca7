package repository

import (
	"context"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/pkg/schema"
)

// Visibility scopes list queries to what a caller may see. All bypasses
// the predicate entirely (superuser); otherwise rows created by Caller or
// published into any of Readable are returned.
type Visibility struct {
	All      bool
	Caller   string
	Readable []string
}

// PrivateScope reports whether a publication set never left the owner's
// personal group.
func PrivateScope(publishedIn []string, owner string) bool {
	for _, g := range publishedIn {
		if g != owner {
			return false
		}
	}
	return true
}

// UserRepository exposes persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateMemberships(ctx context.Context, username string, memberships []schema.Membership) error
	UpdatePassword(ctx context.Context, username string, passwordHash string) error
	Delete(ctx context.Context, username string) error

	// ListByGroup returns all users holding a membership in the group.
	ListByGroup(ctx context.Context, group string) ([]models.User, error)
	// RemoveGroupMemberships strips the group from every user, used when
	// the group is deleted.
	RemoveGroupMemberships(ctx context.Context, group string) error
}

// RoleRepository exposes persistence operations for roles.
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Delete(ctx context.Context, name string) error
}

// GroupRepository exposes persistence operations for groups.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByName(ctx context.Context, name string) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Delete(ctx context.Context, name string) error
}

// BenchmarkRepository exposes persistence operations for benchmarks.
type BenchmarkRepository interface {
	Create(ctx context.Context, benchmark *models.Benchmark) error
	GetByID(ctx context.Context, id string) (*models.Benchmark, error)
	List(ctx context.Context, filter *schema.Filter, vis Visibility) ([]models.Benchmark, error)
	// Delete is idempotent: deleting a missing row is not an error.
	Delete(ctx context.Context, id string) error
	SetPublishedIn(ctx context.Context, id string, groups []string) error
	// CountVisibleByHash supports duplicate detection on create.
	CountVisibleByHash(ctx context.Context, hash string, vis Visibility) (int, error)
	RemoveScope(ctx context.Context, group string) error
}

// ArtifactRepository exposes persistence operations for artifacts and
// their blobs.
type ArtifactRepository interface {
	// CreateWithBlob stores metadata and blob in one transaction. Storing
	// an existing hash is a no-op returning the stored row.
	CreateWithBlob(ctx context.Context, artifact *models.Artifact, data []byte) (*models.Artifact, error)
	GetByID(ctx context.Context, id string) (*models.Artifact, error)
	GetBlob(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context, filter *schema.Filter, vis Visibility) ([]models.Artifact, error)
	Delete(ctx context.Context, id string) error
	SetPublishedIn(ctx context.Context, id string, groups []string) error
	// DeletePrivateByCreator removes the user's artifacts whose
	// publication never left the personal scope; published rows survive.
	DeletePrivateByCreator(ctx context.Context, username string) error
	RemoveScope(ctx context.Context, group string) error
}

// EpisodeRepository exposes persistence operations for episodes.
type EpisodeRepository interface {
	Create(ctx context.Context, episode *models.Episode) error
	GetByID(ctx context.Context, id string) (*models.Episode, error)
	List(ctx context.Context, filter *schema.Filter, vis Visibility) ([]models.Episode, error)
	Delete(ctx context.Context, id string) error
	SetPublishedIn(ctx context.Context, id string, groups []string) error
	DeleteByBenchmark(ctx context.Context, benchmarkID string) error
	// DeletePrivateByCreator removes the user's episodes whose
	// publication never left the personal scope; published rows survive.
	DeletePrivateByCreator(ctx context.Context, username string) error
	RemoveScope(ctx context.Context, group string) error
}
