package schema

import (
	"encoding/json"
	"time"
)

// Reserved group names.
const (
	GroupGlobal = "global"
)

// Built-in role names provisioned on first boot.
const (
	RoleAdmin        = "admin"
	RoleContentAdmin = "content_admin"
	RoleContributor  = "contributor"
	RoleGuest        = "guest"
)

// Membership binds a user to a set of roles within one group. A user holds
// at most one membership per group.
type Membership struct {
	Group string   `json:"group"`
	Roles []string `json:"roles"`
}

// User is the identity document. Password material never appears on the wire.
type User struct {
	Username    string       `json:"username"`
	Memberships []Membership `json:"memberships"`
}

// MembershipIn returns the user's membership in the named group, if any.
func (u *User) MembershipIn(group string) (Membership, bool) {
	for _, m := range u.Memberships {
		if m.Group == group {
			return m, true
		}
	}
	return Membership{}, false
}

// UserCredentials is the login / user-creation request body.
type UserCredentials struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// Role names a capability set.
type Role struct {
	Role        string  `json:"role"`
	Description string  `json:"description,omitempty"`
	Rights      []Right `json:"rights"`
}

// RightSet collapses the role's rights into a bit-set.
func (r Role) RightSet() RightSet {
	return NewRightSet(r.Rights...)
}

// Group is a named publication scope.
type Group struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedBy   string  `json:"created_by,omitempty"`
}

// GroupWithMembers is the read-group response; the creator is listed first.
type GroupWithMembers struct {
	Group
	Members []string `json:"members"`
}

// GroupMembership is one entry of an add/remove-members request.
type GroupMembership struct {
	User  string   `json:"user"`
	Roles []string `json:"roles,omitempty"`
}

// GroupMembershipQuery is the add/remove-members request body.
type GroupMembershipQuery struct {
	GroupName string            `json:"group_name"`
	Members   []GroupMembership `json:"members"`
}

// Token is one signed token plus its type tag.
type Token struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

// TokenPair is the login response.
type TokenPair struct {
	AccessToken  Token `json:"access_token"`
	RefreshToken Token `json:"refresh_token"`
}

// BenchmarkMetadata is the descriptive part of a benchmark. EpisodeSchema,
// when set, is a JSON Schema document that episode metadata recorded against
// this benchmark must satisfy.
type BenchmarkMetadata struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Difficulty    string          `json:"difficulty,omitempty"`
	Version       string          `json:"version,omitempty"`
	EpisodeSchema json.RawMessage `json:"episode_schema,omitempty"`
}

// BenchmarkQuery is the create-benchmark request. The hash is the caller's
// content fingerprint of the serialized environment; the server treats it as
// an opaque identifier.
type BenchmarkQuery struct {
	Hash       string            `json:"hash"`
	Metadata   BenchmarkMetadata `json:"metadata"`
	Serialized string            `json:"serialized"`
}

// BenchmarkHeader is a benchmark without its serialized payload.
type BenchmarkHeader struct {
	ID          string            `json:"id"`
	Hash        string            `json:"hash"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	Metadata    BenchmarkMetadata `json:"metadata"`
	PublishedIn []string          `json:"published_in"`
	IsPublic    bool              `json:"is_public"`
}

// Benchmark is the full stored document.
type Benchmark struct {
	BenchmarkHeader
	Serialized string `json:"serialized"`
}

// ArtifactMetadata is caller-supplied artifact description.
type ArtifactMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ArtifactMetadataItem is the stored artifact record without its blob.
// Artifacts are content-addressed: ID and Hash are both the SHA-256 of the
// blob bytes.
type ArtifactMetadataItem struct {
	ArtifactMetadata
	ID          string    `json:"id"`
	Hash        string    `json:"hash"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	PublishedIn []string  `json:"published_in"`
	IsPublic    bool      `json:"is_public"`
}

// RLTuple is one environment step. State, action and info are opaque JSON;
// the registry never introspects them.
type RLTuple struct {
	State    json.RawMessage `json:"state"`
	Action   json.RawMessage `json:"action"`
	Reward   float64         `json:"reward"`
	Info     json.RawMessage `json:"info,omitempty"`
	Terminal bool            `json:"terminal"`
	Timeout  bool            `json:"timeout"`
}

// Episode is the record-episode request body.
type Episode struct {
	BenchmarkID string         `json:"benchmark_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Tuples      []RLTuple      `json:"tuples"`
}

// EpisodeHeader is a stored episode without its tuples. Terminated and
// Timeout are derived from the final tuple at record time.
type EpisodeHeader struct {
	ID          string         `json:"id"`
	BenchmarkID string         `json:"benchmark_id"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	NTuples     int            `json:"n_tuples"`
	Terminated  bool           `json:"terminated"`
	Timeout     bool           `json:"timeout"`
	PublishedIn []string       `json:"published_in"`
	IsPublic    bool           `json:"is_public"`
}

// EpisodeItem is an episode header together with its tuples.
type EpisodeItem struct {
	EpisodeHeader
	Tuples []RLTuple `json:"tuples"`
}

/// EpisodesListQuery is the list-episodes request: a filter tree merged with
// the include_tuples flag at the top level.
type EpisodesListQuery struct {
	Filter
	IncludeTuples bool `json:"include_tuples"`
}

// DerivePublic reports whether a publication set reaches beyond the
// creator's personal group.
func DerivePublic(publishedIn []string, createdBy string) bool {
	for _, g := range publishedIn {
		if g != createdBy {
			return true
		}
	}
	return false
}
