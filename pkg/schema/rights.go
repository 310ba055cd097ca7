package schema

// Right is an atomic capability from the closed enumeration used by the
// rights evaluator. The wire form is the upper-snake name.
type Right string

const (
	ArtifactRead   Right = "ARTIFACT_READ"
	ArtifactCreate Right = "ARTIFACT_CREATE"
	ArtifactDelete Right = "ARTIFACT_DELETE"

	BenchmarkRead   Right = "BENCHMARK_READ"
	BenchmarkCreate Right = "BENCHMARK_CREATE"
	BenchmarkDelete Right = "BENCHMARK_DELETE"

	EpisodeRead   Right = "EPISODE_READ"
	EpisodeCreate Right = "EPISODE_CREATE"
	EpisodeDelete Right = "EPISODE_DELETE"

	UserRead   Right = "USER_READ"
	UserCreate Right = "USER_CREATE"
	UserDelete Right = "USER_DELETE"
	UserUpdate Right = "USER_UPDATE"

	RoleRead   Right = "ROLE_READ"
	RoleCreate Right = "ROLE_CREATE"
	RoleDelete Right = "ROLE_DELETE"

	GroupRead   Right = "GROUP_READ"
	GroupCreate Right = "GROUP_CREATE"
	GroupDelete Right = "GROUP_DELETE"
	GroupUpdate Right = "GROUP_UPDATE"
)

// rightBits assigns every right a stable bit position.
var rightBits = map[Right]RightSet{
	ArtifactRead:    1 << 0,
	ArtifactCreate:  1 << 1,
	ArtifactDelete:  1 << 2,
	BenchmarkRead:   1 << 3,
	BenchmarkCreate: 1 << 4,
	BenchmarkDelete: 1 << 5,
	EpisodeRead:     1 << 6,
	EpisodeCreate:   1 << 7,
	EpisodeDelete:   1 << 8,
	UserRead:        1 << 9,
	UserCreate:      1 << 10,
	UserDelete:      1 << 11,
	UserUpdate:      1 << 12,
	RoleRead:        1 << 13,
	RoleCreate:      1 << 14,
	RoleDelete:      1 << 15,
	GroupRead:       1 << 16,
	GroupCreate:     1 << 17,
	GroupDelete:     1 << 18,
	GroupUpdate:     1 << 19,
}

// RightSet is an integer bit-set over the Right enumeration. Union and
// intersection are single instructions, which keeps the per-request rights
// evaluation cheap.
type RightSet uint32

// AllRights is the set containing every defined right.
var AllRights = func() RightSet {
	var s RightSet
	for _, b := range rightBits {
		s |= b
	}
	return s
}()

// NewRightSet builds a set from individual rights. Unknown rights are ignored.
func NewRightSet(rights ...Right) RightSet {
	var s RightSet
	for _, r := range rights {
		s |= rightBits[r]
	}
	return s
}

// Has reports whether the set contains the given right.
func (s RightSet) Has(r Right) bool {
	b, ok := rightBits[r]
	return ok && s&b == b
}

// Union returns the combined set.
func (s RightSet) Union(other RightSet) RightSet {
	return s | other
}

// Rights expands the set back into the enumeration, in stable order.
func (s RightSet) Rights() []Right {
	out := make([]Right, 0, len(rightOrder))
	for _, r := range rightOrder {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// ValidRight reports whether the name belongs to the closed enumeration.
func ValidRight(r Right) bool {
	_, ok := rightBits[r]
	return ok
}

var rightOrder = []Right{
	ArtifactRead, ArtifactCreate, ArtifactDelete,
	BenchmarkRead, BenchmarkCreate, BenchmarkDelete,
	EpisodeRead, EpisodeCreate, EpisodeDelete,
	UserRead, UserCreate, UserDelete, UserUpdate,
	RoleRead, RoleCreate, RoleDelete,
	GroupRead, GroupCreate, GroupDelete, GroupUpdate,
}

// ReadRightFor maps a resource kind to its read right. Kinds are the
// collection names used throughout the registry.
func ReadRightFor(kind string) Right {
	switch kind {
	case KindArtifact:
		return ArtifactRead
	case KindBenchmark:
		return BenchmarkRead
	case KindEpisode:
		return EpisodeRead
	}
	return ""
}

// CreateRightFor maps a resource kind to its create right.
func CreateRightFor(kind string) Right {
	switch kind {
	case KindArtifact:
		return ArtifactCreate
	case KindBenchmark:
		return BenchmarkCreate
	case KindEpisode:
		return EpisodeCreate
	}
	return ""
}

// DeleteRightFor maps a resource kind to its delete right.
func DeleteRightFor(kind string) Right {
	switch kind {
	case KindArtifact:
		return ArtifactDelete
	case KindBenchmark:
		return BenchmarkDelete
	case KindEpisode:
		return EpisodeDelete
	}
	return ""
}

// Resource kinds.
const (
	KindArtifact  = "artifact"
	KindBenchmark = "benchmark"
	KindEpisode   = "episode"
)
