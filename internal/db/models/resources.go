package models

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/pkg/schema"
)

// Benchmark stores a serialized environment plus its descriptive metadata.
// The ID is a fingerprint of the content hash and the creator, so different
// users can register identical environments.
type Benchmark struct {
	bun.BaseModel `bun:"table:benchmarks,alias:b"`

	ID          string        `bun:"id,pk"`
	Hash        string        `bun:"hash,notnull"`
	CreatedBy   string        `bun:"created_by,notnull"`
	CreatedAt   time.Time     `bun:"created_at,notnull,default:current_timestamp"`
	Metadata    BenchmarkMeta `bun:"metadata,type:jsonb,notnull,default:'{}'"`
	Serialized  string        `bun:"serialized,notnull"`
	PublishedIn StringList    `bun:"published_in,type:jsonb,notnull,default:'[]'"`
}

// Header converts to the wire header document.
func (b *Benchmark) Header() schema.BenchmarkHeader {
	return schema.BenchmarkHeader{
		ID:          b.ID,
		Hash:        b.Hash,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   b.CreatedAt,
		Metadata:    schema.BenchmarkMetadata(b.Metadata),
		PublishedIn: append([]string(nil), b.PublishedIn...),
		IsPublic:    schema.DerivePublic(b.PublishedIn, b.CreatedBy),
	}
}

// ToSchema converts to the full wire document including the payload.
func (b *Benchmark) ToSchema() schema.Benchmark {
	return schema.Benchmark{BenchmarkHeader: b.Header(), Serialized: b.Serialized}
}

// Artifact stores content-addressed blob metadata. The blob bytes live in a
// separate table so list queries never page them in.
type Artifact struct {
	bun.BaseModel `bun:"table:artifacts,alias:a"`

	ID          string     `bun:"id,pk"` // sha256 hex of the blob
	Name        string     `bun:"name,notnull"`
	Description string     `bun:"description"`
	CreatedBy   string     `bun:"created_by,notnull"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	PublishedIn StringList `bun:"published_in,type:jsonb,notnull,default:'[]'"`
}

// ToSchema converts to the wire metadata document.
func (a *Artifact) ToSchema() schema.ArtifactMetadataItem {
	return schema.ArtifactMetadataItem{
		ArtifactMetadata: schema.ArtifactMetadata{Name: a.Name, Description: a.Description},
		ID:               a.ID,
		Hash:             a.ID,
		CreatedBy:        a.CreatedBy,
		CreatedAt:        a.CreatedAt,
		PublishedIn:      append([]string(nil), a.PublishedIn...),
		IsPublic:         schema.DerivePublic(a.PublishedIn, a.CreatedBy),
	}
}

// ArtifactBlob holds the raw bytes keyed by the same content hash.
type ArtifactBlob struct {
	bun.BaseModel `bun:"table:artifact_blobs,alias:ab"`

	ID   string `bun:"id,pk"`
	Data []byte `bun:"data,notnull"`
}

// Episode stores one recorded trajectory against a benchmark.
type Episode struct {
	bun.BaseModel `bun:"table:episodes,alias:e"`

	ID          string     `bun:"id,pk,type:uuid"`
	BenchmarkID string     `bun:"benchmark_id,notnull"`
	CreatedBy   string     `bun:"created_by,notnull"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	Metadata    JSONMap    `bun:"metadata,type:jsonb,notnull,default:'{}'"`
	Tuples      TupleList  `bun:"tuples,type:jsonb,notnull,default:'[]'"`
	NTuples     int        `bun:"n_tuples,notnull"`
	Terminated  bool       `bun:"terminated,notnull"`
	Timeout     bool       `bun:"timeout,notnull"`
	PublishedIn StringList `bun:"published_in,type:jsonb,notnull,default:'[]'"`
}

// Header converts to the wire header document.
func (e *Episode) Header() schema.EpisodeHeader {
	return schema.EpisodeHeader{
		ID:          e.ID,
		BenchmarkID: e.BenchmarkID,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		Metadata:    e.Metadata,
		NTuples:     e.NTuples,
		Terminated:  e.Terminated,
		Timeout:     e.Timeout,
		PublishedIn: append([]string(nil), e.PublishedIn...),
		IsPublic:    schema.DerivePublic(e.PublishedIn, e.CreatedBy),
	}
}

// ToSchema converts to the full wire document including tuples.
func (e *Episode) ToSchema() schema.EpisodeItem {
	return schema.EpisodeItem{EpisodeHeader: e.Header(), Tuples: append([]schema.RLTuple(nil), e.Tuples...)}
}
