package tupli

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/tumcps/tupli/pkg/schema"
)

const (
	benchmarksDir = "benchmarks"
	artifactsDir  = "artifacts"
	episodesDir   = "episodes"
)

// FileStorage implements Storage on a local directory tree. It is a
// single-user store: there is no authentication and publication scopes
// are plain labels, but the episode/benchmark coupling rules match the
// server's.
type FileStorage struct {
	root     string
	username string
}

var _ Storage = (*FileStorage)(nil)

// FileStorageOption mutates FileStorage construction.
type FileStorageOption func(*FileStorage)

// WithUsername sets the name recorded as created_by. Defaults to
// "local".
func WithUsername(username string) FileStorageOption {
	return func(s *FileStorage) {
		s.username = username
	}
}

// NewFileStorage creates (or reopens) a store rooted at dir.
func NewFileStorage(dir string, optFns ...FileStorageOption) (*FileStorage, error) {
	s := &FileStorage{root: dir, username: "local"}
	for _, fn := range optFns {
		fn(s)
	}
	for _, sub := range []string{benchmarksDir, artifactsDir, episodesDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, schema.StorageErr("creating storage directories", err)
		}
	}
	return s, nil
}

// writeJSONAtomic writes v to path via a temp file and rename, so a
// crash never leaves a half-written document.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return schema.StorageErr("encoding document", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return schema.StorageErr("writing document", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return schema.StorageErr("writing document", err)
	}
	if err := tmp.Close(); err != nil {
		return schema.StorageErr("writing document", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return schema.StorageErr("writing document", err)
	}
	return nil
}

func readJSON(path string, v any, missing string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return schema.NotFoundf("%s", missing)
		}
		return schema.StorageErr("reading document", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return schema.StorageErr("decoding document", err)
	}
	return nil
}

func (s *FileStorage) benchmarkPath(id string) string {
	return filepath.Join(s.root, benchmarksDir, id+".json")
}

func (s *FileStorage) artifactPath(id string) string {
	return filepath.Join(s.root, artifactsDir, id+".bin")
}

func (s *FileStorage) artifactMetaPath(id string) string {
	return filepath.Join(s.root, artifactsDir, id+".meta.json")
}

func (s *FileStorage) episodePath(id string) string {
	return filepath.Join(s.root, episodesDir, id+".json")
}

// --- benchmarks ---

func (s *FileStorage) CreateBenchmark(_ context.Context, query schema.BenchmarkQuery) (schema.BenchmarkHeader, error) {
	if query.Hash == "" {
		return schema.BenchmarkHeader{}, schema.Validationf("hash is required")
	}
	if query.Metadata.Name == "" {
		return schema.BenchmarkHeader{}, schema.Validationf("metadata.name is required")
	}
	if len(query.Metadata.EpisodeSchema) > 0 {
		if _, err := compileEpisodeSchema(string(query.Metadata.EpisodeSchema)); err != nil {
			return schema.BenchmarkHeader{}, err
		}
	}

	existing, err := s.listBenchmarkDocs()
	if err != nil {
		return schema.BenchmarkHeader{}, err
	}
	for _, doc := range existing {
		if doc.Hash == query.Hash {
			return schema.BenchmarkHeader{}, schema.Conflictf("Benchmark already exists")
		}
	}

	sum := sha256.Sum256([]byte(query.Hash + ":" + s.username))
	benchmark := schema.Benchmark{
		BenchmarkHeader: schema.BenchmarkHeader{
			ID:          base58.Encode(sum[:]),
			Hash:        query.Hash,
			CreatedBy:   s.username,
			CreatedAt:   time.Now().UTC(),
			Metadata:    query.Metadata,
			PublishedIn: []string{s.username},
		},
		Serialized: query.Serialized,
	}
	if err := writeJSONAtomic(s.benchmarkPath(benchmark.ID), benchmark); err != nil {
		return schema.BenchmarkHeader{}, err
	}
	return benchmark.BenchmarkHeader, nil
}

func (s *FileStorage) LoadBenchmark(_ context.Context, id string) (schema.Benchmark, error) {
	var benchmark schema.Benchmark
	if err := readJSON(s.benchmarkPath(id), &benchmark, "Benchmark not found"); err != nil {
		return schema.Benchmark{}, err
	}
	return benchmark, nil
}

func (s *FileStorage) ListBenchmarks(_ context.Context, filter *schema.Filter) ([]schema.BenchmarkHeader, error) {
	docs, err := s.listBenchmarkDocs()
	if err != nil {
		return nil, err
	}
	headers := make([]schema.BenchmarkHeader, 0, len(docs))
	for _, doc := range docs {
		if filter != nil && !filter.MatchesDoc(doc.BenchmarkHeader) {
			continue
		}
		headers = append(headers, doc.BenchmarkHeader)
	}
	return headers, nil
}

func (s *FileStorage) PublishBenchmark(ctx context.Context, id, group string) error {
	benchmark, err := s.LoadBenchmark(ctx, id)
	if err != nil {
		return err
	}
	if containsLabel(benchmark.PublishedIn, group) {
		return nil
	}
	benchmark.PublishedIn = append(benchmark.PublishedIn, group)
	return writeJSONAtomic(s.benchmarkPath(id), benchmark)
}

func (s *FileStorage) UnpublishBenchmark(ctx context.Context, id, group string) error {
	benchmark, err := s.LoadBenchmark(ctx, id)
	if err != nil {
		return err
	}
	if !containsLabel(benchmark.PublishedIn, group) {
		return nil
	}

	// The scope leaves the benchmark's episodes too.
	episodes, err := s.listEpisodeDocs()
	if err != nil {
		return err
	}
	for _, episode := range episodes {
		if episode.BenchmarkID != id || !containsLabel(episode.PublishedIn, group) {
			continue
		}
		episode.PublishedIn = removeLabel(episode.PublishedIn, group)
		if err := writeJSONAtomic(s.episodePath(episode.ID), episode); err != nil {
			return err
		}
	}

	benchmark.PublishedIn = removeLabel(benchmark.PublishedIn, group)
	return writeJSONAtomic(s.benchmarkPath(id), benchmark)
}

func (s *FileStorage) DeleteBenchmark(_ context.Context, id string) error {
	episodes, err := s.listEpisodeDocs()
	if err != nil {
		return err
	}
	for _, episode := range episodes {
		if episode.BenchmarkID != id {
			continue
		}
		if err := removeFile(s.episodePath(episode.ID)); err != nil {
			return err
		}
	}
	return removeFile(s.benchmarkPath(id))
}

func (s *FileStorage) listBenchmarkDocs() ([]schema.Benchmark, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, benchmarksDir, "*.json"))
	if err != nil {
		return nil, schema.StorageErr("listing benchmarks", err)
	}
	docs := make([]schema.Benchmark, 0, len(paths))
	for _, path := range paths {
		var doc schema.Benchmark
		if err := readJSON(path, &doc, "Benchmark not found"); err != nil {
			if schema.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// --- artifacts ---

func (s *FileStorage) StoreArtifact(_ context.Context, data []byte, metadata schema.ArtifactMetadata) (schema.ArtifactMetadataItem, error) {
	if len(data) == 0 {
		return schema.ArtifactMetadataItem{}, schema.Validationf("artifact data is empty")
	}
	sum := sha256.Sum256(data)
	id := hex.EncodeToString(sum[:])

	// Content addressing makes re-uploads a no-op.
	var existing schema.ArtifactMetadataItem
	if err := readJSON(s.artifactMetaPath(id), &existing, "Artifact not found"); err == nil {
		return existing, nil
	}

	item := schema.ArtifactMetadataItem{
		ArtifactMetadata: metadata,
		ID:               id,
		Hash:             id,
		CreatedBy:        s.username,
		CreatedAt:        time.Now().UTC(),
		PublishedIn:      []string{s.username},
	}
	if err := os.WriteFile(s.artifactPath(id), data, 0644); err != nil {
		return schema.ArtifactMetadataItem{}, schema.StorageErr("writing artifact", err)
	}
	if err := writeJSONAtomic(s.artifactMetaPath(id), item); err != nil {
		return schema.ArtifactMetadataItem{}, err
	}
	return item, nil
}

func (s *FileStorage) LoadArtifact(_ context.Context, id string) (schema.ArtifactMetadataItem, []byte, error) {
	var item schema.ArtifactMetadataItem
	if err := readJSON(s.artifactMetaPath(id), &item, "Artifact not found"); err != nil {
		return schema.ArtifactMetadataItem{}, nil, err
	}
	data, err := os.ReadFile(s.artifactPath(id))
	if err != nil {
		return schema.ArtifactMetadataItem{}, nil, schema.StorageErr("reading artifact", err)
	}
	return item, data, nil
}

func (s *FileStorage) ListArtifacts(_ context.Context, filter *schema.Filter) ([]schema.ArtifactMetadataItem, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, artifactsDir, "*.meta.json"))
	if err != nil {
		return nil, schema.StorageErr("listing artifacts", err)
	}
	items := make([]schema.ArtifactMetadataItem, 0, len(paths))
	for _, path := range paths {
		var item schema.ArtifactMetadataItem
		if err := readJSON(path, &item, "Artifact not found"); err != nil {
			if schema.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if filter != nil && !filter.MatchesDoc(item) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *FileStorage) PublishArtifact(ctx context.Context, id, group string) error {
	item, _, err := s.LoadArtifact(ctx, id)
	if err != nil {
		return err
	}
	if containsLabel(item.PublishedIn, group) {
		return nil
	}
	item.PublishedIn = append(item.PublishedIn, group)
	return writeJSONAtomic(s.artifactMetaPath(id), item)
}

func (s *FileStorage) UnpublishArtifact(ctx context.Context, id, group string) error {
	item, _, err := s.LoadArtifact(ctx, id)
	if err != nil {
		return err
	}
	if !containsLabel(item.PublishedIn, group) {
		return nil
	}
	item.PublishedIn = removeLabel(item.PublishedIn, group)
	return writeJSONAtomic(s.artifactMetaPath(id), item)
}

func (s *FileStorage) DeleteArtifact(_ context.Context, id string) error {
	if err := removeFile(s.artifactMetaPath(id)); err != nil {
		return err
	}
	return removeFile(s.artifactPath(id))
}

// --- episodes ---

func (s *FileStorage) RecordEpisode(ctx context.Context, episode schema.Episode) (schema.EpisodeHeader, error) {
	if len(episode.Tuples) == 0 {
		return schema.EpisodeHeader{}, schema.Validationf("episode must contain at least one tuple")
	}
	benchmark, err := s.LoadBenchmark(ctx, episode.BenchmarkID)
	if err != nil {
		return schema.EpisodeHeader{}, err
	}
	if len(benchmark.Metadata.EpisodeSchema) > 0 {
		if err := validateEpisodeMetadata(string(benchmark.Metadata.EpisodeSchema), episode.Metadata); err != nil {
			return schema.EpisodeHeader{}, err
		}
	}

	last := episode.Tuples[len(episode.Tuples)-1]
	item := schema.EpisodeItem{
		EpisodeHeader: schema.EpisodeHeader{
			ID:          uuid.NewString(),
			BenchmarkID: episode.BenchmarkID,
			CreatedBy:   s.username,
			CreatedAt:   time.Now().UTC(),
			Metadata:    episode.Metadata,
			NTuples:     len(episode.Tuples),
			Terminated:  last.Terminal,
			Timeout:     last.Timeout,
			PublishedIn: []string{s.username},
		},
		Tuples: episode.Tuples,
	}
	if err := writeJSONAtomic(s.episodePath(item.ID), item); err != nil {
		return schema.EpisodeHeader{}, err
	}
	return item.EpisodeHeader, nil
}

func (s *FileStorage) ListEpisodes(_ context.Context, query schema.EpisodesListQuery) ([]schema.EpisodeItem, error) {
	docs, err := s.listEpisodeDocs()
	if err != nil {
		return nil, err
	}
	items := make([]schema.EpisodeItem, 0, len(docs))
	for _, doc := range docs {
		if !query.Filter.IsZero() && !query.Filter.MatchesDoc(doc.EpisodeHeader) {
			continue
		}
		if !query.IncludeTuples {
			doc.Tuples = nil
		}
		items = append(items, doc)
	}
	return items, nil
}

func (s *FileStorage) PublishEpisode(ctx context.Context, id, group string) error {
	var episode schema.EpisodeItem
	if err := readJSON(s.episodePath(id), &episode, "Episode not found"); err != nil {
		return err
	}
	benchmark, err := s.LoadBenchmark(ctx, episode.BenchmarkID)
	if err != nil {
		return err
	}
	if group != episode.CreatedBy && !containsLabel(benchmark.PublishedIn, group) {
		return schema.Validationf("benchmark is not published in group %s", group)
	}
	if containsLabel(episode.PublishedIn, group) {
		return nil
	}
	episode.PublishedIn = append(episode.PublishedIn, group)
	return writeJSONAtomic(s.episodePath(id), episode)
}

func (s *FileStorage) UnpublishEpisode(_ context.Context, id, group string) error {
	var episode schema.EpisodeItem
	if err := readJSON(s.episodePath(id), &episode, "Episode not found"); err != nil {
		return err
	}
	if !containsLabel(episode.PublishedIn, group) {
		return nil
	}
	episode.PublishedIn = removeLabel(episode.PublishedIn, group)
	return writeJSONAtomic(s.episodePath(id), episode)
}

func (s *FileStorage) DeleteEpisode(_ context.Context, id string) error {
	return removeFile(s.episodePath(id))
}

func (s *FileStorage) listEpisodeDocs() ([]schema.EpisodeItem, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, episodesDir, "*.json"))
	if err != nil {
		return nil, schema.StorageErr("listing episodes", err)
	}
	docs := make([]schema.EpisodeItem, 0, len(paths))
	for _, path := range paths {
		var doc schema.EpisodeItem
		if err := readJSON(path, &doc, "Episode not found"); err != nil {
			if schema.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// --- helpers ---

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return schema.StorageErr("removing file", err)
	}
	return nil
}

func containsLabel(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func removeLabel(list []string, drop string) []string {
	kept := make([]string, 0, len(list))
	for _, s := range list {
		if s != drop {
			kept = append(kept, s)
		}
	}
	return kept
}

func compileEpisodeSchema(source string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
	if err != nil {
		return nil, schema.Validationf("invalid episode schema: %v", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, schema.Validationf("invalid episode schema: %v", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, schema.Validationf("invalid episode schema: %v", err)
	}
	return compiled, nil
}

func validateEpisodeMetadata(source string, metadata map[string]any) error {
	compiled, err := compileEpisodeSchema(source)
	if err != nil {
		return err
	}
	// Round-trip so numbers carry the types the validator expects.
	raw, err := json.Marshal(metadata)
	if err != nil {
		return schema.Validationf("invalid episode metadata: %v", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return schema.Validationf("invalid episode metadata: %v", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return schema.Validationf("episode metadata violates benchmark schema: %v", err)
	}
	return nil
}
