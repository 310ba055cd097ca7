package registry

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/tumcps/tupli/pkg/schema"
)

// metadataValidator checks episode metadata against the JSON Schema a
// benchmark optionally declares. Compiled schemas are cached by their
// source text.
type metadataValidator struct {
	cache *lru.Cache[string, *jsonschema.Schema]
}

func newMetadataValidator(cacheSize int) (*metadataValidator, error) {
	cache, err := lru.New[string, *jsonschema.Schema](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create schema cache: %w", err)
	}
	return &metadataValidator{cache: cache}, nil
}

// CheckSchema compiles a schema document, reporting malformed schemas
// before they are stored on a benchmark.
func (v *metadataValidator) CheckSchema(schemaJSON string) error {
	_, err := v.compiled(schemaJSON)
	return err
}

// Validate checks a metadata document against the schema.
func (v *metadataValidator) Validate(schemaJSON string, metadata map[string]any) error {
	compiled, err := v.compiled(schemaJSON)
	if err != nil {
		return err
	}
	// jsonschema validates any JSON-shaped value; maps need no re-parse.
	doc := map[string]any(metadata)
	if doc == nil {
		doc = map[string]any{}
	}
	if err := compiled.Validate(doc); err != nil {
		return schema.Validationf("episode metadata violates benchmark schema: %v", err)
	}
	return nil
}

func (v *metadataValidator) compiled(schemaJSON string) (*jsonschema.Schema, error) {
	if cached, ok := v.cache.Get(schemaJSON); ok {
		return cached, nil
	}

	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, schema.Validationf("invalid episode schema: %v", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource("schema.json", parsed); err != nil {
		return nil, schema.Validationf("invalid episode schema: %v", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, schema.Validationf("invalid episode schema: %v", err)
	}

	v.cache.Add(schemaJSON, compiled)
	return compiled, nil
}
