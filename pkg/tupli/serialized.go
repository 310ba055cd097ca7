package tupli

import "encoding/json"

// extractArtifactIDs walks a serialized environment document and
// collects every "artifact_id" string value, at any depth. Malformed
// documents yield no IDs rather than an error.
func extractArtifactIDs(serialized string) []string {
	var doc any
	if err := json.Unmarshal([]byte(serialized), &doc); err != nil {
		return nil
	}
	var ids []string
	collectArtifactIDs(doc, &ids)
	return ids
}

func collectArtifactIDs(node any, ids *[]string) {
	switch v := node.(type) {
	case map[string]any:
		for key, value := range v {
			if key == "artifact_id" {
				if id, ok := value.(string); ok && id != "" {
					*ids = append(*ids, id)
				}
				continue
			}
			collectArtifactIDs(value, ids)
		}
	case []any:
		for _, item := range v {
			collectArtifactIDs(item, ids)
		}
	}
}
