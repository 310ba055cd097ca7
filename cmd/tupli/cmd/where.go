package cmd

import (
	"fmt"

	"github.com/hashicorp/go-bexpr"
	"github.com/mitchellh/mapstructure"
)

// filterWhere keeps the items matching a bexpr expression, evaluated
// against the item's field map. An empty expression keeps everything.
func filterWhere[T any](items []T, expr string) ([]T, error) {
	if expr == "" {
		return items, nil
	}
	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid --where expression: %w", err)
	}
	kept := make([]T, 0, len(items))
	for _, item := range items {
		var doc map[string]any
		if err := mapstructure.Decode(item, &doc); err != nil {
			return nil, fmt.Errorf("evaluating --where: %w", err)
		}
		matches, err := evaluator.Evaluate(doc)
		if err != nil {
			// Missing keys just exclude the item.
			continue
		}
		if matches {
			kept = append(kept, item)
		}
	}
	return kept, nil
}
