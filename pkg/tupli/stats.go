package tupli

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tumcps/tupli/pkg/schema"
)

// EpisodeStats summarizes the total reward per episode over a set of
// episodes.
type EpisodeStats struct {
	Episodes int     `json:"episodes"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// TotalReward sums the rewards of one episode.
func TotalReward(tuples []schema.RLTuple) float64 {
	var total float64
	for _, t := range tuples {
		total += t.Reward
	}
	return total
}

// ComputeEpisodeStats fetches the episodes matching the filter (with
// tuples) and summarizes their returns. An empty selection yields
// NaN-free zeros.
func ComputeEpisodeStats(ctx context.Context, s Storage, filter schema.Filter) (EpisodeStats, error) {
	items, err := s.ListEpisodes(ctx, schema.EpisodesListQuery{Filter: filter, IncludeTuples: true})
	if err != nil {
		return EpisodeStats{}, err
	}
	return SummarizeEpisodes(items), nil
}

// SummarizeEpisodes computes return statistics over already-fetched
// episodes.
func SummarizeEpisodes(items []schema.EpisodeItem) EpisodeStats {
	if len(items) == 0 {
		return EpisodeStats{}
	}
	returns := make([]float64, len(items))
	for i, item := range items {
		returns[i] = TotalReward(item.Tuples)
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if math.IsNaN(std) {
		// Single sample; the corrected std is undefined.
		std = 0
	}
	min, max := returns[0], returns[0]
	for _, r := range returns[1:] {
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	return EpisodeStats{
		Episodes: len(items),
		Mean:     mean,
		Std:      std,
		Min:      min,
		Max:      max,
	}
}
