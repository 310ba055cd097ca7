package tupli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumcps/tupli/pkg/schema"
)

func TestSummarizeEpisodes(t *testing.T) {
	items := []schema.EpisodeItem{
		{Tuples: testTuples(1, 2, 3)}, // return 6
		{Tuples: testTuples(4)},       // return 4
		{Tuples: testTuples(-1, 3)},   // return 2
	}
	stats := SummarizeEpisodes(items)
	assert.Equal(t, 3, stats.Episodes)
	assert.InDelta(t, 4.0, stats.Mean, 1e-9)
	assert.InDelta(t, 2.0, stats.Std, 1e-9)
	assert.Equal(t, 2.0, stats.Min)
	assert.Equal(t, 6.0, stats.Max)
}

func TestSummarizeEpisodesSingleSample(t *testing.T) {
	stats := SummarizeEpisodes([]schema.EpisodeItem{{Tuples: testTuples(5)}})
	assert.Equal(t, 1, stats.Episodes)
	assert.Equal(t, 5.0, stats.Mean)
	assert.Equal(t, 0.0, stats.Std)
}

func TestSummarizeEpisodesEmpty(t *testing.T) {
	assert.Equal(t, EpisodeStats{}, SummarizeEpisodes(nil))
}

func TestComputeEpisodeStatsFetchesTuples(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	benchmark, err := s.CreateBenchmark(ctx, testBenchmarkQuery("h1"))
	require.NoError(t, err)
	_, err = s.RecordEpisode(ctx, schema.Episode{BenchmarkID: benchmark.ID, Tuples: testTuples(1, 2)})
	require.NoError(t, err)
	_, err = s.RecordEpisode(ctx, schema.Episode{BenchmarkID: benchmark.ID, Tuples: testTuples(7)})
	require.NoError(t, err)

	stats, err := ComputeEpisodeStats(ctx, s, *schema.EQ("benchmark_id", benchmark.ID))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Episodes)
	assert.InDelta(t, 5.0, stats.Mean, 1e-9)
	assert.Equal(t, 3.0, stats.Min)
	assert.Equal(t, 7.0, stats.Max)
}
