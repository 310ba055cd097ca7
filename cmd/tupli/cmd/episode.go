package cmd

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tumcps/tupli/pkg/schema"
	"github.com/tumcps/tupli/pkg/tupli"
)

var episodeCmd = &cobra.Command{
	Use:   "episode",
	Short: "Manage recorded episodes",
}

var (
	episodeFile          string
	episodeFilter        string
	episodeWhere         string
	episodeIncludeTuples bool
	episodeBenchmarkID   string
)

var episodeRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an episode against a benchmark",
	Long:  `Reads an episode document (benchmark_id, metadata, tuples) from --file or stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var episode schema.Episode
		if err := readInput(episodeFile, &episode); err != nil {
			return err
		}
		s, err := storageBackend()
		if err != nil {
			return err
		}
		header, err := s.RecordEpisode(cmd.Context(), episode)
		if err != nil {
			return err
		}
		return printJSON(header)
	},
}

var episodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List visible episodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(episodeFilter)
		if err != nil {
			return err
		}
		query := schema.EpisodesListQuery{IncludeTuples: episodeIncludeTuples}
		if filter != nil {
			query.Filter = *filter
		}
		s, err := storageBackend()
		if err != nil {
			return err
		}
		items, err := s.ListEpisodes(cmd.Context(), query)
		if err != nil {
			return err
		}
		items, err = filterWhere(items, episodeWhere)
		if err != nil {
			return err
		}

		if episodeIncludeTuples {
			return printJSON(items)
		}
		return pterm.DefaultTable.WithData(episodeTable(items)).Render()
	},
}

func episodeTable(items []schema.EpisodeItem) pterm.TableData {
	table := pterm.TableData{{"ID", "BENCHMARK", "CREATED_BY", "TUPLES", "TERMINATED", "TIMEOUT"}}
	for _, item := range items {
		table = append(table, []string{
			item.ID, item.BenchmarkID, item.CreatedBy,
			strconv.Itoa(item.NTuples),
			strconv.FormatBool(item.Terminated),
			strconv.FormatBool(item.Timeout),
		})
	}
	return table
}

var episodeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize episode returns",
	Long:  `Computes mean, standard deviation, min, and max of the per-episode total reward.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(episodeFilter)
		if err != nil {
			return err
		}
		var f schema.Filter
		if filter != nil {
			f = *filter
		}
		if episodeBenchmarkID != "" {
			byBenchmark := schema.EQ("benchmark_id", episodeBenchmarkID)
			if f.IsZero() {
				f = *byBenchmark
			} else {
				f = *schema.And(&f, byBenchmark)
			}
		}
		s, err := storageBackend()
		if err != nil {
			return err
		}
		stats, err := tupli.ComputeEpisodeStats(cmd.Context(), s, f)
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var episodePublishCmd = &cobra.Command{
	Use:   "publish <episode-id> <group>",
	Short: "Publish an episode into a group its benchmark is published in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if err := s.PublishEpisode(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		pterm.Success.Printf("Published episode %s in %s\n", args[0], args[1])
		return nil
	},
}

var episodeUnpublishCmd = &cobra.Command{
	Use:   "unpublish <episode-id> <group>",
	Short: "Withdraw an episode from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if err := s.UnpublishEpisode(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		pterm.Success.Printf("Withdrew episode %s from %s\n", args[0], args[1])
		return nil
	},
}

var episodeDeleteCmd = &cobra.Command{
	Use:   "delete <episode-id>",
	Short: "Delete an episode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if err := s.DeleteEpisode(cmd.Context(), args[0]); err != nil {
			return err
		}
		pterm.Success.Printf("Deleted episode %s\n", args[0])
		return nil
	},
}

func init() {
	episodeRecordCmd.Flags().StringVarP(&episodeFile, "file", "f", "-", "Episode JSON document (default: stdin)")
	episodeListCmd.Flags().StringVar(&episodeFilter, "filter", "", "Server-side filter document (JSON)")
	episodeListCmd.Flags().StringVar(&episodeWhere, "where", "", "Client-side bexpr expression")
	episodeListCmd.Flags().BoolVar(&episodeIncludeTuples, "include-tuples", false, "Fetch full trajectories")
	episodeStatsCmd.Flags().StringVar(&episodeFilter, "filter", "", "Server-side filter document (JSON)")
	episodeStatsCmd.Flags().StringVar(&episodeBenchmarkID, "benchmark", "", "Restrict to one benchmark")

	episodeCmd.AddCommand(episodeRecordCmd)
	episodeCmd.AddCommand(episodeListCmd)
	episodeCmd.AddCommand(episodeStatsCmd)
	episodeCmd.AddCommand(episodePublishCmd)
	episodeCmd.AddCommand(episodeUnpublishCmd)
	episodeCmd.AddCommand(episodeDeleteCmd)
	rootCmd.AddCommand(episodeCmd)
}
