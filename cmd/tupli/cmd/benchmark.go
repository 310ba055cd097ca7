package cmd

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tumcps/tupli/pkg/schema"
	"github.com/tumcps/tupli/pkg/tupli"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Manage benchmarks",
}

var (
	benchmarkFile          string
	benchmarkFilter        string
	benchmarkWhere         string
	benchmarkWithArtifacts bool
)

var benchmarkCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a serialized benchmark",
	Long:  `Reads a benchmark document (hash, metadata, serialized) from --file or stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var query schema.BenchmarkQuery
		if err := readInput(benchmarkFile, &query); err != nil {
			return err
		}
		s, err := storageBackend()
		if err != nil {
			return err
		}
		header, err := s.CreateBenchmark(cmd.Context(), query)
		if err != nil {
			return err
		}
		return printJSON(header)
	},
}

func benchmarkTable(headers []schema.BenchmarkHeader) pterm.TableData {
	table := pterm.TableData{{"ID", "NAME", "HASH", "CREATED_BY", "PUBLIC"}}
	for _, h := range headers {
		table = append(table, []string{h.ID, h.Metadata.Name, h.Hash, h.CreatedBy, strconv.FormatBool(h.IsPublic)})
	}
	return table
}

var benchmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List visible benchmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(benchmarkFilter)
		if err != nil {
			return err
		}
		s, err := storageBackend()
		if err != nil {
			return err
		}
		headers, err := s.ListBenchmarks(cmd.Context(), filter)
		if err != nil {
			return err
		}
		headers, err = filterWhere(headers, benchmarkWhere)
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithData(benchmarkTable(headers)).Render()
	},
}

var benchmarkLoadCmd = &cobra.Command{
	Use:   "load <benchmark-id>",
	Short: "Load a full benchmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		benchmark, err := s.LoadBenchmark(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(benchmark)
	},
}

var benchmarkPublishCmd = &cobra.Command{
	Use:   "publish <benchmark-id> <group>",
	Short: "Publish a benchmark into a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if err := s.PublishBenchmark(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		pterm.Success.Printf("Published benchmark %s in %s\n", args[0], args[1])
		return nil
	},
}

var benchmarkUnpublishCmd = &cobra.Command{
	Use:   "unpublish <benchmark-id> <group>",
	Short: "Withdraw a benchmark from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if err := s.UnpublishBenchmark(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		pterm.Success.Printf("Withdrew benchmark %s from %s\n", args[0], args[1])
		return nil
	},
}

var benchmarkDeleteCmd = &cobra.Command{
	Use:   "delete <benchmark-id>",
	Short: "Delete a benchmark and its episodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if benchmarkWithArtifacts {
			err = tupli.DeleteBenchmarkArtifacts(cmd.Context(), s, args[0])
		} else {
			err = s.DeleteBenchmark(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		pterm.Success.Printf("Deleted benchmark %s\n", args[0])
		return nil
	},
}

func init() {
	benchmarkCreateCmd.Flags().StringVarP(&benchmarkFile, "file", "f", "-", "Benchmark JSON document (default: stdin)")
	benchmarkListCmd.Flags().StringVar(&benchmarkFilter, "filter", "", "Server-side filter document (JSON)")
	benchmarkListCmd.Flags().StringVar(&benchmarkWhere, "where", "", "Client-side bexpr expression (e.g. 'Hash == \"abc\"')")
	benchmarkDeleteCmd.Flags().BoolVar(&benchmarkWithArtifacts, "with-artifacts", false, "Also delete artifacts referenced by the serialized form")

	benchmarkCmd.AddCommand(benchmarkCreateCmd)
	benchmarkCmd.AddCommand(benchmarkListCmd)
	benchmarkCmd.AddCommand(benchmarkLoadCmd)
	benchmarkCmd.AddCommand(benchmarkPublishCmd)
	benchmarkCmd.AddCommand(benchmarkUnpublishCmd)
	benchmarkCmd.AddCommand(benchmarkDeleteCmd)
	rootCmd.AddCommand(benchmarkCmd)
}
