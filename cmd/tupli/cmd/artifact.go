package cmd

import (
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tumcps/tupli/pkg/schema"
)

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Manage binary artifacts",
}

var (
	artifactName        string
	artifactDescription string
	artifactOutput      string
	artifactFilter      string
	artifactWhere       string
)

var artifactUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a blob, content-addressed by SHA-256",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		s, err := storageBackend()
		if err != nil {
			return err
		}
		item, err := s.StoreArtifact(cmd.Context(), data, schema.ArtifactMetadata{
			Name:        artifactName,
			Description: artifactDescription,
		})
		if err != nil {
			return err
		}
		return printJSON(item)
	},
}

var artifactDownloadCmd = &cobra.Command{
	Use:   "download <artifact-id>",
	Short: "Download a blob",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		item, data, err := s.LoadArtifact(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := artifactOutput
		if out == "" {
			out = item.Name
		}
		if out == "" {
			out = item.ID
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}
		pterm.Success.Printf("Wrote %d bytes to %s\n", len(data), out)
		return nil
	},
}

var artifactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List visible artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(artifactFilter)
		if err != nil {
			return err
		}
		s, err := storageBackend()
		if err != nil {
			return err
		}
		items, err := s.ListArtifacts(cmd.Context(), filter)
		if err != nil {
			return err
		}
		items, err = filterWhere(items, artifactWhere)
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithData(artifactTable(items)).Render()
	},
}

func artifactTable(items []schema.ArtifactMetadataItem) pterm.TableData {
	table := pterm.TableData{{"ID", "NAME", "CREATED_BY", "PUBLIC"}}
	for _, item := range items {
		table = append(table, []string{item.ID, item.Name, item.CreatedBy, strconv.FormatBool(item.IsPublic)})
	}
	return table
}

var artifactPublishCmd = &cobra.Command{
	Use:   "publish <artifact-id> <group>",
	Short: "Publish an artifact into a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if err := s.PublishArtifact(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		pterm.Success.Printf("Published artifact %s in %s\n", args[0], args[1])
		return nil
	},
}

var artifactUnpublishCmd = &cobra.Command{
	Use:   "unpublish <artifact-id> <group>",
	Short: "Withdraw an artifact from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if err := s.UnpublishArtifact(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		pterm.Success.Printf("Withdrew artifact %s from %s\n", args[0], args[1])
		return nil
	},
}

var artifactDeleteCmd = &cobra.Command{
	Use:   "delete <artifact-id>",
	Short: "Delete an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageBackend()
		if err != nil {
			return err
		}
		if err := s.DeleteArtifact(cmd.Context(), args[0]); err != nil {
			return err
		}
		pterm.Success.Printf("Deleted artifact %s\n", args[0])
		return nil
	},
}

func init() {
	artifactUploadCmd.Flags().StringVar(&artifactName, "name", "", "Artifact name")
	artifactUploadCmd.Flags().StringVar(&artifactDescription, "description", "", "Artifact description")
	artifactDownloadCmd.Flags().StringVarP(&artifactOutput, "output", "o", "", "Output file (default: artifact name)")
	artifactListCmd.Flags().StringVar(&artifactFilter, "filter", "", "Server-side filter document (JSON)")
	artifactListCmd.Flags().StringVar(&artifactWhere, "where", "", "Client-side bexpr expression")

	artifactCmd.AddCommand(artifactUploadCmd)
	artifactCmd.AddCommand(artifactDownloadCmd)
	artifactCmd.AddCommand(artifactListCmd)
	artifactCmd.AddCommand(artifactPublishCmd)
	artifactCmd.AddCommand(artifactUnpublishCmd)
	artifactCmd.AddCommand(artifactDeleteCmd)
	rootCmd.AddCommand(artifactCmd)
}
