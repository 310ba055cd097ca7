package cmd

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tumcps/tupli/pkg/schema"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles",
}

var roleDescription string

var roleCreateCmd = &cobra.Command{
	Use:   "create <name> <right>...",
	Short: "Create a role from a set of rights",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := schema.Role{Role: args[0], Description: roleDescription}
		for _, right := range args[1:] {
			role.Rights = append(role.Rights, schema.Right(right))
		}
		client, err := httpClient()
		if err != nil {
			return err
		}
		created, err := client.CreateRole(cmd.Context(), role)
		if err != nil {
			return err
		}
		return printJSON(created)
	},
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		roles, err := client.ListRoles(cmd.Context())
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithData(roleTable(roles)).Render()
	},
}

func roleTable(roles []schema.Role) pterm.TableData {
	table := pterm.TableData{{"ROLE", "RIGHTS", "DESCRIPTION"}}
	for _, role := range roles {
		rights := make([]string, len(role.Rights))
		for i, r := range role.Rights {
			rights[i] = string(r)
		}
		table = append(table, []string{role.Role, strings.Join(rights, ","), role.Description})
	}
	return table
}

var roleDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		if err := client.DeleteRole(cmd.Context(), args[0]); err != nil {
			return err
		}
		pterm.Success.Printf("Deleted role %s\n", args[0])
		return nil
	},
}

func init() {
	roleCreateCmd.Flags().StringVar(&roleDescription, "description", "", "Role description")

	roleCmd.AddCommand(roleCreateCmd)
	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleDeleteCmd)
	rootCmd.AddCommand(roleCmd)
}
