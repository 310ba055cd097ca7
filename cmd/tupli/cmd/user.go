package cmd

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tumcps/tupli/pkg/schema"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts (admin)",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authUsername == "" {
			return fmt.Errorf("--username is required")
		}
		password, err := promptPassword()
		if err != nil {
			return err
		}
		client, err := httpClient()
		if err != nil {
			return err
		}
		user, err := client.CreateUser(cmd.Context(), authUsername, password)
		if err != nil {
			return err
		}
		return printJSON(user)
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		users, err := client.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithData(userTable(users)).Render()
	},
}

func userTable(users []schema.User) pterm.TableData {
	table := pterm.TableData{{"USERNAME", "MEMBERSHIPS"}}
	for _, user := range users {
		memberships := make([]string, len(user.Memberships))
		for i, m := range user.Memberships {
			memberships[i] = m.Group + "=" + strings.Join(m.Roles, ",")
		}
		table = append(table, []string{user.Username, strings.Join(memberships, " ")})
	}
	return table
}

var userChangePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change a user's password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authUsername == "" {
			return fmt.Errorf("--username is required")
		}
		password, err := promptPassword()
		if err != nil {
			return err
		}
		client, err := httpClient()
		if err != nil {
			return err
		}
		user, err := client.ChangePassword(cmd.Context(), authUsername, password)
		if err != nil {
			return err
		}
		return printJSON(user)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user and their private resources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		if err := client.DeleteUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		pterm.Success.Printf("Deleted user %s\n", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{userCreateCmd, userChangePasswordCmd} {
		c.Flags().StringVar(&authUsername, "username", "", "Account username")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
	}

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userChangePasswordCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}
