package cmd

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tumcps/tupli/pkg/schema"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups and memberships",
}

var groupDescription string

var groupCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		group := schema.Group{Name: args[0]}
		if groupDescription != "" {
			group.Description = &groupDescription
		}
		created, err := client.CreateGroup(cmd.Context(), group)
		if err != nil {
			return err
		}
		return printJSON(created)
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups you belong to",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		groups, err := client.ListGroups(cmd.Context())
		if err != nil {
			return err
		}
		return pterm.DefaultTable.WithData(groupTable(groups)).Render()
	},
}

func groupTable(groups []schema.Group) pterm.TableData {
	table := pterm.TableData{{"NAME", "CREATED_BY", "DESCRIPTION"}}
	for _, g := range groups {
		description := ""
		if g.Description != nil {
			description = *g.Description
		}
		table = append(table, []string{g.Name, g.CreatedBy, description})
	}
	return table
}

var groupReadCmd = &cobra.Command{
	Use:   "read <name>",
	Short: "Show a group and its members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		group, err := client.ReadGroup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(group)
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		if err := client.DeleteGroup(cmd.Context(), args[0]); err != nil {
			return err
		}
		pterm.Success.Printf("Deleted group %s\n", args[0])
		return nil
	},
}

// parseMember turns "username=role1,role2" into a membership entry.
func parseMember(arg string) (schema.GroupMembership, error) {
	username, roles, found := strings.Cut(arg, "=")
	if username == "" {
		return schema.GroupMembership{}, fmt.Errorf("invalid member %q, expected username=role1,role2", arg)
	}
	member := schema.GroupMembership{User: username}
	if found && roles != "" {
		member.Roles = strings.Split(roles, ",")
	}
	return member, nil
}

var groupAddMembersCmd = &cobra.Command{
	Use:   "add-members <group> <username=role1,role2>...",
	Short: "Add members with roles to a group",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := schema.GroupMembershipQuery{GroupName: args[0]}
		for _, arg := range args[1:] {
			member, err := parseMember(arg)
			if err != nil {
				return err
			}
			query.Members = append(query.Members, member)
		}
		client, err := httpClient()
		if err != nil {
			return err
		}
		group, err := client.AddMembers(cmd.Context(), query)
		if err != nil {
			return err
		}
		return printJSON(group)
	},
}

var groupRemoveMembersCmd = &cobra.Command{
	Use:   "remove-members <group> <username>...",
	Short: "Remove members from a group",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := schema.GroupMembershipQuery{GroupName: args[0]}
		for _, username := range args[1:] {
			query.Members = append(query.Members, schema.GroupMembership{User: username})
		}
		client, err := httpClient()
		if err != nil {
			return err
		}
		group, err := client.RemoveMembers(cmd.Context(), query)
		if err != nil {
			return err
		}
		return printJSON(group)
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "Group description")

	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupReadCmd)
	groupCmd.AddCommand(groupDeleteCmd)
	groupCmd.AddCommand(groupAddMembersCmd)
	groupCmd.AddCommand(groupRemoveMembersCmd)
	rootCmd.AddCommand(groupCmd)
}
