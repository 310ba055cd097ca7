package iam

import (
	"context"

	"github.com/google/uuid"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/pkg/schema"
)

// CreateGroup registers a new publication scope. Every authenticated user
// may create groups; the creator becomes the group's admin.
func (s *iamService) CreateGroup(ctx context.Context, caller *Caller, group schema.Group) (schema.Group, error) {
	if group.Name == "" {
		return schema.Group{}, schema.Validationf("group name is required")
	}
	// Usernames double as personal scopes, so group names must not
	// collide with them.
	if _, err := s.users.GetByUsername(ctx, group.Name); err == nil {
		return schema.Group{}, schema.Conflictf("Group already exists")
	} else if !schema.IsNotFound(err) {
		return schema.Group{}, err
	}

	row := &models.Group{
		ID:          uuid.NewString(),
		Name:        group.Name,
		Description: group.Description,
		CreatedBy:   caller.User.Username,
	}
	if err := s.groups.Create(ctx, row); err != nil {
		return schema.Group{}, err
	}

	memberships := append(append([]schema.Membership(nil), caller.User.Memberships...),
		schema.Membership{Group: group.Name, Roles: []string{schema.RoleAdmin}})
	if err := s.users.UpdateMemberships(ctx, caller.User.Username, memberships); err != nil {
		return schema.Group{}, err
	}
	return row.ToSchema(), nil
}

// ListGroups returns the groups the caller belongs to plus the global
// scope. Superusers see every group.
func (s *iamService) ListGroups(ctx context.Context, caller *Caller) ([]schema.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Group, 0, len(groups))
	for i := range groups {
		if caller.IsSuperuser() || groups[i].Name == schema.GroupGlobal {
			out = append(out, groups[i].ToSchema())
			continue
		}
		if _, ok := caller.User.MembershipIn(groups[i].Name); ok {
			out = append(out, groups[i].ToSchema())
		}
	}
	return out, nil
}

// ReadGroup returns a group with its member list, the creator first.
func (s *iamService) ReadGroup(ctx context.Context, caller *Caller, name string) (schema.GroupWithMembers, error) {
	group, err := s.groups.GetByName(ctx, name)
	if err != nil {
		return schema.GroupWithMembers{}, err
	}
	if !caller.IsSuperuser() && !caller.HasInScope(name, schema.GroupRead) {
		return schema.GroupWithMembers{}, schema.Forbiddenf("Insufficient rights to read this group")
	}

	users, err := s.users.ListByGroup(ctx, name)
	if err != nil {
		return schema.GroupWithMembers{}, err
	}
	members := make([]string, 0, len(users))
	for _, u := range users {
		if u.Username == group.CreatedBy {
			continue
		}
		members = append(members, u.Username)
	}
	if group.CreatedBy != "system" {
		members = append([]string{group.CreatedBy}, members...)
	}

	return schema.GroupWithMembers{Group: group.ToSchema(), Members: members}, nil
}

// DeleteGroup removes a group, its memberships, and its appearances in
// publication sets. The global scope cannot be deleted.
func (s *iamService) DeleteGroup(ctx context.Context, caller *Caller, name string) error {
	if name == schema.GroupGlobal {
		return schema.Forbiddenf("Cannot delete global group")
	}
	// Personal groups live and die with their user.
	if _, err := s.users.GetByUsername(ctx, name); err == nil {
		return schema.Forbiddenf("Cannot delete a personal group")
	} else if !schema.IsNotFound(err) {
		return err
	}
	if _, err := s.groups.GetByName(ctx, name); err != nil {
		return err
	}
	if !caller.IsSuperuser() && !caller.HasInScope(name, schema.GroupDelete) {
		return schema.Forbiddenf("Insufficient rights to delete this group")
	}

	if err := s.benchmarks.RemoveScope(ctx, name); err != nil {
		return err
	}
	if err := s.artifacts.RemoveScope(ctx, name); err != nil {
		return err
	}
	if err := s.episodes.RemoveScope(ctx, name); err != nil {
		return err
	}
	if err := s.users.RemoveGroupMemberships(ctx, name); err != nil {
		return err
	}
	return s.groups.Delete(ctx, name)
}

// AddMembers grants roles to users within a group. Entries without roles
// are skipped; unknown users or roles abort the whole request.
func (s *iamService) AddMembers(ctx context.Context, caller *Caller, query schema.GroupMembershipQuery) (schema.Group, error) {
	group, err := s.groups.GetByName(ctx, query.GroupName)
	if err != nil {
		return schema.Group{}, err
	}
	if !caller.IsSuperuser() && !caller.HasInScope(query.GroupName, schema.GroupUpdate) {
		return schema.Group{}, schema.Forbiddenf("Insufficient rights to modify this group")
	}

	for _, member := range query.Members {
		if len(member.Roles) == 0 {
			continue
		}
		user, err := s.users.GetByUsername(ctx, member.User)
		if err != nil {
			return schema.Group{}, err
		}
		for _, roleName := range member.Roles {
			if _, err := s.roles.GetByName(ctx, roleName); err != nil {
				return schema.Group{}, err
			}
		}

		memberships := make([]schema.Membership, 0, len(user.Memberships)+1)
		replaced := false
		for _, m := range user.Memberships {
			if m.Group == query.GroupName {
				memberships = append(memberships, schema.Membership{Group: query.GroupName, Roles: member.Roles})
				replaced = true
				continue
			}
			memberships = append(memberships, m)
		}
		if !replaced {
			memberships = append(memberships, schema.Membership{Group: query.GroupName, Roles: member.Roles})
		}
		if err := s.users.UpdateMemberships(ctx, member.User, memberships); err != nil {
			return schema.Group{}, err
		}
	}
	return group.ToSchema(), nil
}

// RemoveMembers revokes group memberships. Unknown users and non-members
// are tolerated.
func (s *iamService) RemoveMembers(ctx context.Context, caller *Caller, query schema.GroupMembershipQuery) (schema.Group, error) {
	group, err := s.groups.GetByName(ctx, query.GroupName)
	if err != nil {
		return schema.Group{}, err
	}
	if !caller.IsSuperuser() && !caller.HasInScope(query.GroupName, schema.GroupUpdate) {
		return schema.Group{}, schema.Forbiddenf("Insufficient rights to modify this group")
	}

	for _, member := range query.Members {
		user, err := s.users.GetByUsername(ctx, member.User)
		if err != nil {
			if schema.IsNotFound(err) {
				continue
			}
			return schema.Group{}, err
		}
		kept := make([]schema.Membership, 0, len(user.Memberships))
		changed := false
		for _, m := range user.Memberships {
			if m.Group == query.GroupName {
				changed = true
				continue
			}
			kept = append(kept, m)
		}
		if !changed {
			continue
		}
		if err := s.users.UpdateMemberships(ctx, member.User, kept); err != nil {
			return schema.Group{}, err
		}
	}
	return group.ToSchema(), nil
}
