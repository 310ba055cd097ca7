package iam

import (
	"context"

	"github.com/google/uuid"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/pkg/schema"
)

var builtinRoles = map[string]bool{
	schema.RoleAdmin:        true,
	schema.RoleContentAdmin: true,
	schema.RoleContributor:  true,
	schema.RoleGuest:        true,
}

// CreateRole registers a new role. Rights must come from the closed
// enumeration.
func (s *iamService) CreateRole(ctx context.Context, caller *Caller, role schema.Role) (schema.Role, error) {
	if !caller.HasInScope(schema.GroupGlobal, schema.RoleCreate) {
		return schema.Role{}, schema.Forbiddenf("Insufficient rights to create roles")
	}
	if role.Role == "" {
		return schema.Role{}, schema.Validationf("role name is required")
	}
	names := make(models.StringList, len(role.Rights))
	for i, r := range role.Rights {
		if !schema.ValidRight(r) {
			return schema.Role{}, schema.Validationf("unknown right %q", r)
		}
		names[i] = string(r)
	}

	row := &models.Role{
		ID:          uuid.NewString(),
		Name:        role.Role,
		Description: role.Description,
		Rights:      names,
	}
	if err := s.roles.Create(ctx, row); err != nil {
		return schema.Role{}, err
	}
	s.roleCache.Remove(role.Role)
	return row.ToSchema(), nil
}

// ListRoles returns all roles.
func (s *iamService) ListRoles(ctx context.Context, caller *Caller) ([]schema.Role, error) {
	if !caller.HasInScope(schema.GroupGlobal, schema.RoleRead) {
		return nil, schema.Forbiddenf("Insufficient rights to list roles")
	}
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Role, len(roles))
	for i := range roles {
		out[i] = roles[i].ToSchema()
	}
	return out, nil
}

// DeleteRole removes a role. Builtin roles are protected; memberships
// referencing a deleted role simply stop granting rights.
func (s *iamService) DeleteRole(ctx context.Context, caller *Caller, name string) error {
	if !caller.HasInScope(schema.GroupGlobal, schema.RoleDelete) {
		return schema.Forbiddenf("Insufficient rights to delete roles")
	}
	if builtinRoles[name] {
		return schema.Forbiddenf("Cannot delete builtin role")
	}
	if err := s.roles.Delete(ctx, name); err != nil {
		return err
	}
	s.roleCache.Remove(name)
	return nil
}
