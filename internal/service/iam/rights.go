package iam

import (
	"context"

	"github.com/tumcps/tupli/pkg/schema"
)

// Caller is an authenticated principal with fully resolved rights. The
// map is built once per request and consulted for every decision.
type Caller struct {
	User          schema.User
	RightsByGroup map[string]schema.RightSet
}

// IsSuperuser reports whether the caller holds every right in the global
// scope, which bypasses ownership and publication checks.
func (c *Caller) IsSuperuser() bool {
	return c.RightsByGroup[schema.GroupGlobal] == schema.AllRights
}

// HasInScope reports whether the caller holds the right within the group.
func (c *Caller) HasInScope(group string, r schema.Right) bool {
	return c.RightsByGroup[group].Has(r)
}

// HasInPersonal reports whether the caller holds the right in their
// personal group, the ownership path of every resource decision.
func (c *Caller) HasInPersonal(r schema.Right) bool {
	return c.HasInScope(c.User.Username, r)
}

// ReadableScopes lists the groups in which the caller holds the right,
// used as the visibility set for list queries.
func (c *Caller) ReadableScopes(r schema.Right) []string {
	scopes := make([]string, 0, len(c.RightsByGroup))
	for group, rights := range c.RightsByGroup {
		if rights.Has(r) {
			scopes = append(scopes, group)
		}
	}
	return scopes
}

// CanOnResource decides read/delete access to a stored resource: the
// ownership path, then any published scope the caller holds the right in.
func (c *Caller) CanOnResource(createdBy string, publishedIn []string, r schema.Right) bool {
	if c.IsSuperuser() {
		return true
	}
	if createdBy == c.User.Username && c.HasInPersonal(r) {
		return true
	}
	for _, group := range publishedIn {
		if c.HasInScope(group, r) {
			return true
		}
	}
	return false
}

// resolveCaller loads the user and folds their memberships into a rights
// map. Every caller additionally holds the guest role in the global scope.
func (s *iamService) resolveCaller(ctx context.Context, username string) (*Caller, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	rights := make(map[string]schema.RightSet)
	for _, m := range user.Memberships {
		for _, roleName := range m.Roles {
			set, err := s.roleRights(ctx, roleName)
			if err != nil {
				if schema.IsNotFound(err) {
					// Membership referencing a deleted role grants nothing.
					continue
				}
				return nil, err
			}
			rights[m.Group] = rights[m.Group].Union(set)
		}
	}

	guest, err := s.roleRights(ctx, schema.RoleGuest)
	if err != nil && !schema.IsNotFound(err) {
		return nil, err
	}
	rights[schema.GroupGlobal] = rights[schema.GroupGlobal].Union(guest)

	return &Caller{User: user.ToSchema(), RightsByGroup: rights}, nil
}

// roleRights resolves a role name to its right-set through the LRU cache.
func (s *iamService) roleRights(ctx context.Context, name string) (schema.RightSet, error) {
	if set, ok := s.roleCache.Get(name); ok {
		return set, nil
	}
	role, err := s.roles.GetByName(ctx, name)
	if err != nil {
		return 0, err
	}
	set := role.RightSet()
	s.roleCache.Add(name, set)
	return set, nil
}
