package iam

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/internal/repository"
	"github.com/tumcps/tupli/pkg/schema"
)

const bcryptCost = 12

// validateCredentials unpacks a credentials body, rejecting missing or
// empty fields.
func validateCredentials(creds schema.UserCredentials) (string, string, error) {
	if creds.Username == nil || *creds.Username == "" {
		return "", "", schema.Validationf("username is required")
	}
	if creds.Password == nil || *creds.Password == "" {
		return "", "", schema.Validationf("password is required")
	}
	return *creds.Username, *creds.Password, nil
}

// Signup registers a new user. Open to anonymous callers; the new user
// becomes admin of their personal publication scope.
func (s *iamService) Signup(ctx context.Context, creds schema.UserCredentials) (schema.User, error) {
	return s.createUser(ctx, creds)
}

// CreateUser registers a new user on behalf of an administrator.
func (s *iamService) CreateUser(ctx context.Context, caller *Caller, creds schema.UserCredentials) (schema.User, error) {
	if !caller.HasInScope(schema.GroupGlobal, schema.UserCreate) {
		return schema.User{}, schema.Forbiddenf("Insufficient rights to create users")
	}
	return s.createUser(ctx, creds)
}

func (s *iamService) createUser(ctx context.Context, creds schema.UserCredentials) (schema.User, error) {
	username, password, err := validateCredentials(creds)
	if err != nil {
		return schema.User{}, err
	}

	// The username names the personal publication scope, so it must not
	// collide with an existing group either.
	if _, err := s.groups.GetByName(ctx, username); err == nil {
		return schema.User{}, schema.Conflictf("User already exists")
	} else if !schema.IsNotFound(err) {
		return schema.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return schema.User{}, schema.StorageErr("hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Memberships: []schema.Membership{
			{Group: username, Roles: []string{schema.RoleAdmin}},
		},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return schema.User{}, err
	}
	if err := s.createPersonalGroup(ctx, username); err != nil {
		return schema.User{}, err
	}
	return user.ToSchema(), nil
}

// createPersonalGroup materializes the personal publication scope as a
// real group row, so it shows up in group listings like any other group.
func (s *iamService) createPersonalGroup(ctx context.Context, username string) error {
	group := &models.Group{
		ID:        uuid.NewString(),
		Name:      username,
		CreatedBy: username,
	}
	err := s.groups.Create(ctx, group)
	if schema.IsConflict(err) {
		// Lost a race against a concurrent signup of the same name; the
		// user insert already decided the winner.
		return nil
	}
	return err
}

// ListUsers returns all registered users.
func (s *iamService) ListUsers(ctx context.Context, caller *Caller) ([]schema.User, error) {
	if !caller.HasInScope(schema.GroupGlobal, schema.UserRead) {
		return nil, schema.Forbiddenf("Insufficient rights to list users")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schema.User, len(users))
	for i := range users {
		out[i] = users[i].ToSchema()
	}
	return out, nil
}

// ReadUser returns one user document. Callers may always read themselves.
func (s *iamService) ReadUser(ctx context.Context, caller *Caller, username string) (schema.User, error) {
	if caller.User.Username != username && !caller.HasInScope(schema.GroupGlobal, schema.UserRead) {
		return schema.User{}, schema.Forbiddenf("Insufficient rights to read users")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return schema.User{}, err
	}
	return user.ToSchema(), nil
}

// ChangePassword replaces a user's password. Callers may always change
// their own.
func (s *iamService) ChangePassword(ctx context.Context, caller *Caller, creds schema.UserCredentials) (schema.User, error) {
	username, password, err := validateCredentials(creds)
	if err != nil {
		return schema.User{}, err
	}
	if caller.User.Username != username && !caller.HasInScope(schema.GroupGlobal, schema.UserUpdate) {
		return schema.User{}, schema.Forbiddenf("Insufficient rights to change this password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return schema.User{}, schema.StorageErr("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, username, string(hash)); err != nil {
		return schema.User{}, err
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return schema.User{}, err
	}
	return user.ToSchema(), nil
}

// DeleteUser removes a user together with their private resources and
// their personal scope in other resources' publication sets. Resources
// published beyond the personal group survive, still attributed to the
// deleted username. Idempotent.
func (s *iamService) DeleteUser(ctx context.Context, caller *Caller, username string) error {
	if !caller.HasInScope(schema.GroupGlobal, schema.UserDelete) {
		return schema.Forbiddenf("Insufficient rights to delete users")
	}
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		if schema.IsNotFound(err) {
			return nil
		}
		return err
	}

	// Private benchmarks take their episodes with them, including
	// episodes recorded by other users. Published benchmarks stay.
	benchmarks, err := s.benchmarks.List(ctx, schema.EQ("created_by", username), repository.Visibility{All: true})
	if err != nil {
		return err
	}
	for _, b := range benchmarks {
		if !repository.PrivateScope(b.PublishedIn, username) {
			continue
		}
		if err := s.episodes.DeleteByBenchmark(ctx, b.ID); err != nil {
			return err
		}
		if err := s.benchmarks.Delete(ctx, b.ID); err != nil {
			return err
		}
	}
	if err := s.episodes.DeletePrivateByCreator(ctx, username); err != nil {
		return err
	}
	if err := s.artifacts.DeletePrivateByCreator(ctx, username); err != nil {
		return err
	}

	// The personal scope disappears with the user.
	if err := s.benchmarks.RemoveScope(ctx, username); err != nil {
		return err
	}
	if err := s.artifacts.RemoveScope(ctx, username); err != nil {
		return err
	}
	if err := s.episodes.RemoveScope(ctx, username); err != nil {
		return err
	}
	if err := s.users.RemoveGroupMemberships(ctx, username); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, username); err != nil && !schema.IsNotFound(err) {
		return err
	}

	return s.users.Delete(ctx, username)
}

// EnsureAdmin provisions the initial admin account with the admin role in
// the global scope. Idempotent.
func (s *iamService) EnsureAdmin(ctx context.Context, username, password string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !schema.IsNotFound(err) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return schema.StorageErr("hash password", err)
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Memberships: []schema.Membership{
			{Group: username, Roles: []string{schema.RoleAdmin}},
			{Group: schema.GroupGlobal, Roles: []string{schema.RoleAdmin}},
		},
	}
	err = s.users.Create(ctx, user)
	if schema.IsConflict(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.createPersonalGroup(ctx, username)
}
