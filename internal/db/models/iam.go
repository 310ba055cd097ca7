package models

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/tumcps/tupli/pkg/schema"
)

// User represents a registered principal. The username doubles as the name
// of the user's personal publication group.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string         `bun:"id,pk,type:uuid"`
	Username     string         `bun:"username,notnull,unique"`
	PasswordHash string         `bun:"password_hash,notnull"` // bcrypt
	Memberships  MembershipList `bun:"memberships,type:jsonb,notnull,default:'[]'"`
	CreatedAt    time.Time      `bun:"created_at,notnull,default:current_timestamp"`
}

// ToSchema converts to the wire document, without password material.
func (u *User) ToSchema() schema.User {
	memberships := make([]schema.Membership, len(u.Memberships))
	copy(memberships, u.Memberships)
	return schema.User{Username: u.Username, Memberships: memberships}
}

// Role names a reusable set of rights.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID          string     `bun:"id,pk,type:uuid"`
	Name        string     `bun:"name,notnull,unique"`
	Description string     `bun:"description"`
	Rights      StringList `bun:"rights,type:jsonb,notnull,default:'[]'"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

// ToSchema converts to the wire document.
func (r *Role) ToSchema() schema.Role {
	rights := make([]schema.Right, len(r.Rights))
	for i, name := range r.Rights {
		rights[i] = schema.Right(name)
	}
	return schema.Role{Role: r.Name, Description: r.Description, Rights: rights}
}

// RightSet collapses the stored right names into a bit-set.
func (r *Role) RightSet() schema.RightSet {
	var s schema.RightSet
	for _, name := range r.Rights {
		s = s.Union(schema.NewRightSet(schema.Right(name)))
	}
	return s
}

// Group is a named publication scope. Personal groups share the row shape
// with explicitly created groups.
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:g"`

	ID          string    `bun:"id,pk,type:uuid"`
	Name        string    `bun:"name,notnull,unique"`
	Description *string   `bun:"description"`
	CreatedBy   string    `bun:"created_by,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ToSchema converts to the wire document.
func (g *Group) ToSchema() schema.Group {
	return schema.Group{Name: g.Name, Description: g.Description, CreatedBy: g.CreatedBy}
}
