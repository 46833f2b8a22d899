package user

import (
	"time"
)

// Role is one of the two fixed permission sets.
type Role string

const (
	RoleAuditor    Role = "auditor"
	RoleTransactor Role = "transactor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAuditor || r == RoleTransactor
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Caller is the trusted identity resolved by the authentication layer for a
// single request.
type Caller struct {
	ID   int64
	Role Role
}

func (c Caller) IsAuditor() bool {
	return c.Role == RoleAuditor
}

func (c Caller) IsTransactor() bool {
	return c.Role == RoleTransactor
}

// Caller returns the request identity for u.
func (u *User) Caller() Caller {
	return Caller{ID: u.ID, Role: u.Role}
}

type CreateUserParams struct {
	Username     string
	PasswordHash string
	Role         Role
}
