// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID string

type Role string

const (
	RoleSys      Role = "sys"
	RoleAdmin    Role = "admin"
	RoleHost     Role = "host"
	RoleJudge    Role = "judge"
	RoleObserver Role = "observer"
	RoleDelegate Role = "delegate"
	RoleStudent  Role = "student"
)

// roleOrder drives roster sorting: privileged roles first.
var roleOrder = map[Role]int{
	RoleSys:      1,
	RoleAdmin:    2,
	RoleHost:     3,
	RoleJudge:    4,
	RoleObserver: 5,
	RoleDelegate: 6,
	RoleStudent:  7,
}

func (r Role) Valid() bool {
	_, ok := roleOrder[r]
	return ok
}

// Order returns the sort rank of the role, unknown roles last.
func (r Role) Order() int {
	if o, ok := roleOrder[r]; ok {
		return o
	}
	return 999
}

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username string, role Role) (*User, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &User{ID: UserID(uuid.NewString()), Username: username, Role: role}, nil
}
