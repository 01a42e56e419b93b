package model

import (
	"fmt"
	"time"

	"github.com/jacentio/dojo/internal/digest"
)

// Role is a user's permission level.
type Role string

const (
	RoleStandard Role = "Standard"
	RoleAdmin    Role = "Admin"
)

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	switch digest.UserKey(s) {
	case "standard", "sensei":
		return RoleStandard, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is a portal account. Key is the normalised lowercase Name.
type User struct {
	Name string `dynamodbav:"name" json:"name"`
	Key  string `dynamodbav:"primary_key" json:"-"`
	Hash uint64 `dynamodbav:"hash" json:"-"`
	Role Role   `dynamodbav:"role" json:"role"`
}

// NewUser builds a user with its key and password digest derived from name.
func NewUser(name, password string, role Role) User {
	return User{
		Name: name,
		Key:  digest.UserKey(name),
		Hash: digest.Password(name, password),
		Role: role,
	}
}

// CheckPassword reports whether password matches the stored digest.
func (u User) CheckPassword(password string) bool {
	return u.Hash == digest.Password(u.Name, password)
}

// SetPassword replaces the stored digest.
func (u *User) SetPassword(password string) {
	u.Hash = digest.Password(u.Name, password)
}

func (User) TableName() string    { return UsersTable }
func (User) KeyAttribute() string { return UserKeyAttribute }
func (u User) PrimaryKey() string { return u.Key }

// Session is a logged-in user. Sessions live in process memory only.
type Session struct {
	Token   string `dynamodbav:"token" json:"token"`
	Expires int64  `dynamodbav:"expires" json:"expires"`
	User    User   `dynamodbav:"user" json:"user"`
}

// Expired reports whether the session has expired at now.
func (s Session) Expired(now time.Time) bool {
	return s.Expires < now.Unix()
}

func (Session) TableName() string    { return SessionsTable }
func (Session) KeyAttribute() string { return SessionKeyAttribute }
func (s Session) PrimaryKey() string { return s.Token }
