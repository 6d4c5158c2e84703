package models

import (
	"github.com/uptrace/bun"
)

// User maps one row of the users table. Password holds whatever the
// configured hasher produced; it is never serialized as-is.
type User struct {
	bun.BaseModel `bun:"table:users"`

	UserID   int64  `bun:"user_id,pk,autoincrement" json:"user_id"`
	Name     string `bun:"user_name,notnull" json:"user_name"`
	Email    string `bun:"user_email,notnull" json:"user_email"`
	Password string `bun:"user_password,notnull" json:"-"`
}
