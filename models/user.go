package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an API user allowed to read stored runs. Password is a bcrypt hash.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int        `bun:"id,pk,autoincrement" json:"id"`
	Username   string     `bun:"username,notnull,unique" json:"username"`
	Password   string     `bun:"password,notnull" json:"-"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	LastSignin *time.Time `bun:"last_signin" json:"lastSignin,omitempty"`
}
