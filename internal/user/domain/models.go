package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleHost  Role = "HOST"
	RoleAdmin Role = "ADMIN"
)

// User is managed by the auth collaborator; this core only reads it for
// ownership checks and provider order customer details.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null;uniqueIndex" json:"email"`
	Role      Role         `gorm:"type:text;not null;default:USER" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Requester identifies the authenticated caller as asserted by the gateway.
type Requester struct {
	ID   snowflake.ID
	Role Role
}

func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}
