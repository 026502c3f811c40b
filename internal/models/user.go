package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleCandidate  UserRole = "candidate"
	RoleTestAdmin  UserRole = "test_admin"
	RoleOrgAdmin   UserRole = "org_admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// User is an authenticated platform user. The string ID matches the subject
// claim issued by the identity provider.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"size:30;default:candidate"`

	OrganizationID *uint `json:"organization_id" gorm:"index"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
