package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pmdelrosario/merkado-backend/pkg/enums"
)

// StaffUser is an admin-surface account. Passwords are argon2id hashes.
type StaffUser struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name         string          `gorm:"column:name;type:text;not null;default:''"`
	PasswordHash string          `gorm:"column:password_hash;type:text;not null"`
	Role         enums.StaffRole `gorm:"column:role;type:text;not null;default:'staff'"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
