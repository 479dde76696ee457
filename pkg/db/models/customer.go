package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the saved-profile target for the save-address step of
// submission. Email is the lookup key.
type Customer struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name        string    `gorm:"column:name;type:text;not null;default:''"`
	Phone       string    `gorm:"column:phone;type:text;not null;default:''"`
	AddressLine string    `gorm:"column:address_line;type:text;not null;default:''"`
	Barangay    string    `gorm:"column:barangay;type:text;not null;default:''"`
	City        string    `gorm:"column:city;type:text;not null;default:''"`
	PostalCode  string    `gorm:"column:postal_code;type:text;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
