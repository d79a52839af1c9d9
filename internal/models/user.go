package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a staff member
type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleManager UserRole = "MANAGER"
	UserRoleCashier UserRole = "CASHIER"
)

// User represents a staff member who operates the system. Customers are not
// users; they are modeled separately.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name         string   `gorm:"type:varchar(255)" json:"name"`
	Phone        string   `gorm:"type:varchar(50)" json:"phone"`
	Email        string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Role         UserRole `gorm:"type:varchar(20);default:'CASHIER'" json:"role"`
	PasswordHash string   `gorm:"type:varchar(255)" json:"-"`
	IsActive     bool     `gorm:"default:true" json:"is_active"`
}
