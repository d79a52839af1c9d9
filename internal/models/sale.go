package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is the originating sale of an installment plan. Plans only reference
// sales; nothing in the financing flow mutates them.
type Sale struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SaleNumber  string          `gorm:"type:varchar(100);uniqueIndex" json:"sale_number"`
	CustomerID  uint            `gorm:"index" json:"customer_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_amount"`
	SaleDate    time.Time       `json:"sale_date"`
	SoldByID    *uint           `json:"sold_by_id"`

	// Relationships
	Customer Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	SoldBy   *User    `gorm:"foreignKey:SoldByID" json:"sold_by,omitempty"`
}
