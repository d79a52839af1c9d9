package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer represents a customer of the shop
type Customer struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name    string `gorm:"type:varchar(255)" json:"name"`
	Phone   string `gorm:"type:varchar(50);index" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
	Address string `gorm:"type:text" json:"address"`

	// Relationships
	FinancialProfile *CustomerFinancialProfile `gorm:"foreignKey:CustomerID" json:"financial_profile,omitempty"`
	InstallmentPlans []InstallmentPlan         `gorm:"foreignKey:CustomerID" json:"installment_plans,omitempty"`
}

// ExistingLoan is one outstanding obligation declared by the customer during
// the financing application.
type ExistingLoan struct {
	Creditor       string          `json:"creditor"`
	Amount         decimal.Decimal `json:"amount"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

// CustomerFinancialProfile holds the KYC and financial attributes collected
// when a customer applies for financing. One per customer. Profiles are a
// financial/audit record and are never hard-deleted.
type CustomerFinancialProfile struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CustomerID uint `gorm:"uniqueIndex" json:"customer_id"`

	// Identity
	NationalID       string     `gorm:"type:varchar(50);uniqueIndex" json:"national_id"`
	NationalIDIssue  *time.Time `json:"national_id_issue_date"`
	NationalIDExpiry *time.Time `json:"national_id_expiry_date"`

	// Banking
	BankName          string `gorm:"type:varchar(255)" json:"bank_name"`
	BankBranch        string `gorm:"type:varchar(255)" json:"bank_branch"`
	BankAccountNumber string `gorm:"type:varchar(100)" json:"bank_account_number"`
	BankAccountHolder string `gorm:"type:varchar(255)" json:"bank_account_holder"`
	BankSwiftCode     string `gorm:"type:varchar(20)" json:"bank_swift_code"`

	// Employment
	CompanyName         string          `gorm:"type:varchar(255)" json:"company_name"`
	CompanyAddress      string          `gorm:"type:text" json:"company_address"`
	CompanyContact      string          `gorm:"type:varchar(100)" json:"company_contact"`
	JobPosition         string          `gorm:"type:varchar(255)" json:"job_position"`
	MonthlyIncome       decimal.Decimal `gorm:"type:decimal(15,2)" json:"monthly_income"`
	EmploymentStartDate *time.Time      `json:"employment_start_date"`
	SupervisorContact   string          `gorm:"type:varchar(100)" json:"supervisor_contact"`

	// Liabilities
	HasExistingLoans        bool            `gorm:"default:false" json:"has_existing_loans"`
	ExistingLoans           []ExistingLoan  `gorm:"serializer:json" json:"existing_loans"`
	TotalMonthlyObligations decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_monthly_obligations"`

	// Credit
	CreditScore  int    `json:"credit_score"`
	CreditRating string `gorm:"type:varchar(20)" json:"credit_rating"`

	// Verification
	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	VerifiedAt   *time.Time `json:"verified_at"`
	VerifiedByID *uint      `json:"verified_by_id"`

	// Relationships
	Customer   Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	VerifiedBy *User    `gorm:"foreignKey:VerifiedByID" json:"verified_by,omitempty"`
}
