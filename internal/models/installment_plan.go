package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentFrequency is the spacing between scheduled installments
type InstallmentFrequency string

const (
	FrequencyWeekly   InstallmentFrequency = "WEEKLY"
	FrequencyBiweekly InstallmentFrequency = "BIWEEKLY"
	FrequencyMonthly  InstallmentFrequency = "MONTHLY"
)

// Valid reports whether f is one of the known frequencies.
func (f InstallmentFrequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// InstallmentPlanStatus is the lifecycle state of a plan. ACTIVE is the only
// non-terminal state.
type InstallmentPlanStatus string

const (
	PlanStatusActive    InstallmentPlanStatus = "ACTIVE"
	PlanStatusCompleted InstallmentPlanStatus = "COMPLETED"
	PlanStatusDefaulted InstallmentPlanStatus = "DEFAULTED"
	PlanStatusCancelled InstallmentPlanStatus = "CANCELLED"
)

// CanTransitionTo reports whether the plan status may move to next. Terminal
// states never transition.
func (s InstallmentPlanStatus) CanTransitionTo(next InstallmentPlanStatus) bool {
	if s != PlanStatusActive {
		return false
	}
	switch next {
	case PlanStatusCompleted, PlanStatusDefaulted, PlanStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal plan state.
func (s InstallmentPlanStatus) Terminal() bool {
	return s != PlanStatusActive
}

// InstallmentPlan represents one financing agreement. Financial and schedule
// terms are fixed at creation; the running aggregates are a cache recomputed
// from the payment rows inside every payment-write transaction.
type InstallmentPlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PlanNumber string `gorm:"type:varchar(100);uniqueIndex" json:"plan_number"`

	CustomerID         uint   `gorm:"index" json:"customer_id"`
	SaleID             *uint  `gorm:"index" json:"sale_id"`
	CreatedByID        *uint  `json:"created_by_id"`
	ProductDescription string `gorm:"type:text" json:"product_description"`

	// Financial terms. financed_amount == total_amount - down_payment holds
	// at creation and is never silently corrected.
	TotalAmount    decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_amount"`
	DownPayment    decimal.Decimal `gorm:"type:decimal(15,2)" json:"down_payment"`
	FinancedAmount decimal.Decimal `gorm:"type:decimal(15,2)" json:"financed_amount"`

	// Schedule terms
	NumberOfInstallments int                  `json:"number_of_installments"`
	InstallmentAmount    decimal.Decimal      `gorm:"type:decimal(15,2)" json:"installment_amount"`
	Frequency            InstallmentFrequency `gorm:"type:varchar(20)" json:"frequency"`

	// Fee terms. The late fee for one overdue installment is
	// late_fee_fixed + late_fee_percentage/100 * amount_due.
	InterestRate      decimal.Decimal `gorm:"type:decimal(8,4)" json:"interest_rate"`
	LateFeePercentage decimal.Decimal `gorm:"type:decimal(8,4)" json:"late_fee_percentage"`
	LateFeeFixed      decimal.Decimal `gorm:"type:decimal(15,2)" json:"late_fee_fixed"`

	StartDate        time.Time `json:"start_date"`
	FirstPaymentDate time.Time `json:"first_payment_date"`
	EndDate          time.Time `json:"end_date"`

	Status InstallmentPlanStatus `gorm:"type:varchar(20);index" json:"status"`

	// Running aggregates, recomputable from the payment rows
	TotalPaid         decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_paid"`
	TotalOutstanding  decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_outstanding"`
	PaymentsCompleted int             `json:"payments_completed"`
	PaymentsMissed    int             `json:"payments_missed"`

	CompletedAt        *time.Time `json:"completed_at"`
	DefaultedAt        *time.Time `json:"defaulted_at"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason"`

	// Relationships
	Customer  Customer             `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Sale      *Sale                `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
	CreatedBy *User                `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Payments  []InstallmentPayment `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}
