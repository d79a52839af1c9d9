package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentPaymentStatus is the lifecycle state of one installment. LATE
// still accepts money; PAID and DEFAULTED are terminal.
type InstallmentPaymentStatus string

const (
	PaymentStatusPending   InstallmentPaymentStatus = "PENDING"
	PaymentStatusPaid      InstallmentPaymentStatus = "PAID"
	PaymentStatusLate      InstallmentPaymentStatus = "LATE"
	PaymentStatusDefaulted InstallmentPaymentStatus = "DEFAULTED"
)

// CanTransitionTo reports whether the payment status may move to next.
func (s InstallmentPaymentStatus) CanTransitionTo(next InstallmentPaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusPaid || next == PaymentStatusLate || next == PaymentStatusDefaulted
	case PaymentStatusLate:
		return next == PaymentStatusPaid || next == PaymentStatusDefaulted
	}
	return false
}

// Settleable reports whether money may still be applied to a payment in
// state s.
func (s InstallmentPaymentStatus) Settleable() bool {
	return s == PaymentStatusPending || s == PaymentStatusLate
}

// InstallmentPayment is one scheduled installment under a plan. The full
// schedule is generated with the plan; rows are never deleted, even for
// cancelled plans (audit trail).
type InstallmentPayment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PaymentNumber string `gorm:"type:varchar(100);uniqueIndex" json:"payment_number"`

	PlanID uint `gorm:"index;uniqueIndex:idx_plan_installment_no" json:"plan_id"`
	// 1-based position in the schedule, contiguous per plan
	InstallmentNumber int `gorm:"uniqueIndex:idx_plan_installment_no" json:"installment_number"`

	DueDate time.Time `gorm:"index" json:"due_date"`

	// amount_due is fixed at creation; the final installment absorbs the
	// rounding remainder so the schedule sums exactly to the financed amount.
	AmountDue       decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount_due"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount_paid"`
	LateFee         decimal.Decimal `gorm:"type:decimal(15,2)" json:"late_fee"`
	TotalAmountPaid decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_amount_paid"`

	Status InstallmentPaymentStatus `gorm:"type:varchar(20);index" json:"status"`

	// Overdue tracking. overdue_since is set once, on first detection.
	DaysOverdue  int        `json:"days_overdue"`
	OverdueSince *time.Time `json:"overdue_since"`

	PaymentDate      *time.Time `json:"payment_date"`
	PaymentMethod    string     `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentReference *string    `gorm:"type:varchar(100);uniqueIndex" json:"payment_reference"`
	ReceivedByID     *uint      `json:"received_by_id"`

	// Notification flags. Each flag is set once, transactionally, when the
	// corresponding dispatch is recorded; the timestamp is stamped by the
	// worker on confirmed send.
	ReminderSent           bool       `gorm:"default:false" json:"reminder_sent"`
	ReminderSentAt         *time.Time `json:"reminder_sent_at"`
	LateNotificationSent   bool       `gorm:"default:false" json:"late_notification_sent"`
	LateNotificationSentAt *time.Time `json:"late_notification_sent_at"`
	OwnerNotified          bool       `gorm:"default:false" json:"owner_notified"`
	OwnerNotifiedAt        *time.Time `json:"owner_notified_at"`
	BankNotified           bool       `gorm:"default:false" json:"bank_notified"`
	BankNotifiedAt         *time.Time `json:"bank_notified_at"`
	EmployerNotified       bool       `gorm:"default:false" json:"employer_notified"`
	EmployerNotifiedAt     *time.Time `json:"employer_notified_at"`

	// Relationships
	Plan       InstallmentPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	ReceivedBy *User           `gorm:"foreignKey:ReceivedByID" json:"received_by,omitempty"`
}

// RequiredToSettle is the amount that must be accumulated in amount_paid for
// the payment to become PAID: the amount due plus any assessed late fee.
func (p *InstallmentPayment) RequiredToSettle() decimal.Decimal {
	return p.AmountDue.Add(p.LateFee)
}
