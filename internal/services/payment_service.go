package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NextWave-98/installment-service/internal/models"
)

// paymentRefGuardTTL bounds how long a payment reference holds its Redis
// double-submission guard before the unique index takes over alone.
const paymentRefGuardTTL = 15 * time.Minute

// PaymentService records money received against installments. It is the only
// writer of a payment's amount_paid and status; concurrent applications on
// the same plan are serialized through a FOR UPDATE lock on the plan row.
type PaymentService struct {
	db    *gorm.DB
	cache *RedisCache
	now   func() time.Time
}

func NewPaymentService(db *gorm.DB, cache *RedisCache) *PaymentService {
	return &PaymentService{db: db, cache: cache, now: time.Now}
}

// ApplyPaymentInput describes one application of received money.
// PaymentReference is the caller's external transaction id; when set it is
// the deduplication key for retried submissions.
type ApplyPaymentInput struct {
	PaymentID        uint
	Amount           decimal.Decimal
	PaymentMethod    string
	PaymentReference string
	ReceivedByID     *uint
}

// ApplyPayment applies money to a PENDING or LATE installment of an ACTIVE
// plan and rolls the plan aggregates forward in the same transaction. The
// operation is all-or-nothing; any error leaves no partial state.
func (s *PaymentService) ApplyPayment(ctx context.Context, in ApplyPaymentInput) (*models.InstallmentPayment, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: payment_method is required", ErrValidation)
	}

	// Fast double-submission guard. The DB unique index on payment_reference
	// is the authority; this just rejects racing duplicates before they
	// contend for the plan lock. Guard errors are ignored (best effort).
	if in.PaymentReference != "" && s.cache != nil {
		ok, err := s.cache.SetNX(ctx, "payment-ref:"+in.PaymentReference, 1, paymentRefGuardTTL)
		if err == nil && !ok {
			return nil, fmt.Errorf("%w: payment reference %s already submitted", ErrConflict, in.PaymentReference)
		}
	}

	var payment models.InstallmentPayment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&payment, in.PaymentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: payment %d", ErrNotFound, in.PaymentID)
			}
			return err
		}

		var plan models.InstallmentPlan
		if err := lockForUpdate(tx).First(&plan, payment.PlanID).Error; err != nil {
			return err
		}

		if plan.Status != models.PlanStatusActive {
			return fmt.Errorf("%w: plan %s is %s, not accepting payments", ErrInvalidState, plan.PlanNumber, plan.Status)
		}
		if !payment.Status.Settleable() {
			return fmt.Errorf("%w: payment %s is %s", ErrInvalidState, payment.PaymentNumber, payment.Status)
		}

		if in.PaymentReference != "" {
			var count int64
			if err := tx.Model(&models.InstallmentPayment{}).
				Where("payment_reference = ?", in.PaymentReference).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: payment reference %s already used", ErrConflict, in.PaymentReference)
			}
		}

		now := s.now()
		assessLateFee(&payment, &plan, now)

		payment.AmountPaid = payment.AmountPaid.Add(in.Amount)
		payment.TotalAmountPaid = payment.AmountPaid.Add(payment.LateFee)
		payment.PaymentMethod = in.PaymentMethod
		if in.PaymentReference != "" {
			ref := in.PaymentReference
			payment.PaymentReference = &ref
		}
		if in.ReceivedByID != nil {
			payment.ReceivedByID = in.ReceivedByID
		}

		switch {
		case payment.AmountPaid.GreaterThanOrEqual(payment.RequiredToSettle()):
			if !payment.Status.CanTransitionTo(models.PaymentStatusPaid) {
				return fmt.Errorf("%w: payment %s cannot move from %s to PAID", ErrInvalidState, payment.PaymentNumber, payment.Status)
			}
			payment.Status = models.PaymentStatusPaid
			if payment.PaymentDate == nil {
				payment.PaymentDate = &now
			}
		case overdueAsOf(payment.DueDate, now):
			if payment.Status == models.PaymentStatusPending {
				payment.Status = models.PaymentStatusLate
			}
			payment.DaysOverdue = daysPastDue(payment.DueDate, now)
		}

		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		if err := recomputePlanAggregates(tx, &plan); err != nil {
			return err
		}

		if plan.PaymentsCompleted == plan.NumberOfInstallments && plan.Status.CanTransitionTo(models.PlanStatusCompleted) {
			plan.Status = models.PlanStatusCompleted
			plan.CompletedAt = &now
		}

		return tx.Save(&plan).Error
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, PlanCacheKey(payment.PlanID))
	}
	return &payment, nil
}

// GetPayment fetches a single payment.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uint) (*models.InstallmentPayment, error) {
	var payment models.InstallmentPayment
	if err := s.db.WithContext(ctx).First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		return nil, err
	}
	return &payment, nil
}

// assessLateFee computes the late fee the first time a payment is seen past
// its due date. The fee is fixed once assessed; re-running is a no-op.
func assessLateFee(payment *models.InstallmentPayment, plan *models.InstallmentPlan, asOf time.Time) {
	if payment.OverdueSince != nil || !overdueAsOf(payment.DueDate, asOf) {
		return
	}
	hundred := decimal.NewFromInt(100)
	payment.LateFee = plan.LateFeeFixed.Add(
		plan.LateFeePercentage.Div(hundred).Mul(payment.AmountDue)).Round(2)
	due := payment.DueDate
	payment.OverdueSince = &due
	payment.DaysOverdue = daysPastDue(payment.DueDate, asOf)
	payment.TotalAmountPaid = payment.AmountPaid.Add(payment.LateFee)
}

// recomputePlanAggregates rebuilds the cached plan totals from the payment
// rows. Always called inside the plan-locked transaction so the cache cannot
// drift from its source.
func recomputePlanAggregates(tx *gorm.DB, plan *models.InstallmentPlan) error {
	var payments []models.InstallmentPayment
	if err := tx.Where("plan_id = ?", plan.ID).Find(&payments).Error; err != nil {
		return err
	}

	totalPaid := decimal.Zero
	completed := 0
	missed := 0
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.AmountPaid)
		switch p.Status {
		case models.PaymentStatusPaid:
			completed++
		case models.PaymentStatusLate, models.PaymentStatusDefaulted:
			missed++
		}
	}

	plan.TotalPaid = totalPaid
	plan.TotalOutstanding = plan.FinancedAmount.Sub(totalPaid)
	plan.PaymentsCompleted = completed
	plan.PaymentsMissed = missed
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// overdueAsOf reports whether a due date has passed, at day granularity: a
// payment is overdue starting the day after its due date.
func overdueAsOf(due, asOf time.Time) bool {
	return startOfDay(asOf).After(startOfDay(due))
}

func daysPastDue(due, asOf time.Time) int {
	if !overdueAsOf(due, asOf) {
		return 0
	}
	return int(startOfDay(asOf).Sub(startOfDay(due)).Hours() / 24)
}
