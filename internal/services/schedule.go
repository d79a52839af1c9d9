package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NextWave-98/installment-service/internal/models"
)

// PlanService creates and cancels installment plans. A plan and its full
// payment schedule are committed in a single transaction; a partial schedule
// is never visible.
type PlanService struct {
	db    *gorm.DB
	cache *RedisCache
	now   func() time.Time
}

func NewPlanService(db *gorm.DB, cache *RedisCache) *PlanService {
	return &PlanService{db: db, cache: cache, now: time.Now}
}

// CreatePlanInput holds the financing terms for a new plan. FinancedAmount is
// optional; when given it must equal TotalAmount - DownPayment.
type CreatePlanInput struct {
	CustomerID         uint
	SaleID             *uint
	CreatedByID        *uint
	ProductDescription string

	TotalAmount    decimal.Decimal
	DownPayment    decimal.Decimal
	FinancedAmount decimal.Decimal

	NumberOfInstallments int
	Frequency            models.InstallmentFrequency

	InterestRate      decimal.Decimal
	LateFeePercentage decimal.Decimal
	LateFeeFixed      decimal.Decimal

	StartDate        time.Time
	FirstPaymentDate time.Time
}

func (in *CreatePlanInput) validate() error {
	if in.CustomerID == 0 {
		return fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	if !in.TotalAmount.IsPositive() {
		return fmt.Errorf("%w: total_amount must be positive", ErrValidation)
	}
	if in.DownPayment.IsNegative() {
		return fmt.Errorf("%w: down_payment must not be negative", ErrValidation)
	}
	if in.DownPayment.GreaterThanOrEqual(in.TotalAmount) {
		return fmt.Errorf("%w: down_payment must be less than total_amount", ErrValidation)
	}
	financed := in.TotalAmount.Sub(in.DownPayment)
	if !in.FinancedAmount.IsZero() && !in.FinancedAmount.Equal(financed) {
		return fmt.Errorf("%w: financed_amount must equal total_amount - down_payment", ErrValidation)
	}
	if in.NumberOfInstallments < 1 {
		return fmt.Errorf("%w: number_of_installments must be at least 1", ErrValidation)
	}
	if !in.Frequency.Valid() {
		return fmt.Errorf("%w: frequency must be one of WEEKLY, BIWEEKLY, MONTHLY", ErrValidation)
	}
	if in.InterestRate.IsNegative() || in.LateFeePercentage.IsNegative() || in.LateFeeFixed.IsNegative() {
		return fmt.Errorf("%w: rates and fees must not be negative", ErrValidation)
	}
	if in.StartDate.IsZero() || in.FirstPaymentDate.IsZero() {
		return fmt.Errorf("%w: start_date and first_payment_date are required", ErrValidation)
	}
	if in.FirstPaymentDate.Before(in.StartDate) {
		return fmt.Errorf("%w: first_payment_date must not be before start_date", ErrValidation)
	}
	return nil
}

// CreatePlan validates the terms, generates the payment schedule and commits
// the plan with all its payment rows atomically.
func (s *PlanService) CreatePlan(ctx context.Context, in CreatePlanInput) (*models.InstallmentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	financed := in.TotalAmount.Sub(in.DownPayment)
	n := in.NumberOfInstallments

	// Equal installments floored to cents; the final one absorbs the
	// remainder so the schedule sums exactly to the financed amount.
	base := financed.Div(decimal.NewFromInt(int64(n))).RoundFloor(2)
	last := financed.Sub(base.Mul(decimal.NewFromInt(int64(n - 1))))

	planNumber := fmt.Sprintf("INP-%s-%s",
		s.now().Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))

	plan := models.InstallmentPlan{
		PlanNumber:           planNumber,
		CustomerID:           in.CustomerID,
		SaleID:               in.SaleID,
		CreatedByID:          in.CreatedByID,
		ProductDescription:   in.ProductDescription,
		TotalAmount:          in.TotalAmount,
		DownPayment:          in.DownPayment,
		FinancedAmount:       financed,
		NumberOfInstallments: n,
		InstallmentAmount:    base,
		Frequency:            in.Frequency,
		InterestRate:         in.InterestRate,
		LateFeePercentage:    in.LateFeePercentage,
		LateFeeFixed:         in.LateFeeFixed,
		StartDate:            in.StartDate,
		FirstPaymentDate:     in.FirstPaymentDate,
		EndDate:              NthDueDate(in.FirstPaymentDate, in.Frequency, n-1),
		Status:               models.PlanStatusActive,
		TotalPaid:            decimal.Zero,
		TotalOutstanding:     financed,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, in.CustomerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: customer %d", ErrNotFound, in.CustomerID)
			}
			return err
		}
		if in.SaleID != nil {
			var sale models.Sale
			if err := tx.First(&sale, *in.SaleID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("%w: sale %d", ErrNotFound, *in.SaleID)
				}
				return err
			}
		}

		if err := tx.Create(&plan).Error; err != nil {
			return err
		}

		payments := make([]models.InstallmentPayment, 0, n)
		for i := 1; i <= n; i++ {
			due := base
			if i == n {
				due = last
			}
			payments = append(payments, models.InstallmentPayment{
				PaymentNumber:     fmt.Sprintf("%s-%03d", planNumber, i),
				PlanID:            plan.ID,
				InstallmentNumber: i,
				DueDate:           NthDueDate(in.FirstPaymentDate, in.Frequency, i-1),
				AmountDue:         due,
				AmountPaid:        decimal.Zero,
				LateFee:           decimal.Zero,
				TotalAmountPaid:   decimal.Zero,
				Status:            models.PaymentStatusPending,
			})
		}
		if err := tx.Create(&payments).Error; err != nil {
			return err
		}
		plan.Payments = payments
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePlanCache(ctx, plan.ID)
	return &plan, nil
}

// CancelPlan moves an ACTIVE plan to CANCELLED. Existing payment rows are left
// untouched (audit trail); applying money to a payment of a cancelled plan is
// rejected by PaymentService.
func (s *PlanService) CancelPlan(ctx context.Context, planID uint, reason string) (*models.InstallmentPlan, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: cancellation_reason is required", ErrValidation)
	}

	var plan models.InstallmentPlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&plan, planID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: plan %d", ErrNotFound, planID)
			}
			return err
		}
		if !plan.Status.CanTransitionTo(models.PlanStatusCancelled) {
			return fmt.Errorf("%w: cannot cancel plan in status %s", ErrInvalidState, plan.Status)
		}

		now := s.now()
		plan.Status = models.PlanStatusCancelled
		plan.CancelledAt = &now
		plan.CancellationReason = reason
		return tx.Save(&plan).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePlanCache(ctx, plan.ID)
	return &plan, nil
}

// GetPlan fetches a plan with its payments ordered by installment number.
func (s *PlanService) GetPlan(ctx context.Context, planID uint) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	err := s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number asc")
		}).
		Preload("Customer").
		First(&plan, planID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: plan %d", ErrNotFound, planID)
		}
		return nil, err
	}
	return &plan, nil
}

func (s *PlanService) invalidatePlanCache(ctx context.Context, planID uint) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, PlanCacheKey(planID))
}

// PlanCacheKey is the Redis key for a cached plan detail.
func PlanCacheKey(planID uint) string {
	return fmt.Sprintf("plan:%d", planID)
}

// NthDueDate returns the due date n periods after the first payment date.
// Weekly and biweekly spacing are fixed day counts; monthly spacing uses
// calendar months anchored to the first payment's day of month, clamped to
// the last day of shorter months (Jan 31 -> Feb 28 -> Mar 31).
func NthDueDate(first time.Time, freq models.InstallmentFrequency, n int) time.Time {
	switch freq {
	case models.FrequencyWeekly:
		return first.AddDate(0, 0, 7*n)
	case models.FrequencyBiweekly:
		return first.AddDate(0, 0, 14*n)
	case models.FrequencyMonthly:
		return addMonthsClamped(first, n)
	}
	return first
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
