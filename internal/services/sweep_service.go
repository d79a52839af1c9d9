package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NextWave-98/installment-service/internal/models"
)

// DefaultPolicy decides when non-payment becomes a default. A plan defaults
// when it has accumulated MaxMissedPayments unpaid-past-due installments, or
// when any single installment has been overdue for MaxDaysOverdue days.
type DefaultPolicy struct {
	MaxMissedPayments int
	MaxDaysOverdue    int
}

// StandardDefaultPolicy returns the shipped thresholds: 3 missed payments or
// 60 days overdue on any one installment.
func StandardDefaultPolicy() DefaultPolicy {
	return DefaultPolicy{MaxMissedPayments: 3, MaxDaysOverdue: 60}
}

// EscalationContacts are the deployment-level recipients for default
// escalations. The shop owner and the financing partner bank are configured
// per deployment; the employer contact comes from the customer's financial
// profile. Empty contacts skip that escalation.
type EscalationContacts struct {
	OwnerEmail string
	BankEmail  string
}

// SweepResult summarizes one overdue sweep run.
type SweepResult struct {
	PlansExamined         int      `json:"plans_examined"`
	PaymentsMarkedLate    int      `json:"payments_marked_late"`
	PlansDefaulted        int      `json:"plans_defaulted"`
	NotificationsEnqueued int      `json:"notifications_enqueued"`
	Errors                []string `json:"errors,omitempty"`
}

// SweepService advances overdue payments and applies the default policy. It
// is triggered externally (worker task or HTTP) and is idempotent: re-running
// on unchanged data produces no additional writes.
type SweepService struct {
	db       *gorm.DB
	cache    *RedisCache
	policy   DefaultPolicy
	contacts EscalationContacts
}

func NewSweepService(db *gorm.DB, cache *RedisCache, policy DefaultPolicy, contacts EscalationContacts) *SweepService {
	if policy.MaxMissedPayments <= 0 {
		policy.MaxMissedPayments = StandardDefaultPolicy().MaxMissedPayments
	}
	if policy.MaxDaysOverdue <= 0 {
		policy.MaxDaysOverdue = StandardDefaultPolicy().MaxDaysOverdue
	}
	return &SweepService{db: db, cache: cache, policy: policy, contacts: contacts}
}

// Run sweeps all ACTIVE plans that have unpaid installments past due as of
// the given date. Plans are processed independently; one plan's failure is
// recorded and does not stop the sweep.
func (s *SweepService) Run(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	result := &SweepResult{}

	var planIDs []uint
	err := s.db.WithContext(ctx).Model(&models.InstallmentPayment{}).
		Distinct().
		Joins("JOIN installment_plans ON installment_plans.id = installment_payments.plan_id").
		Where("installment_plans.status = ?", models.PlanStatusActive).
		Where("installment_payments.status IN ?", []models.InstallmentPaymentStatus{models.PaymentStatusPending, models.PaymentStatusLate}).
		Where("installment_payments.due_date < ?", startOfDay(asOf)).
		Pluck("installment_payments.plan_id", &planIDs).Error
	if err != nil {
		return nil, err
	}

	for _, planID := range planIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.PlansExamined++
		if err := s.sweepPlan(ctx, planID, asOf, result); err != nil {
			log.Printf("Sweep failed for plan %d: %v", planID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("plan %d: %v", planID, err))
		}
	}

	return result, nil
}

func (s *SweepService) sweepPlan(ctx context.Context, planID uint, asOf time.Time, result *SweepResult) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan models.InstallmentPlan
		if err := lockForUpdate(tx).Preload("Customer.FinancialProfile").First(&plan, planID).Error; err != nil {
			return err
		}
		if plan.Status != models.PlanStatusActive {
			return nil
		}

		var payments []models.InstallmentPayment
		if err := tx.Where("plan_id = ?", plan.ID).
			Order("installment_number asc").Find(&payments).Error; err != nil {
			return err
		}

		maxDaysOverdue := 0
		for i := range payments {
			p := &payments[i]
			if !p.Status.Settleable() || !overdueAsOf(p.DueDate, asOf) {
				continue
			}

			changed := false

			if p.Status == models.PaymentStatusPending {
				p.Status = models.PaymentStatusLate
				result.PaymentsMarkedLate++
				changed = true
			}
			if p.OverdueSince == nil {
				assessLateFee(p, &plan, asOf)
				changed = true
			}
			if days := daysPastDue(p.DueDate, asOf); days != p.DaysOverdue {
				p.DaysOverdue = days
				changed = true
			}
			if p.DaysOverdue > maxDaysOverdue {
				maxDaysOverdue = p.DaysOverdue
			}

			if !p.ReminderSent {
				if s.enqueueCustomerNotification(tx, &plan, p, EventPaymentReminder, result) {
					p.ReminderSent = true
					changed = true
				}
			}
			if !p.LateNotificationSent {
				if s.enqueueCustomerNotification(tx, &plan, p, EventPaymentLate, result) {
					p.LateNotificationSent = true
					changed = true
				}
			}

			if changed {
				if err := tx.Save(p).Error; err != nil {
					return err
				}
			}
		}

		statusBefore := plan.Status
		missedBefore := plan.PaymentsMissed
		if err := recomputePlanAggregates(tx, &plan); err != nil {
			return err
		}

		if plan.PaymentsMissed >= s.policy.MaxMissedPayments || maxDaysOverdue >= s.policy.MaxDaysOverdue {
			if err := s.defaultPlan(tx, &plan, asOf, result); err != nil {
				return err
			}
		}

		// Unchanged plans are not rewritten, keeping re-runs write-free.
		if plan.Status == statusBefore && plan.PaymentsMissed == missedBefore {
			return nil
		}
		if plan.Status == models.PlanStatusDefaulted && statusBefore != models.PlanStatusDefaulted {
			result.PlansDefaulted++
		}
		// Customer is preloaded on the plan; keep the save scoped to the
		// plan row itself.
		return tx.Omit(clause.Associations).Save(&plan).Error
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, PlanCacheKey(planID))
	}
	return nil
}

// defaultPlan moves the plan and every unpaid installment to DEFAULTED and
// enqueues the owner/bank/employer escalations. Escalation flags live on the
// earliest unpaid installment so each escalation fires once per plan.
func (s *SweepService) defaultPlan(tx *gorm.DB, plan *models.InstallmentPlan, asOf time.Time, result *SweepResult) error {
	if !plan.Status.CanTransitionTo(models.PlanStatusDefaulted) {
		return nil
	}
	plan.Status = models.PlanStatusDefaulted
	defaultedAt := asOf
	plan.DefaultedAt = &defaultedAt

	var payments []models.InstallmentPayment
	if err := tx.Where("plan_id = ? AND status IN ?", plan.ID,
		[]models.InstallmentPaymentStatus{models.PaymentStatusPending, models.PaymentStatusLate}).
		Order("installment_number asc").Find(&payments).Error; err != nil {
		return err
	}

	for i := range payments {
		p := &payments[i]
		if !p.Status.CanTransitionTo(models.PaymentStatusDefaulted) {
			continue
		}
		p.Status = models.PaymentStatusDefaulted

		// Earliest unpaid installment carries the escalation flags.
		if i == 0 {
			s.enqueueEscalations(tx, plan, p, result)
		}

		if err := tx.Save(p).Error; err != nil {
			return err
		}
	}

	return recomputePlanAggregates(tx, plan)
}

func (s *SweepService) enqueueEscalations(tx *gorm.DB, plan *models.InstallmentPlan, p *models.InstallmentPayment, result *SweepResult) {
	payload := escalationPayload(plan)

	if !p.OwnerNotified && s.contacts.OwnerEmail != "" {
		if s.enqueue(tx, p.ID, EventOwnerEscalation, s.contacts.OwnerEmail, ChannelEmail, payload, result) {
			p.OwnerNotified = true
		}
	}
	if !p.BankNotified && s.contacts.BankEmail != "" {
		if s.enqueue(tx, p.ID, EventBankEscalation, s.contacts.BankEmail, ChannelEmail, payload, result) {
			p.BankNotified = true
		}
	}
	if !p.EmployerNotified {
		if contact := employerContact(plan.Customer.FinancialProfile); contact != "" {
			if s.enqueue(tx, p.ID, EventEmployerEscalation, contact, ChannelSMS, payload, result) {
				p.EmployerNotified = true
			}
		}
	}
}

func (s *SweepService) enqueueCustomerNotification(tx *gorm.DB, plan *models.InstallmentPlan, p *models.InstallmentPayment, event NotificationEvent, result *SweepResult) bool {
	recipient, channel := customerContact(&plan.Customer)
	if recipient == "" {
		log.Printf("No contact for customer %d, skipping %s on payment %s", plan.CustomerID, event, p.PaymentNumber)
		return false
	}

	payload := map[string]string{
		"name":               plan.Customer.Name,
		"plan_number":        plan.PlanNumber,
		"installment_number": fmt.Sprintf("%d", p.InstallmentNumber),
		"amount":             p.AmountDue.StringFixed(2),
		"late_fee":           p.LateFee.StringFixed(2),
		"due_date":           p.DueDate.Format("2006-01-02"),
	}
	return s.enqueue(tx, p.ID, event, recipient, channel, payload, result)
}

func (s *SweepService) enqueue(tx *gorm.DB, paymentID uint, event NotificationEvent, recipient string, channel NotificationChannel, payload map[string]string, result *SweepResult) bool {
	err := EnqueueNotification(tx, NotificationTaskArgs{
		PaymentID: paymentID,
		Event:     string(event),
		Recipient: recipient,
		Channel:   string(channel),
		Payload:   payload,
	})
	if err != nil {
		log.Printf("Failed to enqueue %s for payment %d: %v", event, paymentID, err)
		return false
	}
	result.NotificationsEnqueued++
	return true
}

func customerContact(c *models.Customer) (string, NotificationChannel) {
	if c.Phone != "" {
		return c.Phone, ChannelSMS
	}
	if c.Email != "" {
		return c.Email, ChannelEmail
	}
	return "", ChannelEmail
}

func employerContact(profile *models.CustomerFinancialProfile) string {
	if profile == nil {
		return ""
	}
	if profile.SupervisorContact != "" {
		return profile.SupervisorContact
	}
	return profile.CompanyContact
}

func escalationPayload(plan *models.InstallmentPlan) map[string]string {
	return map[string]string{
		"name":        plan.Customer.Name,
		"plan_number": plan.PlanNumber,
		"amount":      plan.TotalOutstanding.StringFixed(2),
	}
}
