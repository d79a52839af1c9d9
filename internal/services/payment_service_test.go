package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NextWave-98/installment-service/internal/models"
)

type paymentFixture struct {
	plans    *PlanService
	customer models.Customer
}

// twoInstallmentPlan creates a 2 x 500 MONTHLY plan due 15 Jan / 15 Feb 2026.
func twoInstallmentPlan(t *testing.T, f *paymentFixture) *models.InstallmentPlan {
	t.Helper()
	in := validPlanInput(f.customer.ID)
	in.TotalAmount = money("1000")
	in.DownPayment = money("0")
	in.NumberOfInstallments = 2
	return mustCreatePlan(t, f.plans, in)
}

func setupPayments(t *testing.T, clock time.Time) (*PaymentService, *PlanService, *paymentFixture) {
	t.Helper()
	db := newTestDB(t)
	plans := NewPlanService(db, nil)
	payments := NewPaymentService(db, nil)
	payments.now = fixedClock(clock)
	return payments, plans, &paymentFixture{plans: plans, customer: seedCustomer(t, db)}
}

func TestApplyPaymentCompletesPlan(t *testing.T) {
	payments, plans, deps := setupPayments(t, date(2026, time.January, 10))
	plan := twoInstallmentPlan(t, deps)

	first, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        money("500"),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	if first.Status != models.PaymentStatusPaid {
		t.Errorf("first payment status = %s, want PAID", first.Status)
	}
	if first.PaymentDate == nil {
		t.Error("payment_date not stamped")
	}

	mid, err := plans.GetPlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if mid.Status != models.PlanStatusActive {
		t.Errorf("plan status after one of two = %s, want ACTIVE", mid.Status)
	}
	if mid.PaymentsCompleted != 1 {
		t.Errorf("payments_completed = %d, want 1", mid.PaymentsCompleted)
	}

	if _, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[1].ID,
		Amount:        money("500"),
		PaymentMethod: "card",
	}); err != nil {
		t.Fatalf("second payment failed: %v", err)
	}

	done, err := plans.GetPlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != models.PlanStatusCompleted {
		t.Errorf("plan status = %s, want COMPLETED", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
	if !done.TotalPaid.Equal(money("1000")) {
		t.Errorf("total_paid = %s, want 1000", done.TotalPaid)
	}
	if !done.TotalOutstanding.IsZero() {
		t.Errorf("total_outstanding = %s, want 0", done.TotalOutstanding)
	}
}

func TestApplyPartialPayment(t *testing.T) {
	payments, plans, deps := setupPayments(t, date(2026, time.January, 10))
	plan := twoInstallmentPlan(t, deps)

	p, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        money("300"),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("ApplyPayment failed: %v", err)
	}
	if p.Status != models.PaymentStatusPending {
		t.Errorf("status = %s, want PENDING (300 of 500)", p.Status)
	}
	if !p.AmountPaid.Equal(money("300")) {
		t.Errorf("amount_paid = %s, want 300", p.AmountPaid)
	}

	got, _ := plans.GetPlan(context.Background(), plan.ID)
	if !got.TotalPaid.Equal(money("300")) {
		t.Errorf("plan total_paid = %s, want 300", got.TotalPaid)
	}
	if !got.TotalOutstanding.Equal(money("700")) {
		t.Errorf("plan total_outstanding = %s, want 700", got.TotalOutstanding)
	}
	if got.PaymentsCompleted != 0 {
		t.Errorf("payments_completed = %d, want 0", got.PaymentsCompleted)
	}
}

func TestApplyPaymentLateFee(t *testing.T) {
	// 20 days after the first due date of 15 Jan.
	payments, _, deps := setupPayments(t, date(2026, time.February, 4))
	plan := twoInstallmentPlan(t, deps)

	// 5% of 500 + 10 fixed = 35. A 500 payment no longer settles.
	p, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        money("500"),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("ApplyPayment failed: %v", err)
	}
	if !p.LateFee.Equal(money("35")) {
		t.Errorf("late_fee = %s, want 35", p.LateFee)
	}
	if p.Status != models.PaymentStatusLate {
		t.Errorf("status = %s, want LATE (500 of 535)", p.Status)
	}
	if p.DaysOverdue != 20 {
		t.Errorf("days_overdue = %d, want 20", p.DaysOverdue)
	}

	// Paying the fee settles it.
	p, err = payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     p.ID,
		Amount:        money("35"),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("settling payment failed: %v", err)
	}
	if p.Status != models.PaymentStatusPaid {
		t.Errorf("status = %s, want PAID", p.Status)
	}
	if !p.TotalAmountPaid.Equal(money("570")) {
		t.Errorf("total_amount_paid = %s, want 570", p.TotalAmountPaid)
	}
}

func TestLateFeeAssessedOnce(t *testing.T) {
	payments, _, deps := setupPayments(t, date(2026, time.February, 4))
	plan := twoInstallmentPlan(t, deps)

	p, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        money("100"),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatal(err)
	}
	feeAfterFirst := p.LateFee

	// Further along in time the fee stays what it was.
	payments.now = fixedClock(date(2026, time.March, 1))
	p, err = payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     p.ID,
		Amount:        money("100"),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !p.LateFee.Equal(feeAfterFirst) {
		t.Errorf("late fee changed from %s to %s on second application", feeAfterFirst, p.LateFee)
	}
}

func TestApplyPaymentToPaidInstallment(t *testing.T) {
	payments, _, deps := setupPayments(t, date(2026, time.January, 10))
	plan := twoInstallmentPlan(t, deps)

	if _, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        money("500"),
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatal(err)
	}

	_, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        money("10"),
		PaymentMethod: "cash",
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("got %v, want ErrInvalidState", err)
	}
}

func TestApplyPaymentToCancelledPlan(t *testing.T) {
	payments, plans, deps := setupPayments(t, date(2026, time.January, 10))
	plan := twoInstallmentPlan(t, deps)

	if _, err := plans.CancelPlan(context.Background(), plan.ID, "order voided"); err != nil {
		t.Fatal(err)
	}

	_, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        money("500"),
		PaymentMethod: "cash",
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("got %v, want ErrInvalidState", err)
	}
}

func TestApplyPaymentDuplicateReference(t *testing.T) {
	payments, _, deps := setupPayments(t, date(2026, time.January, 10))
	plan := twoInstallmentPlan(t, deps)

	if _, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:        plan.Payments[0].ID,
		Amount:           money("100"),
		PaymentMethod:    "bank_transfer",
		PaymentReference: "TXN-001",
	}); err != nil {
		t.Fatal(err)
	}

	_, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:        plan.Payments[1].ID,
		Amount:           money("100"),
		PaymentMethod:    "bank_transfer",
		PaymentReference: "TXN-001",
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestApplyPaymentValidation(t *testing.T) {
	payments, _, deps := setupPayments(t, date(2026, time.January, 10))
	plan := twoInstallmentPlan(t, deps)

	_, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        decimal.Zero,
		PaymentMethod: "cash",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("zero amount: got %v, want ErrValidation", err)
	}

	_, err = payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID: plan.Payments[0].ID,
		Amount:    money("100"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("missing method: got %v, want ErrValidation", err)
	}

	_, err = payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     424242,
		Amount:        money("100"),
		PaymentMethod: "cash",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown payment: got %v, want ErrNotFound", err)
	}
}

func TestApplyPaymentOverpayment(t *testing.T) {
	payments, plans, deps := setupPayments(t, date(2026, time.January, 10))
	plan := twoInstallmentPlan(t, deps)

	p, err := payments.ApplyPayment(context.Background(), ApplyPaymentInput{
		PaymentID:     plan.Payments[0].ID,
		Amount:        money("520"),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != models.PaymentStatusPaid {
		t.Errorf("status = %s, want PAID", p.Status)
	}
	// The excess stays on the installment rather than rolling forward.
	if !p.AmountPaid.Equal(money("520")) {
		t.Errorf("amount_paid = %s, want 520", p.AmountPaid)
	}

	got, _ := plans.GetPlan(context.Background(), plan.ID)
	if !got.TotalPaid.Equal(money("520")) {
		t.Errorf("plan total_paid = %s, want 520", got.TotalPaid)
	}
}
