package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NextWave-98/installment-service/internal/models"
)

func TestCreatePlanSchedule(t *testing.T) {
	db := newTestDB(t)
	svc := NewPlanService(db, nil)
	customer := seedCustomer(t, db)

	plan := mustCreatePlan(t, svc, validPlanInput(customer.ID))

	if plan.PlanNumber == "" {
		t.Error("expected a generated plan number")
	}
	if !plan.FinancedAmount.Equal(money("900")) {
		t.Errorf("financed amount = %s, want 900", plan.FinancedAmount)
	}
	if plan.Status != models.PlanStatusActive {
		t.Errorf("status = %s, want ACTIVE", plan.Status)
	}
	if len(plan.Payments) != 3 {
		t.Fatalf("got %d payments, want 3", len(plan.Payments))
	}

	sum := decimal.Zero
	for _, p := range plan.Payments {
		sum = sum.Add(p.AmountDue)
		if p.Status != models.PaymentStatusPending {
			t.Errorf("payment %d status = %s, want PENDING", p.InstallmentNumber, p.Status)
		}
	}
	if !sum.Equal(plan.FinancedAmount) {
		t.Errorf("schedule sums to %s, want %s", sum, plan.FinancedAmount)
	}

	// Monthly from Jan 15: 15 Jan, 15 Feb, 15 Mar.
	wantDue := []time.Time{
		date(2026, time.January, 15),
		date(2026, time.February, 15),
		date(2026, time.March, 15),
	}
	for i, p := range plan.Payments {
		if !p.DueDate.Equal(wantDue[i]) {
			t.Errorf("payment %d due %s, want %s", i+1, p.DueDate, wantDue[i])
		}
	}
	if !plan.EndDate.Equal(wantDue[2]) {
		t.Errorf("end date = %s, want %s", plan.EndDate, wantDue[2])
	}
}

func TestCreatePlanRemainderOnFinalInstallment(t *testing.T) {
	db := newTestDB(t)
	svc := NewPlanService(db, nil)
	customer := seedCustomer(t, db)

	in := validPlanInput(customer.ID)
	in.TotalAmount = money("1000")
	in.DownPayment = money("0")
	plan := mustCreatePlan(t, svc, in)

	// 1000 / 3 floors to 333.33; the last installment absorbs the cent.
	if !plan.Payments[0].AmountDue.Equal(money("333.33")) ||
		!plan.Payments[1].AmountDue.Equal(money("333.33")) {
		t.Errorf("base installments = %s, %s, want 333.33 each",
			plan.Payments[0].AmountDue, plan.Payments[1].AmountDue)
	}
	if !plan.Payments[2].AmountDue.Equal(money("333.34")) {
		t.Errorf("final installment = %s, want 333.34", plan.Payments[2].AmountDue)
	}
}

func TestCreatePlanValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewPlanService(db, nil)
	customer := seedCustomer(t, db)

	tests := []struct {
		name   string
		mutate func(*CreatePlanInput)
	}{
		{"zero total", func(in *CreatePlanInput) { in.TotalAmount = decimal.Zero }},
		{"negative down payment", func(in *CreatePlanInput) { in.DownPayment = money("-1") }},
		{"down payment equals total", func(in *CreatePlanInput) { in.DownPayment = in.TotalAmount }},
		{"financed amount mismatch", func(in *CreatePlanInput) { in.FinancedAmount = money("500") }},
		{"zero installments", func(in *CreatePlanInput) { in.NumberOfInstallments = 0 }},
		{"bad frequency", func(in *CreatePlanInput) { in.Frequency = "DAILY" }},
		{"negative late fee", func(in *CreatePlanInput) { in.LateFeeFixed = money("-5") }},
		{"first payment before start", func(in *CreatePlanInput) {
			in.FirstPaymentDate = in.StartDate.AddDate(0, 0, -1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validPlanInput(customer.ID)
			tt.mutate(&in)
			_, err := svc.CreatePlan(context.Background(), in)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}

	// No partial schedules may have leaked out of the failed attempts.
	var count int64
	db.Model(&models.InstallmentPlan{}).Count(&count)
	if count != 0 {
		t.Errorf("found %d plans after failed creations, want 0", count)
	}
}

func TestCreatePlanUnknownCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewPlanService(db, nil)

	_, err := svc.CreatePlan(context.Background(), validPlanInput(999))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestMonthEndClamp(t *testing.T) {
	// Anchored to the 31st: shorter months clamp, longer months snap back.
	first := date(2026, time.January, 31)

	tests := []struct {
		n    int
		want time.Time
	}{
		{0, date(2026, time.January, 31)},
		{1, date(2026, time.February, 28)},
		{2, date(2026, time.March, 31)},
		{3, date(2026, time.April, 30)},
	}
	for _, tt := range tests {
		if got := NthDueDate(first, models.FrequencyMonthly, tt.n); !got.Equal(tt.want) {
			t.Errorf("NthDueDate(n=%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestNthDueDateFixedPeriods(t *testing.T) {
	first := date(2026, time.January, 1)

	if got := NthDueDate(first, models.FrequencyWeekly, 2); !got.Equal(date(2026, time.January, 15)) {
		t.Errorf("weekly n=2 = %s, want 2026-01-15", got)
	}
	if got := NthDueDate(first, models.FrequencyBiweekly, 2); !got.Equal(date(2026, time.January, 29)) {
		t.Errorf("biweekly n=2 = %s, want 2026-01-29", got)
	}
}

func TestCancelPlan(t *testing.T) {
	db := newTestDB(t)
	svc := NewPlanService(db, nil)
	customer := seedCustomer(t, db)
	plan := mustCreatePlan(t, svc, validPlanInput(customer.ID))

	cancelled, err := svc.CancelPlan(context.Background(), plan.ID, "customer returned the goods")
	if err != nil {
		t.Fatalf("CancelPlan failed: %v", err)
	}
	if cancelled.Status != models.PlanStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("cancelled_at not stamped")
	}
	if cancelled.CancellationReason == "" {
		t.Error("cancellation reason not recorded")
	}

	// Payment rows keep their statuses for the audit trail.
	var payments []models.InstallmentPayment
	if err := db.Where("plan_id = ?", plan.ID).Find(&payments).Error; err != nil {
		t.Fatal(err)
	}
	for _, p := range payments {
		if p.Status != models.PaymentStatusPending {
			t.Errorf("payment %d status = %s, want PENDING", p.InstallmentNumber, p.Status)
		}
	}

	// Cancelling again hits the terminal state.
	_, err = svc.CancelPlan(context.Background(), plan.ID, "again")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("second cancel: got %v, want ErrInvalidState", err)
	}
}

func TestCancelPlanRequiresReason(t *testing.T) {
	db := newTestDB(t)
	svc := NewPlanService(db, nil)
	customer := seedCustomer(t, db)
	plan := mustCreatePlan(t, svc, validPlanInput(customer.ID))

	_, err := svc.CancelPlan(context.Background(), plan.ID, "  ")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestGetPlanOrdersPayments(t *testing.T) {
	db := newTestDB(t)
	svc := NewPlanService(db, nil)
	customer := seedCustomer(t, db)
	created := mustCreatePlan(t, svc, validPlanInput(customer.ID))

	plan, err := svc.GetPlan(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	for i, p := range plan.Payments {
		if p.InstallmentNumber != i+1 {
			t.Errorf("payments out of order: index %d has installment %d", i, p.InstallmentNumber)
		}
	}

	if _, err := svc.GetPlan(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing plan: got %v, want ErrNotFound", err)
	}
}
