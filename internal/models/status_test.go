package models

import "testing"

func TestPlanStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    InstallmentPlanStatus
		to      InstallmentPlanStatus
		allowed bool
	}{
		{"active to completed", PlanStatusActive, PlanStatusCompleted, true},
		{"active to defaulted", PlanStatusActive, PlanStatusDefaulted, true},
		{"active to cancelled", PlanStatusActive, PlanStatusCancelled, true},
		{"active to active", PlanStatusActive, PlanStatusActive, false},
		{"completed is terminal", PlanStatusCompleted, PlanStatusActive, false},
		{"cancelled is terminal", PlanStatusCancelled, PlanStatusDefaulted, false},
		{"defaulted is terminal", PlanStatusDefaulted, PlanStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    InstallmentPaymentStatus
		to      InstallmentPaymentStatus
		allowed bool
	}{
		{"pending to paid", PaymentStatusPending, PaymentStatusPaid, true},
		{"pending to late", PaymentStatusPending, PaymentStatusLate, true},
		{"pending to defaulted", PaymentStatusPending, PaymentStatusDefaulted, true},
		{"late to paid", PaymentStatusLate, PaymentStatusPaid, true},
		{"late to defaulted", PaymentStatusLate, PaymentStatusDefaulted, true},
		{"late to pending", PaymentStatusLate, PaymentStatusPending, false},
		{"paid is terminal", PaymentStatusPaid, PaymentStatusPending, false},
		{"paid never goes late", PaymentStatusPaid, PaymentStatusLate, false},
		{"defaulted is terminal", PaymentStatusDefaulted, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestSettleable(t *testing.T) {
	if !PaymentStatusPending.Settleable() || !PaymentStatusLate.Settleable() {
		t.Error("PENDING and LATE must accept money")
	}
	if PaymentStatusPaid.Settleable() || PaymentStatusDefaulted.Settleable() {
		t.Error("PAID and DEFAULTED must not accept money")
	}
}
