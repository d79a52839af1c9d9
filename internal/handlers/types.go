package handlers

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/NextWave-98/installment-service/internal/services"
)

// Request/response shapes for the JSON API. Dates travel as YYYY-MM-DD
// strings; money travels as JSON numbers or strings and lands in decimals.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type CreateCustomerRequest struct {
	Name             string                   `json:"name"`
	Phone            string                   `json:"phone"`
	Email            string                   `json:"email"`
	Address          string                   `json:"address"`
	FinancialProfile *FinancialProfileRequest `json:"financial_profile"`
}

type FinancialProfileRequest struct {
	NationalID       string `json:"national_id"`
	NationalIDIssue  string `json:"national_id_issue_date"`
	NationalIDExpiry string `json:"national_id_expiry_date"`

	BankName          string `json:"bank_name"`
	BankBranch        string `json:"bank_branch"`
	BankAccountNumber string `json:"bank_account_number"`
	BankAccountHolder string `json:"bank_account_holder"`
	BankSwiftCode     string `json:"bank_swift_code"`

	CompanyName         string          `json:"company_name"`
	CompanyAddress      string          `json:"company_address"`
	CompanyContact      string          `json:"company_contact"`
	JobPosition         string          `json:"job_position"`
	MonthlyIncome       decimal.Decimal `json:"monthly_income"`
	EmploymentStartDate string          `json:"employment_start_date"`
	SupervisorContact   string          `json:"supervisor_contact"`

	HasExistingLoans        bool                 `json:"has_existing_loans"`
	ExistingLoans           []ExistingLoanEntry  `json:"existing_loans"`
	TotalMonthlyObligations decimal.Decimal      `json:"total_monthly_obligations"`

	CreditScore  int    `json:"credit_score"`
	CreditRating string `json:"credit_rating"`
}

type ExistingLoanEntry struct {
	Creditor       string          `json:"creditor"`
	Amount         decimal.Decimal `json:"amount"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

type CreatePlanRequest struct {
	CustomerID         uint   `json:"customer_id"`
	SaleID             *uint  `json:"sale_id"`
	ProductDescription string `json:"product_description"`

	TotalAmount    decimal.Decimal `json:"total_amount"`
	DownPayment    decimal.Decimal `json:"down_payment"`
	FinancedAmount decimal.Decimal `json:"financed_amount"`

	NumberOfInstallments int    `json:"number_of_installments"`
	Frequency            string `json:"frequency"`

	InterestRate      decimal.Decimal `json:"interest_rate"`
	LateFeePercentage decimal.Decimal `json:"late_fee_percentage"`
	LateFeeFixed      decimal.Decimal `json:"late_fee_fixed"`

	StartDate        string `json:"start_date"`
	FirstPaymentDate string `json:"first_payment_date"`
}

type CancelPlanRequest struct {
	Reason string `json:"cancellation_reason"`
}

type ApplyPaymentRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
}

type SweepRequest struct {
	AsOf string `json:"as_of"` // optional, YYYY-MM-DD, defaults to today
}

const dateLayout = "2006-01-02"

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", services.ErrValidation, field)
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be formatted as %s", services.ErrValidation, field, dateLayout)
	}
	return t, nil
}

func parseOptionalDate(value string) *time.Time {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil
	}
	return &t
}

// staffIDFromContext reads the authenticated staff id set by the auth
// middleware; nil when the route is unauthenticated.
func staffIDFromContext(c echo.Context) *uint {
	if val := c.Get("userID"); val != nil {
		if id, ok := val.(uint); ok && id > 0 {
			return &id
		}
	}
	return nil
}
