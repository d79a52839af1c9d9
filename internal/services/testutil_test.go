package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NextWave-98/installment-service/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A second connection would see a different in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB) models.Customer {
	t.Helper()
	customer := models.Customer{
		Name:  "Nimal Perera",
		Phone: "0771234567",
		Email: "nimal@example.com",
	}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	return customer
}

func seedFinancialProfile(t *testing.T, db *gorm.DB, customerID uint) models.CustomerFinancialProfile {
	t.Helper()
	profile := models.CustomerFinancialProfile{
		CustomerID:        customerID,
		NationalID:        "902345678V",
		BankName:          "Peoples Bank",
		CompanyName:       "Acme Engineering",
		SupervisorContact: "0719876543",
		MonthlyIncome:     decimal.NewFromInt(85000),
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to seed financial profile: %v", err)
	}
	return profile
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// validPlanInput is a baseline 3 x MONTHLY plan: 1000 total, 100 down.
func validPlanInput(customerID uint) CreatePlanInput {
	return CreatePlanInput{
		CustomerID:           customerID,
		TotalAmount:          money("1000"),
		DownPayment:          money("100"),
		NumberOfInstallments: 3,
		Frequency:            models.FrequencyMonthly,
		LateFeePercentage:    money("5"),
		LateFeeFixed:         money("10"),
		StartDate:            date(2026, time.January, 1),
		FirstPaymentDate:     date(2026, time.January, 15),
	}
}

func mustCreatePlan(t *testing.T, svc *PlanService, in CreatePlanInput) *models.InstallmentPlan {
	t.Helper()
	plan, err := svc.CreatePlan(context.Background(), in)
	if err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}
	return plan
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
