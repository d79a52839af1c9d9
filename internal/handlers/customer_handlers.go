package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/NextWave-98/installment-service/internal/models"
	"github.com/NextWave-98/installment-service/internal/services"
)

// CustomerHandler manages customers and their financial profiles
type CustomerHandler struct {
	db *gorm.DB
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{db: db}
}

// CreateCustomer creates a customer, optionally with a financial profile in
// the same transaction.
func (h *CustomerHandler) CreateCustomer(c echo.Context) error {
	var req CreateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", services.ErrValidation)
	}

	customer := models.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}

	err := h.db.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}
		if req.FinancialProfile != nil {
			profile := profileFromRequest(req.FinancialProfile)
			profile.CustomerID = customer.ID
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			customer.FinancialProfile = profile
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, customer)
}

// GetCustomer fetches a customer with the financial profile.
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var customer models.Customer
	err = h.db.WithContext(c.Request().Context()).
		Preload("FinancialProfile").
		First(&customer, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: customer %d", services.ErrNotFound, id)
		}
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// UpsertFinancialProfile creates or replaces the customer's financial
// profile. Any change resets the verification state; the profile must be
// re-verified.
func (h *CustomerHandler) UpsertFinancialProfile(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req FinancialProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.NationalID == "" {
		return fmt.Errorf("%w: national_id is required", services.ErrValidation)
	}

	var result *models.CustomerFinancialProfile
	err = h.db.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: customer %d", services.ErrNotFound, id)
			}
			return err
		}

		incoming := profileFromRequest(&req)
		incoming.CustomerID = customer.ID

		var existing models.CustomerFinancialProfile
		err := tx.Where("customer_id = ?", customer.ID).First(&existing).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			if err := tx.Create(incoming).Error; err != nil {
				return err
			}
			result = incoming
		case err != nil:
			return err
		default:
			incoming.ID = existing.ID
			incoming.CreatedAt = existing.CreatedAt
			// Mutation invalidates any earlier verification.
			incoming.IsVerified = false
			incoming.VerifiedAt = nil
			incoming.VerifiedByID = nil
			if err := tx.Save(incoming).Error; err != nil {
				return err
			}
			result = incoming
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// VerifyFinancialProfile marks the profile as verified by the authenticated
// staff member.
func (h *CustomerHandler) VerifyFinancialProfile(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var profile models.CustomerFinancialProfile
	err = h.db.WithContext(c.Request().Context()).
		Where("customer_id = ?", id).First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: financial profile for customer %d", services.ErrNotFound, id)
		}
		return err
	}

	if profile.IsVerified {
		return c.JSON(http.StatusOK, profile)
	}

	now := time.Now()
	profile.IsVerified = true
	profile.VerifiedAt = &now
	profile.VerifiedByID = staffIDFromContext(c)
	if err := h.db.Save(&profile).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func profileFromRequest(req *FinancialProfileRequest) *models.CustomerFinancialProfile {
	loans := make([]models.ExistingLoan, 0, len(req.ExistingLoans))
	for _, l := range req.ExistingLoans {
		loans = append(loans, models.ExistingLoan{
			Creditor:       l.Creditor,
			Amount:         l.Amount,
			MonthlyPayment: l.MonthlyPayment,
		})
	}

	return &models.CustomerFinancialProfile{
		NationalID:              req.NationalID,
		NationalIDIssue:         parseOptionalDate(req.NationalIDIssue),
		NationalIDExpiry:        parseOptionalDate(req.NationalIDExpiry),
		BankName:                req.BankName,
		BankBranch:              req.BankBranch,
		BankAccountNumber:       req.BankAccountNumber,
		BankAccountHolder:       req.BankAccountHolder,
		BankSwiftCode:           req.BankSwiftCode,
		CompanyName:             req.CompanyName,
		CompanyAddress:          req.CompanyAddress,
		CompanyContact:          req.CompanyContact,
		JobPosition:             req.JobPosition,
		MonthlyIncome:           req.MonthlyIncome,
		EmploymentStartDate:     parseOptionalDate(req.EmploymentStartDate),
		SupervisorContact:       req.SupervisorContact,
		HasExistingLoans:        req.HasExistingLoans || len(loans) > 0,
		ExistingLoans:           loans,
		TotalMonthlyObligations: req.TotalMonthlyObligations,
		CreditScore:             req.CreditScore,
		CreditRating:            req.CreditRating,
	}
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
