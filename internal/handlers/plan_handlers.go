package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/NextWave-98/installment-service/internal/models"
	"github.com/NextWave-98/installment-service/internal/services"
)

// PlanHandler exposes installment plan operations
type PlanHandler struct {
	db       *gorm.DB
	plans    *services.PlanService
	cache    *services.RedisCache
	cacheTTL time.Duration
}

func NewPlanHandler(db *gorm.DB, plans *services.PlanService, cache *services.RedisCache, cacheTTL time.Duration) *PlanHandler {
	return &PlanHandler{db: db, plans: plans, cache: cache, cacheTTL: cacheTTL}
}

// CreatePlan creates a plan and its full payment schedule.
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	var req CreatePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	startDate, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	firstPaymentDate, err := parseDate("first_payment_date", req.FirstPaymentDate)
	if err != nil {
		return err
	}

	plan, err := h.plans.CreatePlan(c.Request().Context(), services.CreatePlanInput{
		CustomerID:           req.CustomerID,
		SaleID:               req.SaleID,
		CreatedByID:          staffIDFromContext(c),
		ProductDescription:   req.ProductDescription,
		TotalAmount:          req.TotalAmount,
		DownPayment:          req.DownPayment,
		FinancedAmount:       req.FinancedAmount,
		NumberOfInstallments: req.NumberOfInstallments,
		Frequency:            models.InstallmentFrequency(req.Frequency),
		InterestRate:         req.InterestRate,
		LateFeePercentage:    req.LateFeePercentage,
		LateFeeFixed:         req.LateFeeFixed,
		StartDate:            startDate,
		FirstPaymentDate:     firstPaymentDate,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, plan)
}

// GetPlan returns a plan with its payment schedule, served from cache when
// warm.
func (h *PlanHandler) GetPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if h.cache == nil {
		plan, err := h.plans.GetPlan(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, plan)
	}

	plan, err := services.GetOrSet(h.cache, ctx, services.PlanCacheKey(id), h.cacheTTL, func() (*models.InstallmentPlan, error) {
		return h.plans.GetPlan(ctx, id)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

// ListPlans lists plans with optional customer/status filters and paging.
func (h *PlanHandler) ListPlans(c echo.Context) error {
	query := h.db.WithContext(c.Request().Context()).Model(&models.InstallmentPlan{})

	if v := c.QueryParam("customer_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			query = query.Where("customer_id = ?", uint(id))
		}
	}
	if v := c.QueryParam("status"); v != "" {
		query = query.Where("status = ?", v)
	}

	page := 1
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	pageSize := 20
	if v, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return err
	}

	var plans []models.InstallmentPlan
	err := query.Order("id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&plans).Error
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans":       plans,
		"page":        page,
		"page_size":   pageSize,
		"total_count": totalCount,
	})
}

// CancelPlan cancels an ACTIVE plan with a reason.
func (h *PlanHandler) CancelPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req CancelPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	plan, err := h.plans.CancelPlan(c.Request().Context(), id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}
