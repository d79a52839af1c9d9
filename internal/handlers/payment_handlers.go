package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/NextWave-98/installment-service/internal/services"
)

// PaymentHandler records money against installments and exposes the sweep
// trigger.
type PaymentHandler struct {
	payments *services.PaymentService
	sweep    *services.SweepService
}

func NewPaymentHandler(payments *services.PaymentService, sweep *services.SweepService) *PaymentHandler {
	return &PaymentHandler{payments: payments, sweep: sweep}
}

// ApplyPayment applies received money to one installment.
func (h *PaymentHandler) ApplyPayment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req ApplyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	payment, err := h.payments.ApplyPayment(c.Request().Context(), services.ApplyPaymentInput{
		PaymentID:        id,
		Amount:           req.Amount,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		ReceivedByID:     staffIDFromContext(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

// GetPayment returns one installment payment.
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	payment, err := h.payments.GetPayment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}

// RunSweep triggers the overdue sweep, optionally as of a given date. The
// periodic run goes through the worker; this endpoint serves operations.
func (h *PaymentHandler) RunSweep(c echo.Context) error {
	var req SweepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	asOf := time.Now()
	if req.AsOf != "" {
		parsed, err := parseDate("as_of", req.AsOf)
		if err != nil {
			return err
		}
		asOf = parsed
	}

	result, err := h.sweep.Run(c.Request().Context(), asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
