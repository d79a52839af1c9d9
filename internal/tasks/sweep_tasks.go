package tasks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/NextWave-98/installment-service/internal/models"
	"github.com/NextWave-98/installment-service/internal/services"
)

// OverdueSweepTaskDef runs the overdue sweep from the worker. Scheduled as a
// recurring task (daily RRULE) via cmd/schedule_task.
type OverdueSweepTaskDef struct {
	// sweep overrides the DB-built service in tests
	sweep *services.SweepService
}

// TaskID returns the unique identifier for this task
func (t *OverdueSweepTaskDef) TaskID() string {
	return "overdue_sweep"
}

// HandleExecution sweeps all active plans as of now.
func (t *OverdueSweepTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	sweep := t.sweep
	if sweep == nil {
		sweep = services.NewSweepService(db, nil, policyFromArgs(task.Arguments), contactsFromEnv())
	}

	result, err := sweep.Run(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"plans_examined":         result.PlansExamined,
		"payments_marked_late":   result.PaymentsMarkedLate,
		"plans_defaulted":        result.PlansDefaulted,
		"notifications_enqueued": result.NotificationsEnqueued,
		"errors":                 result.Errors,
	}, nil
}

// OverdueSweepTask is the singleton instance of OverdueSweepTaskDef
var OverdueSweepTask = &OverdueSweepTaskDef{}

// policyFromArgs reads optional threshold overrides from the task arguments,
// falling back to the standard policy.
func policyFromArgs(args map[string]interface{}) services.DefaultPolicy {
	policy := services.StandardDefaultPolicy()
	if v, ok := args["max_missed_payments"].(float64); ok && v > 0 {
		policy.MaxMissedPayments = int(v)
	}
	if v, ok := args["max_days_overdue"].(float64); ok && v > 0 {
		policy.MaxDaysOverdue = int(v)
	}
	return policy
}
