package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/NextWave-98/installment-service/internal/models"
	"github.com/NextWave-98/installment-service/internal/services"
)

// SendNotificationTaskDef drains the notification outbox. Each task row is
// one notification recorded by a business transaction; this handler performs
// the actual send and stamps the payment's sent-at timestamp only on a
// confirmed send.
type SendNotificationTaskDef struct {
	// dispatcher overrides the production notifier in tests
	dispatcher services.Dispatcher
}

// TaskID returns the unique identifier for this task
func (t *SendNotificationTaskDef) TaskID() string {
	return services.TaskSendNotification
}

func (t *SendNotificationTaskDef) notifier() services.Dispatcher {
	if t.dispatcher != nil {
		return t.dispatcher
	}
	return services.NewNotifier()
}

// HandleExecution sends the notification described by the task arguments.
func (t *SendNotificationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var args services.NotificationTaskArgs
	if err := json.Unmarshal(argsBytes, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}

	var payment models.InstallmentPayment
	if err := db.First(&payment, args.PaymentID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch payment %d: %w", args.PaymentID, err)
	}

	event := services.NotificationEvent(args.Event)
	if sentAtOf(&payment, event) != nil {
		// Already delivered by an earlier attempt.
		return map[string]interface{}{"status": "skipped", "reason": "already sent"}, nil
	}

	sendErr := t.notifier().Send(ctx, event, args.Recipient, services.NotificationChannel(args.Channel), args.Payload)
	if sendErr != nil {
		if args.AttemptCount+1 < task.MaxAttempt {
			retryArgs := args
			retryArgs.AttemptCount++
			nextRun := time.Now().Add(5 * time.Minute)
			retry, buildErr := models.BuildScheduledTask(t.TaskID(), retryArgs, nextRun, nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
			if buildErr == nil {
				if err := db.Create(retry).Error; err != nil {
					log.Printf("Failed to create retry task for payment %d: %v", args.PaymentID, err)
				}
			}
			return map[string]interface{}{
				"status":  "rescheduled",
				"attempt": retryArgs.AttemptCount,
			}, fmt.Errorf("send failed, rescheduled: %w", sendErr)
		}
		return nil, fmt.Errorf("send failed after %d attempts: %w", task.MaxAttempt, sendErr)
	}

	now := time.Now()
	stampSentAt(&payment, event, now)
	if err := db.Save(&payment).Error; err != nil {
		return nil, fmt.Errorf("sent but failed to stamp payment %d: %w", payment.ID, err)
	}

	return map[string]interface{}{
		"status":    "success",
		"event":     args.Event,
		"channel":   args.Channel,
		"recipient": args.Recipient,
	}, nil
}

// SendNotificationTask is the singleton instance of SendNotificationTaskDef
var SendNotificationTask = &SendNotificationTaskDef{}

func sentAtOf(p *models.InstallmentPayment, event services.NotificationEvent) *time.Time {
	switch event {
	case services.EventPaymentReminder:
		return p.ReminderSentAt
	case services.EventPaymentLate:
		return p.LateNotificationSentAt
	case services.EventOwnerEscalation:
		return p.OwnerNotifiedAt
	case services.EventBankEscalation:
		return p.BankNotifiedAt
	case services.EventEmployerEscalation:
		return p.EmployerNotifiedAt
	}
	return nil
}

// stampSentAt records the confirmed send. The flag is re-asserted alongside
// the timestamp so a row enqueued by an older writer stays consistent.
func stampSentAt(p *models.InstallmentPayment, event services.NotificationEvent, at time.Time) {
	switch event {
	case services.EventPaymentReminder:
		p.ReminderSent = true
		p.ReminderSentAt = &at
	case services.EventPaymentLate:
		p.LateNotificationSent = true
		p.LateNotificationSentAt = &at
	case services.EventOwnerEscalation:
		p.OwnerNotified = true
		p.OwnerNotifiedAt = &at
	case services.EventBankEscalation:
		p.BankNotified = true
		p.BankNotifiedAt = &at
	case services.EventEmployerEscalation:
		p.EmployerNotified = true
		p.EmployerNotifiedAt = &at
	}
}
