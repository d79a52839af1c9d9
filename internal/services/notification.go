package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/NextWave-98/installment-service/internal/models"
)

// NotificationEvent identifies why a notification is being sent.
type NotificationEvent string

const (
	EventPaymentReminder    NotificationEvent = "payment_reminder"
	EventPaymentLate        NotificationEvent = "payment_late"
	EventOwnerEscalation    NotificationEvent = "owner_escalation"
	EventBankEscalation     NotificationEvent = "bank_escalation"
	EventEmployerEscalation NotificationEvent = "employer_escalation"
)

// NotificationChannel selects the delivery mechanism.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// Dispatcher delivers a single notification. Implementations must treat a nil
// error as a confirmed send; the worker stamps payment timestamps based on it.
type Dispatcher interface {
	Send(ctx context.Context, event NotificationEvent, recipient string, channel NotificationChannel, payload map[string]string) error
}

// TaskSendNotification is the outbox task name drained by the worker.
const TaskSendNotification = "send_notification"

// NotificationTaskArgs is the argument payload of a send_notification task.
type NotificationTaskArgs struct {
	PaymentID    uint              `json:"payment_id"`
	Event        string            `json:"event"`
	Recipient    string            `json:"recipient"`
	Channel      string            `json:"channel"`
	Payload      map[string]string `json:"payload"`
	AttemptCount int               `json:"attempt_count"`
}

// EnqueueNotification records a notification in the outbox inside the given
// transaction. The actual send happens later, in the worker, so channel
// outages never block the business write that triggered the notification.
func EnqueueNotification(tx *gorm.DB, args NotificationTaskArgs) error {
	task, err := models.BuildScheduledTask(TaskSendNotification, args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
	if err != nil {
		return err
	}
	return tx.Create(task).Error
}

// Notifier is the production Dispatcher. It routes by channel to the SMTP
// email sender or the SMS gateway.
type Notifier struct {
	email *EmailService
	sms   *SMSGateway
}

func NewNotifier() *Notifier {
	return &Notifier{
		email: NewEmailService(),
		sms:   NewSMSGateway(),
	}
}

// Send renders the message for the event and delivers it on the requested
// channel.
func (n *Notifier) Send(ctx context.Context, event NotificationEvent, recipient string, channel NotificationChannel, payload map[string]string) error {
	if recipient == "" {
		return fmt.Errorf("recipient is empty for event %s", event)
	}

	subject, body := renderMessage(event, payload)

	switch channel {
	case ChannelEmail:
		return n.email.SendEmail(ctx, []string{recipient}, subject, body)
	case ChannelSMS:
		return n.sms.SendSMS(ctx, recipient, body)
	}
	return fmt.Errorf("unsupported notification channel %q", channel)
}

var messageTemplates = map[NotificationEvent]struct {
	subject string
	body    string
}{
	EventPaymentReminder: {
		subject: "Installment payment reminder",
		body:    "Hi $name, installment $installment_number of plan $plan_number ($amount) is due on $due_date.",
	},
	EventPaymentLate: {
		subject: "Installment payment overdue",
		body:    "Hi $name, installment $installment_number of plan $plan_number is overdue since $due_date. Outstanding: $amount (late fee $late_fee).",
	},
	EventOwnerEscalation: {
		subject: "Installment plan defaulted",
		body:    "Plan $plan_number for customer $name has defaulted. Outstanding amount: $amount.",
	},
	EventBankEscalation: {
		subject: "Defaulted financing agreement",
		body:    "Financing agreement $plan_number held by $name has defaulted with $amount outstanding.",
	},
	EventEmployerEscalation: {
		subject: "Defaulted financing agreement",
		body:    "Employee $name has a defaulted financing agreement $plan_number with $amount outstanding.",
	},
}

func renderMessage(event NotificationEvent, payload map[string]string) (subject, body string) {
	tpl, ok := messageTemplates[event]
	if !ok {
		return string(event), fmt.Sprintf("Notification: %s", event)
	}
	body = tpl.body
	for key, val := range payload {
		body = strings.ReplaceAll(body, "$"+key, val)
	}
	return tpl.subject, body
}
