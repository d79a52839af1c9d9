package tasks

import (
	"context"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/NextWave-98/installment-service/internal/models"
	"github.com/NextWave-98/installment-service/internal/services"
)

// LogInfoTaskDef logs a message from the worker; used to verify the worker
// loop end to end in deployments.
type LogInfoTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *LogInfoTaskDef) TaskID() string {
	return "log_info"
}

// HandleExecution handles logging information
func (t *LogInfoTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	message, ok := task.Arguments["message"].(string)
	if !ok {
		message = "No message provided"
	}
	log.Printf("[Task: log_info] Message: %s", message)

	return map[string]interface{}{
		"status":  "success",
		"message": message,
	}, nil
}

// LogInfoTask is the singleton instance of LogInfoTaskDef
var LogInfoTask = &LogInfoTaskDef{}

// contactsFromEnv resolves the deployment-level escalation recipients.
func contactsFromEnv() services.EscalationContacts {
	return services.EscalationContacts{
		OwnerEmail: os.Getenv("OWNER_NOTIFY_EMAIL"),
		BankEmail:  os.Getenv("BANK_NOTIFY_EMAIL"),
	}
}
