package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/NextWave-98/installment-service/internal/services"
)

// Manual smoke test for the notification channels.
func main() {
	channel := flag.String("channel", "sms", "Channel: sms or email")
	to := flag.String("to", "", "Recipient (phone number or email address)")
	event := flag.String("event", string(services.EventPaymentReminder), "Notification event")
	flag.Parse()

	if *to == "" {
		log.Fatal("Please provide a recipient using -to flag")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	notifier := services.NewNotifier()

	payload := map[string]string{
		"name":               "Test Customer",
		"plan_number":        "INP-TEST-00000000",
		"installment_number": "1",
		"amount":             "100.00",
		"late_fee":           "0.00",
		"due_date":           "2026-01-01",
	}

	log.Printf("Sending %s via %s to %s", *event, *channel, *to)

	err := notifier.Send(context.Background(),
		services.NotificationEvent(*event), *to,
		services.NotificationChannel(*channel), payload)
	if err != nil {
		log.Fatalf("Failed to send notification: %v", err)
	}

	log.Println("Notification sent successfully!")
}
