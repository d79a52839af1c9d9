package config

import (
	"os"
	"strconv"
)

// Config holds the environment-driven settings shared by the server and the
// worker. Load never fails; missing values fall back to defaults and the
// consumers decide whether an empty value is fatal.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	AuthSecret      string
	TokenTTLMinutes int

	// Default policy thresholds (see services.DefaultPolicy)
	MaxMissedPayments int
	MaxDaysOverdue    int

	// Escalation recipients for defaulted plans
	OwnerNotifyEmail string
	BankNotifyEmail  string

	PlanCacheTTLSeconds int
}

func Load() Config {
	return Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		AuthSecret:          getEnv("AUTH_SECRET", "dev-change-me"),
		TokenTTLMinutes:     getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 480),
		MaxMissedPayments:   getEnvInt("DEFAULT_MAX_MISSED_PAYMENTS", 3),
		MaxDaysOverdue:      getEnvInt("DEFAULT_MAX_DAYS_OVERDUE", 60),
		OwnerNotifyEmail:    os.Getenv("OWNER_NOTIFY_EMAIL"),
		BankNotifyEmail:     os.Getenv("BANK_NOTIFY_EMAIL"),
		PlanCacheTTLSeconds: getEnvInt("PLAN_CACHE_TTL_SECONDS", 30),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil || val < 1 {
		return fallback
	}
	return val
}
