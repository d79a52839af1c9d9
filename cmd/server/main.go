package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/NextWave-98/installment-service/internal/config"
	"github.com/NextWave-98/installment-service/internal/handlers"
	authmw "github.com/NextWave-98/installment-service/internal/middleware"
	"github.com/NextWave-98/installment-service/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, caching disabled: %v", err)
			cache = nil
		}
	} else {
		log.Println("REDIS_URL not set, caching disabled")
	}

	planService := services.NewPlanService(db, cache)
	paymentService := services.NewPaymentService(db, cache)
	sweepService := services.NewSweepService(db, cache,
		services.DefaultPolicy{
			MaxMissedPayments: cfg.MaxMissedPayments,
			MaxDaysOverdue:    cfg.MaxDaysOverdue,
		},
		services.EscalationContacts{
			OwnerEmail: cfg.OwnerNotifyEmail,
			BankEmail:  cfg.BankNotifyEmail,
		})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.HTTPErrorHandler = authmw.HTTPErrorHandler

	secret := []byte(cfg.AuthSecret)
	tokenTTL := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	cacheTTL := time.Duration(cfg.PlanCacheTTLSeconds) * time.Second

	authHandler := handlers.NewAuthHandler(db, secret, tokenTTL)
	customerHandler := handlers.NewCustomerHandler(db)
	planHandler := handlers.NewPlanHandler(db, planService, cache, cacheTTL)
	paymentHandler := handlers.NewPaymentHandler(paymentService, sweepService)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.POST("/auth/login", authHandler.Login)

	api := e.Group("/api/v1", authmw.RequireAuth(secret))

	api.POST("/customers", customerHandler.CreateCustomer)
	api.GET("/customers/:id", customerHandler.GetCustomer)
	api.PUT("/customers/:id/financial-profile", customerHandler.UpsertFinancialProfile)
	api.POST("/customers/:id/financial-profile/verify", customerHandler.VerifyFinancialProfile)

	api.POST("/plans", planHandler.CreatePlan)
	api.GET("/plans", planHandler.ListPlans)
	api.GET("/plans/:id", planHandler.GetPlan)
	api.POST("/plans/:id/cancel", planHandler.CancelPlan)

	api.POST("/payments/:id/apply", paymentHandler.ApplyPayment)
	api.GET("/payments/:id", paymentHandler.GetPayment)

	api.POST("/sweep", paymentHandler.RunSweep)

	log.Printf("Server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
