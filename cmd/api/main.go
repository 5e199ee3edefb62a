package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fuelstop/fuelstop-api/internal/config"
	"github.com/fuelstop/fuelstop-api/internal/domain/account"
	"github.com/fuelstop/fuelstop-api/internal/domain/auth"
	"github.com/fuelstop/fuelstop-api/internal/domain/ledger"
	"github.com/fuelstop/fuelstop-api/internal/domain/notification"
	"github.com/fuelstop/fuelstop-api/internal/domain/order"
	"github.com/fuelstop/fuelstop-api/internal/domain/payment"
	"github.com/fuelstop/fuelstop-api/internal/domain/pricing"
	"github.com/fuelstop/fuelstop-api/internal/domain/redemption"
	"github.com/fuelstop/fuelstop-api/internal/domain/referral"
	"github.com/fuelstop/fuelstop-api/internal/domain/support"
	"github.com/fuelstop/fuelstop-api/internal/domain/transaction"
	"github.com/fuelstop/fuelstop-api/internal/middleware"
	"github.com/fuelstop/fuelstop-api/internal/pkg/database"
	"github.com/fuelstop/fuelstop-api/internal/pkg/jwt"
	"github.com/fuelstop/fuelstop-api/internal/pkg/razorpay"
	pkgresponse "github.com/fuelstop/fuelstop-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting FuelStop API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	gateway := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
	})

	// ---------- Repositories ----------
	accountRepo := account.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	pricingRepo := pricing.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	redemptionRepo := redemption.NewRepository(db, ledgerRepo)
	orderRepo := order.NewRepository(db)
	transactionRepo := transaction.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	supportRepo := support.NewRepository(db)

	// ---------- WebSocket hub ----------
	hub := notification.NewHub(redis)
	go hub.Run()
	defer hub.Stop()

	// ---------- Services ----------
	accountService := account.NewService(accountRepo)
	ledgerService := ledger.NewService(ledgerRepo)
	pricingService := pricing.NewService(pricingRepo)
	notificationService := notification.NewService(notificationRepo, hub)
	redemptionService := redemption.NewService(redemptionRepo, notificationService, cfg.RedemptionExpiry)
	transactionService := transaction.NewService(transactionRepo, ledgerService, pricingService, redemptionService, notificationService)
	referralService := referral.NewService(accountService, ledgerService, transactionService, notificationService, cfg.ReferralBonusPoints)
	authService := auth.NewService(accountService, jwtService, redis, referralService)
	supportService := support.NewService(supportRepo, accountService, notificationService)

	// Orders refund through payments and payments settle orders, so the
	// refunder is bound after both services exist
	refunder := &refunderBinding{}

	orderPolicy := order.DefaultPolicy()
	orderPolicy.PickupWindow = cfg.OrderExpiry
	orderService := order.NewService(orderRepo, ledgerService, pricingService, refunder, notificationService, orderPolicy)

	paymentService := payment.NewService(paymentRepo, gateway, orderService, payment.Config{
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
	})
	refunder.svc = paymentService

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	accountHandler := account.NewHandler(accountService)
	ledgerHandler := ledger.NewHandler(ledgerService)
	pricingHandler := pricing.NewHandler(pricingService)
	notificationHandler := notification.NewHandler(notificationService, hub, cfg.AllowedOrigins)
	redemptionHandler := redemption.NewHandler(redemptionService)
	orderHandler := order.NewHandler(orderService)
	transactionHandler := transaction.NewHandler(transactionService)
	paymentHandler := payment.NewHandler(paymentService)
	supportHandler := support.NewHandler(supportService)

	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (before Compress)
	r.Get("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(notificationHandler.WebSocket)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/prices", pricingHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/points", ledgerHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/orders", orderHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/redemptions", redemptionHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/transactions", transactionHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/payments", paymentHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
		r.Mount("/support", supportHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/customers", accountHandler.Routes(authMiddleware, adminMiddleware))
	})

	r.Post("/webhooks/razorpay", paymentHandler.Webhook)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}

// refunderBinding breaks the order/payment construction cycle. The payment
// service is assigned right after it is built, before the server starts.
type refunderBinding struct {
	svc payment.Service
}

func (b *refunderBinding) Refund(ctx context.Context, gatewayPaymentID string, amount float64) (string, error) {
	if b.svc == nil {
		return "", payment.ErrNotFound
	}
	return b.svc.Refund(ctx, gatewayPaymentID, amount)
}
