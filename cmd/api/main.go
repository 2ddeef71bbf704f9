package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/http/handlers"
	appmw "github.com/NishanKutu/ghumfir-api/internal/http/middleware"
	"github.com/NishanKutu/ghumfir-api/internal/platform/mailer"
	"github.com/NishanKutu/ghumfir-api/internal/platform/payment"
	"github.com/NishanKutu/ghumfir-api/internal/platform/storage"
	"github.com/NishanKutu/ghumfir-api/internal/repo/postgres"
	"github.com/NishanKutu/ghumfir-api/internal/service"
	"github.com/NishanKutu/ghumfir-api/pkg/config"
	"github.com/NishanKutu/ghumfir-api/pkg/database"
	"github.com/NishanKutu/ghumfir-api/pkg/events"
	"github.com/NishanKutu/ghumfir-api/pkg/logger"
	mw "github.com/NishanKutu/ghumfir-api/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus; the API stays up without it.
	var eventBus events.Publisher
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, events disabled", "error", err)
			eventBus = events.NewNoop()
		} else {
			eventBus = bus
		}
	} else {
		eventBus = events.NewNoop()
	}
	defer eventBus.Close()

	// Redis backs the auth rate limiter; nil client means limits off.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("Invalid Redis URL, rate limiting disabled", "error", err)
		} else {
			if cfg.Redis.Password != "" {
				opts.Password = cfg.Redis.Password
			}
			if cfg.Redis.DB != 0 {
				opts.DB = cfg.Redis.DB
			}
			redisClient = redis.NewClient(opts)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis unavailable, rate limiting disabled", "error", err)
				redisClient = nil
			}
		}
	}

	uploads, err := storage.NewUploadStore(cfg.App.UploadDir)
	if err != nil {
		logger.Error("Failed to prepare upload directory", "error", err)
		os.Exit(1)
	}

	mail := buildMailer(cfg)
	signer := payment.NewSigner(cfg.ESewa)

	// Repositories
	userRepo := postgres.NewUserRepo(pool)
	tokenRepo := postgres.NewTokenRepo(pool)
	destinationRepo := postgres.NewDestinationRepo(pool)
	bookingRepo := postgres.NewBookingRepo(pool)
	reviewRepo := postgres.NewReviewRepo(pool)
	faqRepo := postgres.NewFAQRepo(pool)

	// Services
	authSvc := service.NewAuthService(userRepo, tokenRepo, mail, eventBus, cfg)
	destinationSvc := service.NewDestinationService(destinationRepo, uploads)
	bookingSvc := service.NewBookingService(bookingRepo, destinationRepo, signer, eventBus)
	reviewSvc := service.NewReviewService(reviewRepo, destinationRepo, uploads, eventBus)
	faqSvc := service.NewFAQService(faqRepo)

	// Handlers
	authH := handlers.NewAuthHandler(authSvc)
	destinationH := handlers.NewDestinationHandler(destinationSvc)
	bookingH := handlers.NewBookingHandler(bookingSvc, cfg.App.FrontendURL)
	reviewH := handlers.NewReviewHandler(reviewSvc)
	faqH := handlers.NewFAQHandler(faqSvc)

	authLimiter := appmw.NewRateLimiter(redisClient, 10, time.Minute)
	requireAuth := appmw.RequireAuth(cfg.Auth.JWTSecret)
	requireAdmin := appmw.RequireRole(domain.RoleAdmin)

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Mount("/user", authH.Routes(authLimiter.Middleware(), requireAuth, requireAdmin))
		api.Mount("/destinations", destinationH.Routes(requireAuth, requireAdmin))
		api.Mount("/bookings", bookingH.Routes(requireAuth, requireAdmin))
		api.Mount("/reviews", reviewH.Routes(requireAuth))
		api.Mount("/faqs", faqH.Routes(requireAuth, requireAdmin))
	})

	// Uploaded images are served straight from disk.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir())))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	// Expired auth tokens are swept in the background.
	go sweepExpiredTokens(ctx, tokenRepo)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting ghumfir api", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func buildMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		logger.Info("Using dev mailer, emails are logged only")
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, "Ghumfir", cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass,
			cfg.Email.SMTPUseTLS,
		)
	}
}

func sweepExpiredTokens(ctx context.Context, tokens postgres.TokenRepo) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokens.DeleteExpiredTokens(ctx)
			if err != nil {
				logger.Error("Token sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("Removed expired auth tokens", "count", n)
			}
		}
	}
}
