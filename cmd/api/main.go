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

	"github.com/rentora/rentora-backend/internal/cache"
	"github.com/rentora/rentora-backend/internal/handlers"
	"github.com/rentora/rentora-backend/internal/mailer"
	"github.com/rentora/rentora-backend/internal/payments"
	"github.com/rentora/rentora-backend/internal/repository"
	"github.com/rentora/rentora-backend/internal/service"
	"github.com/rentora/rentora-backend/pkg/auth"
	"github.com/rentora/rentora-backend/pkg/config"
	"github.com/rentora/rentora-backend/pkg/database"
	"github.com/rentora/rentora-backend/pkg/events"
	"github.com/rentora/rentora-backend/pkg/logger"
	mw "github.com/rentora/rentora-backend/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	if err := database.Migrate(ctx, cfg.Database.URL); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var eventBus events.Publisher
	eventBus, err = events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Warn("NATS unavailable, events disabled", "error", err)
		eventBus = events.NoopPublisher{}
	}
	defer eventBus.Close()

	var idempotencyStore mw.IdempotencyStore
	redisStore, err := cache.NewRedisStore(cfg.Redis.URL)
	if err == nil {
		if pingErr := redisStore.Ping(ctx); pingErr != nil {
			logger.Warn("Redis unavailable, idempotency disabled", "error", pingErr)
		} else {
			idempotencyStore = redisStore
			defer redisStore.Close()
		}
	} else {
		logger.Warn("Redis unavailable, idempotency disabled", "error", err)
	}

	mailSvc := buildMailer(cfg)
	charger := payments.NewStripeCharger(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	userRepo := repository.NewUserRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	carRepo := repository.NewCarRepository(pool)
	contentRepo := repository.NewContentRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(pool)

	authService := service.NewAuthService(userRepo, tokens, mailSvc, eventBus, cfg)
	userService := service.NewUserService(userRepo, cfg)
	bookingService := service.NewBookingService(bookingRepo, charger, eventBus)
	carService := service.NewCarService(carRepo)
	contentService := service.NewContentService(contentRepo)
	statsService := service.NewStatsService(statsRepo)

	h := handlers.New(authService, userService, bookingService, carService,
		contentService, statsService, tokens, userRepo, rateLimitRepo, cfg)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	staff := h.RequireRole("moderator", "admin")
	adminOnly := h.RequireRole("admin")

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/public/content", h.PublicContent)
		r.Get("/cars", h.ListCars)
		r.Get("/cars/{carID}", h.GetCar)

		r.Route("/auth", func(r chi.Router) {
			r.With(h.RateLimit("register", 5, time.Minute)).Post("/register", h.Register)
			r.With(h.RateLimit("verify", 10, time.Minute)).Post("/verify-email", h.VerifyEmail)
			r.With(h.RateLimit("resend", 3, time.Minute)).Post("/resend-code", h.ResendCode)
			r.With(h.RateLimit("login", 10, time.Minute)).Post("/login", h.Login)
		})

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/users/me", h.Me)
			r.Put("/users/profile", h.UpdateProfile)
			r.Put("/users/change-password", h.ChangePassword)
			r.Get("/dashboard", h.Dashboard)

			r.Route("/bookings", func(r chi.Router) {
				if idempotencyStore != nil {
					r.With(mw.Idempotency(idempotencyStore)).Post("/", h.CreateBooking)
				} else {
					r.Post("/", h.CreateBooking)
				}
				r.Get("/my-bookings", h.MyBookings)
				r.With(staff).Get("/", h.ListBookings)
				r.With(staff).Patch("/{bookingID}/status", h.UpdateBookingStatus)
			})

			r.With(staff).Get("/users", h.ListUsers)
			r.With(adminOnly).Patch("/users/{userID}/role", h.UpdateUserRole)
			r.With(adminOnly).Delete("/users/{userID}", h.DeleteUser)

			r.Group(func(r chi.Router) {
				r.Use(staff)
				r.Post("/cars", h.CreateCar)
				r.Put("/cars/{carID}", h.UpdateCar)
				r.Delete("/cars/{carID}", h.DeleteCar)
				r.Get("/content", h.ListContent)
				r.Get("/content/{blockID}", h.GetContent)
				r.Get("/dashboard/summary", h.DashboardSummary)
				r.Get("/dashboard/charts", h.DashboardCharts)
			})

			r.With(adminOnly).Post("/content", h.CreateContent)
			r.With(adminOnly).Put("/content/{blockID}", h.UpdateContent)
		})
	})

	// Expired rate-limit rows pile up otherwise.
	go cleanupRateLimits(ctx, rateLimitRepo)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func buildMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		logger.Info("Using dev mailer, verification codes are logged")
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom, cfg.Email.SendTimeout)
	default:
		return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}
}

func cleanupRateLimits(ctx context.Context, repo repository.RateLimitRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if deleted, err := repo.CleanupExpired(ctx); err != nil {
				logger.Error("Rate limit cleanup failed", "error", err)
			} else if deleted > 0 {
				logger.Info("Cleaned up expired rate limits", "deleted", deleted)
			}
		}
	}
}
