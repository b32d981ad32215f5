// ==============================================================================
// SUPPLIER ONBOARDING SERVICE - cmd/wizard/main.go
// ==============================================================================

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"onboarding/internal/domain"
	"onboarding/internal/extraction"
	"onboarding/internal/gateway"
	"onboarding/internal/handler"
	"onboarding/internal/invitation"
	"onboarding/internal/middleware"
	"onboarding/internal/token"
	"onboarding/internal/wizard"
	"onboarding/pkg/config"
	"onboarding/pkg/logger"
	"onboarding/pkg/mailer"
	"onboarding/pkg/validator"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.New("onboarding-service")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}

	// Remote gateways
	employeeClient := gateway.NewEmployeeClient(cfg.Gateways.EmployeeAPIURL, cfg.Gateways.RequestTimeout)
	orderClient := gateway.NewOrderClient(cfg.Gateways.OrderAPIURL, cfg.Gateways.OrderAPIURL, cfg.Gateways.OrderAPIToken, cfg.Gateways.RequestTimeout)
	tokenClient := gateway.NewTokenClient(cfg.Gateways.TokenAPIURL, cfg.Gateways.RequestTimeout)
	registrationClient := gateway.NewRegistrationClient(cfg.Gateways.RegistrationAPIURL, cfg.Gateways.OrderAPIToken, cfg.Gateways.RequestTimeout)
	extractionClient := gateway.NewExtractionClient(
		cfg.Gateways.ExtractionAPIURL,
		cfg.Gateways.ExtractionJobURL,
		cfg.Gateways.ExtractionAPIToken,
		cfg.Extraction.RenderDPI,
		cfg.Extraction.RenderPages,
		cfg.Gateways.RequestTimeout,
	)

	// Session store with background expiry sweep
	store := wizard.NewStore(cfg.Session.TTL, logger.Component(log, "store"))
	store.StartJanitor(cfg.Session.CleanupInterval)
	defer store.Stop()

	// Wizard core
	var saver wizard.Saver = registrationClient
	if !registrationClient.Enabled() {
		log.Warn("REGISTRATION_API_URL not set, registrations will be logged only", nil)
		saver = wizard.SaverFunc(func(_ context.Context, payload *domain.SubmissionPayload) error {
			log.Info("Registration received", map[string]interface{}{
				"country":   payload.Country,
				"mode":      string(payload.Mode),
				"documents": len(payload.Documents),
			})
			return nil
		})
	}
	wizardService := wizard.NewService(saver, logger.Component(log, "wizard"))

	// Extraction poller
	poller := extraction.New(extractionClient, extraction.Policy{
		Interval:    cfg.Extraction.PollInterval,
		MaxAttempts: cfg.Extraction.MaxAttempts,
		MaxElapsed:  cfg.Extraction.MaxElapsed,
	}, logger.Component(log, "extraction"))

	// Invitation flow
	links := invitation.NewLinkBuilder(cfg.Link.BaseURL, cfg.Link.Secret, cfg.Link.Expiration)
	val := validator.New()
	invitationService := invitation.NewService(employeeClient, orderClient, links, val, logger.Component(log, "invitation"))

	// OTP token flow
	m := mailer.New(mailer.Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.SMTPFrom,
		UseTLS:   cfg.Email.SMTPUseTLS,
	})
	tokenService := token.NewService(tokenClient, m, token.Config{
		DevCode:    cfg.OTP.DevCode,
		RemoteCode: cfg.OTP.RemoteCode,
		Expiration: cfg.OTP.Expiration,
	}, logger.Component(log, "token"))

	// Handlers
	hub := handler.NewProgressHub()
	uploadConfig := handler.DefaultUploadConfig()
	uploadConfig.MaxFileSizeMB = cfg.Upload.MaxFileSizeMB
	uploadConfig.MinFileSizeKB = cfg.Upload.MinFileSizeKB

	wizardHandler := handler.NewWizardHandler(store, wizardService, log)
	uploadHandler := handler.NewUploadHandler(store, wizardService, poller, hub, log, uploadConfig)
	progressHandler := handler.NewProgressHandler(hub, log)
	invitationHandler := handler.NewInvitationHandler(invitationService, links, orderClient, log)
	tokenHandler := handler.NewTokenHandler(store, tokenService, log)
	systemHandler := handler.NewSystemHandler(store, redisClient, log)

	// Setup router
	r := mux.NewRouter()

	// Middleware
	r.Use(middleware.CORS)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.NewRateLimiter(redisClient, 120, time.Minute).Limit)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery)
	r.Use(middleware.BodyLimit((cfg.Upload.MaxFileSizeMB+2)*1024*1024)) // headroom over the largest upload

	// Routes
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/system/status", systemHandler.GetSystemStatus).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Intake side
	api.HandleFunc("/employees", invitationHandler.SearchEmployee).Methods("GET")
	idem := middleware.NewIdempotencyMiddleware(redisClient, 24*time.Hour)
	api.Handle("/invitations", idem.Require(http.HandlerFunc(invitationHandler.CreateInvitation))).Methods("POST")
	api.HandleFunc("/invited/validate", invitationHandler.ValidateEntry).Methods("GET")
	api.HandleFunc("/countries", systemHandler.GetCountries).Methods("GET")

	// Wizard sessions
	api.HandleFunc("/wizard/sessions", wizardHandler.CreateSession).Methods("POST")
	api.HandleFunc("/wizard/sessions/{id}", wizardHandler.GetSession).Methods("GET")
	api.HandleFunc("/wizard/sessions/{id}", wizardHandler.DeleteSession).Methods("DELETE")
	api.HandleFunc("/wizard/sessions/{id}/step", wizardHandler.GoToStep).Methods("POST")
	api.HandleFunc("/wizard/sessions/{id}/country", wizardHandler.ChangeCountry).Methods("POST")
	api.HandleFunc("/wizard/sessions/{id}/prev", wizardHandler.PrevStep).Methods("POST")
	api.HandleFunc("/wizard/sessions/{id}/business", wizardHandler.PatchBusiness).Methods("PATCH")
	api.HandleFunc("/wizard/sessions/{id}/lookup", wizardHandler.PatchLookup).Methods("PATCH")
	api.HandleFunc("/wizard/sessions/{id}/submit", wizardHandler.Submit).Methods("POST")

	// Documents and extraction
	api.HandleFunc("/wizard/sessions/{id}/documents/{key}", uploadHandler.UploadDocument).Methods("POST")
	api.HandleFunc("/wizard/sessions/{id}/documents/{key}", uploadHandler.RemoveDocument).Methods("DELETE")
	api.HandleFunc("/wizard/sessions/{id}/documents/{key}/progress", progressHandler.GetProgress).Methods("GET")
	api.HandleFunc("/wizard/sessions/{id}/documents/{key}/progress/ws", progressHandler.StreamProgress).Methods("GET")

	// OTP gate
	api.HandleFunc("/wizard/sessions/{id}/token", tokenHandler.RequestCode).Methods("POST")
	api.HandleFunc("/wizard/sessions/{id}/token/validate", tokenHandler.ValidateCode).Methods("POST")

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("Onboarding service starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Server stopped", nil)
}
