// Package main is the entry point for the estateops API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"estateops/internal/core/security"
	"estateops/internal/domain/auth"
	"estateops/internal/domain/commissions"
	"estateops/internal/domain/documents"
	"estateops/internal/domain/hooks"
	"estateops/internal/domain/locations"
	"estateops/internal/domain/ownership"
	"estateops/internal/domain/parties"
	"estateops/internal/domain/plans"
	"estateops/internal/domain/sales"
	"estateops/internal/infrastructure/gateway/sasapay"
	v1 "estateops/internal/infrastructure/http/v1"
	"estateops/internal/infrastructure/http/v1/handlers"
	"estateops/internal/infrastructure/render"
	"estateops/internal/infrastructure/storage/blob"
	"estateops/internal/infrastructure/storage/postgres"
	"estateops/internal/infrastructure/storage/postgres/auth_repo"
	"estateops/internal/infrastructure/storage/postgres/commission_repo"
	"estateops/internal/infrastructure/storage/postgres/document_repo"
	"estateops/internal/infrastructure/storage/postgres/location_repo"
	"estateops/internal/infrastructure/storage/postgres/ownership_repo"
	"estateops/internal/infrastructure/storage/postgres/party_repo"
	"estateops/internal/infrastructure/storage/postgres/plan_repo"
	"estateops/internal/infrastructure/storage/postgres/sale_repo"
	"estateops/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting estateops server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	locationRepo := location_repo.NewRepo(txManager)
	ownershipRepo := ownership_repo.NewRepo(txManager)
	planRepo := plan_repo.NewRepo(txManager)
	saleRepo := sale_repo.NewRepo(txManager)
	commissionRepo := commission_repo.NewRepo(txManager)
	documentRepo := document_repo.NewRepo(txManager)
	userRepo := party_repo.NewUserRepo(txManager)
	companyRepo := party_repo.NewCompanyRepo(txManager)
	tokenRepo := auth_repo.NewRepo(txManager)

	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	// --- External collaborators ---
	blobStore, err := blob.NewDiskStore(getEnv("BLOB_DIR", "./data/documents"))
	if err != nil {
		log.Fatalw("failed to initialize blob store", "error", err)
	}
	pdfRenderer := render.NewGotenbergClient(getEnv("GOTENBERG_URL", "http://localhost:3000"))
	gateway := sasapay.NewClient(sasapay.Config{
		BaseURL:      getEnv("SASAPAY_BASE_URL", "https://sandbox.sasapay.app"),
		ClientID:     getEnv("SASAPAY_CLIENT_ID", ""),
		ClientSecret: getEnv("SASAPAY_CLIENT_SECRET", ""),
	}, log)

	// --- Feature flags ---
	flags := security.NewInMemoryFlags()
	flags.SetFlag(security.FlagMarkUnitSoldOnSign,
		getEnv("FLAG_MARK_UNIT_SOLD_ON_SIGN", "false") == "true")
	flags.SetFlag(security.FlagRecomputeCommissionOnSign,
		getEnv("FLAG_RECOMPUTE_COMMISSION_ON_SIGN", "false") == "true")

	// --- Domain services ---
	locationSvc := locations.NewService(locationRepo, txManager, log)
	partySvc := parties.NewService(userRepo, companyRepo, log)

	ownershipValidator := ownership.NewValidator(ownershipRepo, locationRepo, partySvc)
	ownershipSvc := ownership.NewService(ownershipRepo, locationRepo, ownershipValidator, txManager, log)

	planSvc := plans.NewService(planRepo, txManager, log)
	commissionSvc := commissions.NewService(commissionRepo, saleRepo, txManager, log)
	saleSvc := sales.NewService(saleRepo, locationSvc, partySvc, planSvc, commissionSvc, txManager, log)
	evaluator := sales.NewEvaluator(saleRepo, log)

	documentSvc := documents.NewService(documentRepo, pdfRenderer, blobStore, locationRepo, userRepo, txManager, log)
	documentSvc.RegisterSignHook(hooks.NewMarkUnitSold(flags, locationSvc, log))
	documentSvc.RegisterSignHook(hooks.NewRecomputeCommission(flags, saleRepo, commissionSvc, log))

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authSvc := auth.NewService(userRepo, tokenRepo, jwtService, auth.DefaultServiceConfig(), log)

	// --- Router ---
	router := v1.NewRouter(v1.Handlers{
		Health:      handlers.NewHealthHandler(pool.Pool),
		Auth:        handlers.NewAuthHandler(authSvc),
		Locations:   handlers.NewLocationsHandler(locationSvc, saleSvc),
		Ownership:   handlers.NewOwnershipHandler(ownershipSvc),
		Plans:       handlers.NewPlansHandler(planSvc),
		Sales:       handlers.NewSalesHandler(saleSvc, evaluator),
		Commissions: handlers.NewCommissionsHandler(commissionSvc),
		Documents:   handlers.NewDocumentsHandler(documentSvc),
		Parties:     handlers.NewPartiesHandler(partySvc),
		Payments:    handlers.NewPaymentsHandler(gateway),
		Audit:       handlers.NewAuditHandler(auditStore),
	}, jwtService, log)

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
