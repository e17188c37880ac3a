// Package main seeds a development database with a staff user and a
// starter plan catalog.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"estateops/internal/core/entity"
	"estateops/internal/core/types"
	"estateops/internal/domain/documents"
	"estateops/internal/domain/parties"
	"estateops/internal/domain/plans"
	"estateops/internal/infrastructure/storage/postgres"
	"estateops/internal/infrastructure/storage/postgres/document_repo"
	"estateops/internal/infrastructure/storage/postgres/party_repo"
	"estateops/internal/infrastructure/storage/postgres/plan_repo"
	"estateops/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("required environment variable DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	partySvc := parties.NewService(party_repo.NewUserRepo(txManager), party_repo.NewCompanyRepo(txManager), log)
	planSvc := plans.NewService(plan_repo.NewRepo(txManager), txManager, log)
	docRepo := document_repo.NewRepo(txManager)

	admin, err := partySvc.CreateUser(ctx, parties.CreateUserInput{
		FirstName: "Admin",
		LastName:  "User",
		Email:     getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		Password:  getEnv("SEED_ADMIN_PASSWORD", "changeme123"),
		Roles:     []string{"admin"},
	})
	if err != nil {
		log.Fatalw("failed to create admin user", "error", err)
	}
	log.Infow("admin user created", "email", admin.Email)

	deposit := func(s string) types.Money {
		m, err := types.NewMoneyFromString(s)
		if err != nil {
			log.Fatalw("bad seed deposit", "value", s, "error", err)
		}
		return m
	}

	templates := []plans.CreateTemplateInput{
		{Name: "Starter 12", Category: "standard", Periods: 12, Frequency: plans.Monthly,
			DepositPercentage: deposit("20"), Difficulty: plans.DifficultyEasy, IsFeatured: true, SortOrder: 1},
		{Name: "Standard 24", Category: "standard", Periods: 24, Frequency: plans.Monthly,
			DepositPercentage: deposit("15"), Difficulty: plans.DifficultyModerate, SortOrder: 2},
		{Name: "Quarterly 8", Category: "flexible", Periods: 8, Frequency: plans.Quarterly,
			DepositPercentage: deposit("25"), Difficulty: plans.DifficultyModerate, SortOrder: 3},
		{Name: "Aggressive 6", Category: "short", Periods: 6, Frequency: plans.Monthly,
			DepositPercentage: deposit("40"), Difficulty: plans.DifficultyAggressive, SortOrder: 4},
	}
	for _, in := range templates {
		tmpl, err := planSvc.Create(ctx, in)
		if err != nil {
			log.Fatalw("failed to create plan template", "name", in.Name, "error", err)
		}
		log.Infow("plan template created", "name", tmpl.Name)
	}

	offerTemplate := &documents.DocumentTemplate{
		Base:         entity.NewBase(),
		Name:         "Standard Offer Letter",
		DocumentType: documents.OfferLetter,
		IsActive:     true,
		Body: `<html><body>
<h1>Offer Letter</h1>
<p>Dear {{buyer_name}},</p>
<p>We are pleased to offer you {{property_name}} in {{project_name}}
at a price of {{price}} with a down payment of {{down_payment}}.</p>
<p>This offer is valid until {{due_date}}.</p>
</body></html>`,
	}
	if err := docRepo.InsertTemplate(ctx, offerTemplate); err != nil {
		log.Fatalw("failed to create offer template", "error", err)
	}
	log.Infow("document template created", "name", offerTemplate.Name)

	log.Info("seed complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
