package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/doitnow-api/config"
	"github.com/oksasatya/doitnow-api/internal/domain/entity"
	pginfra "github.com/oksasatya/doitnow-api/internal/infrastructure/postgres"
	"github.com/oksasatya/doitnow-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@doitnow.dev"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := pginfra.Seed(ctx, db, pginfra.DemoUser{
		FirstName: "Demo",
		LastName:  "User",
		Email:     email,
		Hash:      hash,
	}, []pginfra.DemoTask{
		{Name: "Write weekly report", Priority: entity.PriorityHigh, DueIn: 48 * time.Hour, Completed: true},
		{Name: "Review pull requests", Priority: entity.PriorityMedium, DueIn: 24 * time.Hour},
		{Name: "Water the plants", Priority: entity.PriorityLow, DueIn: 72 * time.Hour, Completed: true},
	}, time.Now().UTC())
	if err != nil {
		log.Fatalf("failed to seed: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)
}
