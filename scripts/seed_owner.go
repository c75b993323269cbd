package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

// Seeds (or resets the password of) the admin account named by OWNER_EMAIL.
func main() {
	fmt.Println("adding owner into database...")

	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	email := strings.ToLower(strings.TrimSpace(os.Getenv("OWNER_EMAIL")))
	password := os.Getenv("OWNER_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("OWNER_EMAIL and OWNER_PASSWORD are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	ctx := context.Background()
	appLogger := logger.NewZapLogger(cfg.App.Env)
	pool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewPostgresAccountRepo(pool, appLogger)
	owner, err := repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		owner = account.New(email, hash)
	case err != nil:
		log.Fatalf("cannot look up owner: %v", err)
	}
	owner.PasswordHash = hash
	owner.IsAdmin = true
	owner.Plan = plan.TierPro

	if err := repo.Save(ctx, owner); err != nil {
		log.Fatalf("cannot add owner: %v", err)
	}

	fmt.Printf("added or updated owner '%s' successfully!\n", email)
}
