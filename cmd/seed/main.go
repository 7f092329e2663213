package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"formrelay/internal/config"
	"formrelay/internal/database"
	"formrelay/internal/domain"
	"formrelay/internal/modules/keys"
	"formrelay/internal/repository"
)

// Seeds a local database with the default admin user and one demo API key
// so the submit endpoint can be exercised right away.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.ApiKey{},
		&domain.Submission{},
		&domain.FileUpload{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	log.Println("Creating admin user...")
	hash, _ := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
	}
	if err := userRepo.Create(ctx, &admin); err != nil {
		log.Println("admin user exists, skipping:", err)
	}

	log.Println("Creating demo API key...")
	keysService := keys.NewService(apiKeyRepo, submissionRepo, noopRemover{})
	key, err := keysService.Create(ctx, keys.CreateKeyRequest{
		Name:           "Demo Contact Form",
		Description:    "Seeded key for local testing",
		RecipientEmail: cfg.AdminEmail,
	})
	if err != nil {
		log.Fatal("failed to create demo key:", err)
	}

	log.Println("Seed complete.")
	log.Printf("Submit endpoint: POST /api/v1/submit/%s", key.Key)
	log.Printf("Dashboard login: %s / %s", cfg.AdminEmail, cfg.AdminPassword)
}

type noopRemover struct{}

func (noopRemover) Remove(string) {}
