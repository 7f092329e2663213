package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"formrelay/internal/config"
	"formrelay/internal/database"
	"formrelay/internal/domain"
	"formrelay/internal/mailer"
	"formrelay/internal/middleware"
	"formrelay/internal/modules/auth"
	"formrelay/internal/modules/ingest"
	"formrelay/internal/modules/keys"
	"formrelay/internal/modules/submissions"
	jwtsvc "formrelay/internal/pkg/jwt"
	"formrelay/internal/pkg/response"
	"formrelay/internal/repository"
	"formrelay/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.ApiKey{},
		&domain.Submission{},
		&domain.FileUpload{},
	); err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	if err := ensureAdminUser(userRepo, cfg); err != nil {
		log.Fatal(err)
	}

	stager := storage.NewStager(cfg.UploadDir, storage.Policy{
		MaxFileSize:       cfg.MaxFileSize,
		AllowedExtensions: cfg.AllowedExtensions,
	})

	smtp := mailer.New(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		AppURL:    cfg.AppURL,
	})

	j := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	ingestService := ingest.NewService(apiKeyRepo, submissionRepo, stager, smtp)
	ingestHandler := ingest.NewHandler(ingestService)

	keysService := keys.NewService(apiKeyRepo, submissionRepo, stager)
	keysHandler := keys.NewHandler(keysService)

	submissionsService := submissions.NewService(submissionRepo, apiKeyRepo, stager)
	submissionsHandler := submissions.NewHandler(submissionsService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	// public ingestion
	v1 := r.Group("/api/v1")
	ingestHandler.RegisterRoutes(v1)

	// dashboard
	api := r.Group("/api")
	authHandler.RegisterPublicRoutes(api)

	protected := api.Group("/")
	protected.Use(middleware.JWTAuth(j))
	{
		authHandler.RegisterProtectedRoutes(protected)
		keysHandler.RegisterRoutes(protected)
		submissionsHandler.RegisterRoutes(protected)
	}

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, 200, "", gin.H{"status": "healthy"})
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// ensureAdminUser creates the dashboard admin on first boot so a fresh
// deployment is immediately usable.
func ensureAdminUser(users *repository.UserRepository, cfg *config.Config) error {
	ctx := context.Background()
	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := users.Create(ctx, &domain.User{
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
	}); err != nil {
		return err
	}

	log.Printf("default admin user created: %s", cfg.AdminEmail)
	return nil
}
