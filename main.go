package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"luxe/internal/assetstore"
	"luxe/internal/config"
	"luxe/internal/handlers"
	"luxe/internal/middleware"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/internal/services"
	"luxe/internal/validation"
	"luxe/pkg/mailer"
	"luxe/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Asset store ---
	var store assetstore.Store
	if cfg.Cloudinary.CloudName != "" {
		cloudStore, err := assetstore.NewCloudinaryStore(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("Failed to initialize asset store: %v", err)
		}
		store = cloudStore
	} else {
		log.Println("CLOUDINARY_CLOUD_NAME not set; using in-memory asset store (development only)")
		store = assetstore.NewMemoryStore()
	}

	// --- Notifications ---
	// Verification emails go through RabbitMQ when it is configured; the
	// consumer below delivers them over SMTP. Without a broker the mailer
	// sends directly from the request path.
	smtpMailer := mailer.New(mailer.Config{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		From:        cfg.SMTP.From,
		FrontendURL: cfg.FrontendURL,
	})

	var notifier services.NotificationSender = smtpMailer
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, sending emails directly: %v", err)
		} else {
			defer mqClient.Close()
			notifier = mqClient
			if err := mqClient.ConsumeNotificationEvents(func(event rabbitmq.VerificationRequested) error {
				return smtpMailer.SendVerification(event.Email, event.Token)
			}); err != nil {
				log.Printf("Warning: failed to start notification consumer: %v", err)
			}
		}
	}

	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	validate := validation.New(cfg.MaxStock)
	imageRules := validation.ImageRules{Min: cfg.MinImages, Max: cfg.MaxImages}
	tokenService := services.NewTokenService(cfg.JWTSecret)
	productService := services.NewProductService(productRepo, store, cfg.AssetOpTimeout)
	accountService := services.NewAccountService(userRepo, tokenService, services.NewBcryptHasher(), notifier)

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(productService, validate, imageRules)
	authHandler := handlers.NewAuthHandler(accountService, validate)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	authRequired := middleware.AuthRequired(tokenService)
	adminOnly := middleware.AdminOnly()

	productHandler.RegisterRoutes(app, authRequired, adminOnly)
	authHandler.RegisterRoutes(app, authRequired)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP server with graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
