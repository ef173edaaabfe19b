package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"marketplace/internal/handlers"
	"marketplace/internal/models"
	"marketplace/internal/repositories"
	"marketplace/internal/services"
	"marketplace/pkg/logger"
	"marketplace/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DATABASE_DSN", "host=localhost user=marketplace password=marketplace dbname=marketplace port=5432 sslmode=disable")
	viper.SetDefault("JWT_SECRET", "change-me-in-production")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	if err := logger.Initialize(viper.GetString("APP_ENV")); err != nil {
		panic(err)
	}
	defer logger.Sync()

	// --- Database ---
	db, err := gorm.Open(postgres.Open(viper.GetString("DATABASE_DSN")), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Review{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		logger.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			logger.Log.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
	} else {
		logger.Log.Info("RABBITMQ_URL not set, order events disabled")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, events)

	// --- Handlers & App ---
	app := newApp(authService, productService, cartService, orderService)

	// --- RabbitMQ Consumer ---
	if mqClient != nil {
		go func() {
			handler := func(msg amqp.Delivery) error {
				logger.Log.Info("order event received",
					zap.String("type", msg.Type),
					zap.ByteString("body", msg.Body))
				return nil
			}
			if err := mqClient.ConsumeOrderEvents(handler); err != nil {
				logger.Log.Error("failed to start order event consumer", zap.Error(err))
			}
		}()
	}

	// --- Start HTTP Server ---
	appPort := viper.GetString("APP_PORT")
	logger.Log.Info("starting server", zap.String("port", appPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			logger.Log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Log.Error("error during shutdown", zap.Error(err))
	}
	logger.Log.Info("server stopped")
}

// newApp assembles the Fiber app with middleware and all API routes.
func newApp(
	authService *services.AuthService,
	productService *services.ProductService,
	cartService *services.CartService,
	orderService *services.OrderService,
) *fiber.App {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewProductHandler(productService, authService).RegisterRoutes(api)
	handlers.NewCartHandler(cartService, authService).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService, authService).RegisterRoutes(api)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}
