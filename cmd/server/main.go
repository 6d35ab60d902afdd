package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/zuma-code/chat-and-prompt-management/internal/config"
	"github.com/zuma-code/chat-and-prompt-management/internal/database"
	"github.com/zuma-code/chat-and-prompt-management/internal/handlers"
	"github.com/zuma-code/chat-and-prompt-management/internal/routes"
	"github.com/zuma-code/chat-and-prompt-management/internal/services"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting ChatPrompt Manager", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// ─── Database ────────────────────────────────────────────────────────
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(database.DB); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	db := database.DB

	// ─── Services ────────────────────────────────────────────────────────
	searchService := services.NewSearchService(db)
	cursorService := services.NewCursorService(db, cfg.AppURL)

	// ─── Handlers ────────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(cfg, db)
	conversationHandler := handlers.NewConversationHandler(db)
	promptHandler := handlers.NewPromptHandler(db)
	searchHandler := handlers.NewSearchHandler(cfg, searchService)
	cursorHandler := handlers.NewCursorHandler(db, cursorService)
	systemHandler := handlers.NewSystemHandler(db)

	// ─── Fiber App ───────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "chatprompt v" + handlers.Version,
		ServerHeader: "chatprompt",
		BodyLimit:    10 * 1024 * 1024, // 10MB for corpus imports
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ──────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, conversationHandler, promptHandler,
		searchHandler, cursorHandler, systemHandler)

	// ─── Graceful Shutdown ───────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down ChatPrompt Manager...")

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ───────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("ChatPrompt Manager listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
