package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zuma-code/chat-and-prompt-management/internal/config"
	"github.com/zuma-code/chat-and-prompt-management/internal/handlers"
	"github.com/zuma-code/chat-and-prompt-management/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	conversationHandler *handlers.ConversationHandler,
	promptHandler *handlers.PromptHandler,
	searchHandler *handlers.SearchHandler,
	cursorHandler *handlers.CursorHandler,
	systemHandler *handlers.SystemHandler,
) {
	// ─── Public ──────────────────────────────────────────────────────────
	app.Get("/api/health", systemHandler.Health)

	// ─── Auth ────────────────────────────────────────────────────────────
	app.Post("/api/auth/register", authHandler.Register)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/refresh", authHandler.Refresh)

	// ─── Protected routes ────────────────────────────────────────────────
	api := app.Group("/api", middleware.JWTProtected(cfg.JWTSecret))

	// Auth (protected)
	api.Get("/auth/me", authHandler.Me)

	// Dashboard
	api.Get("/dashboard/overview", systemHandler.DashboardOverview)

	// Conversations
	api.Get("/conversations", conversationHandler.ListConversations)
	api.Post("/conversations", conversationHandler.CreateConversation)
	api.Get("/conversations/:id", conversationHandler.GetConversation)
	api.Put("/conversations/:id", conversationHandler.UpdateConversation)
	api.Delete("/conversations/:id", conversationHandler.DeleteConversation)
	api.Get("/conversations/:id/messages", conversationHandler.ListMessages)
	api.Post("/conversations/:id/messages", conversationHandler.AddMessage)

	// Prompts
	api.Get("/prompts", promptHandler.ListPrompts)
	api.Post("/prompts", promptHandler.CreatePrompt)
	api.Get("/prompts/:id", promptHandler.GetPrompt)
	api.Put("/prompts/:id", promptHandler.UpdatePrompt)
	api.Delete("/prompts/:id", promptHandler.DeletePrompt)
	api.Post("/prompts/:id/use", promptHandler.UsePrompt)
	api.Get("/prompts/:id/snippet", promptHandler.GetSnippet)

	// Prompt categories
	api.Get("/categories", promptHandler.ListCategories)
	api.Post("/categories", promptHandler.CreateCategory)

	// Search
	api.Get("/search", searchHandler.Search)
	api.Get("/search/suggestions", searchHandler.Suggestions)

	// Editor interchange
	cursor := api.Group("/cursor")
	cursor.Get("/export", cursorHandler.Export)
	cursor.Post("/import", cursorHandler.Import)
	cursor.Get("/sync", cursorHandler.Sync)
	cursor.Get("/workspace", cursorHandler.WorkspaceConfig)
}
