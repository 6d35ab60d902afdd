package handlers

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/zuma-code/chat-and-prompt-management/internal/config"
	"github.com/zuma-code/chat-and-prompt-management/internal/services"
)

type SearchHandler struct {
	cfg    *config.Config
	search *services.SearchService
}

func NewSearchHandler(cfg *config.Config, search *services.SearchService) *SearchHandler {
	return &SearchHandler{cfg: cfg, search: search}
}

// Search runs the multi-entity search. Filters arrive as query params;
// list-valued ones are comma separated.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	filters := services.SearchFilters{
		Query:      c.Query("query"),
		Type:       c.Query("type"),
		Visibility: c.Query("visibility"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	if tags := c.Query("tags"); tags != "" {
		filters.Tags = splitParam(tags)
	}
	if status := c.Query("status"); status != "" {
		filters.Status = splitParam(status)
	}
	if categories := c.Query("categories"); categories != "" {
		for _, raw := range splitParam(categories) {
			id, err := uuid.Parse(raw)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   true,
					"message": "Invalid category ID in categories filter",
				})
			}
			filters.Categories = append(filters.Categories, id)
		}
	}

	from, to := c.Query("from"), c.Query("to")
	if from != "" && to != "" {
		fromTime, err1 := time.Parse(time.RFC3339, from)
		toTime, err2 := time.Parse(time.RFC3339, to)
		if err1 != nil || err2 != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "from and to must be RFC3339 timestamps",
			})
		}
		filters.DateRange = &services.DateRange{From: fromTime, To: toTime}
	}

	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(h.cfg.DefaultSearchLimit)))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	response, err := h.search.Search(c.Context(), userID, filters, limit, offset)
	if err != nil {
		slog.Error("Search failed", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Search failed",
		})
	}
	return c.JSON(response)
}

// Suggestions returns autocomplete candidates for a partial query.
func (h *SearchHandler) Suggestions(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	suggestions, err := h.search.Suggestions(c.Context(), userID, c.Query("q"))
	if err != nil {
		slog.Error("Suggestion lookup failed", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to load suggestions",
		})
	}
	return c.JSON(fiber.Map{"suggestions": suggestions})
}

func splitParam(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
