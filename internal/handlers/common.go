package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const Version = "1.0.0"

// currentUserID reads the authenticated user id stored by the JWT
// middleware.
func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("user_id").(uuid.UUID)
	return id, ok
}

func errUnauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   true,
		"message": "Not authenticated",
	})
}

func datatypesTags(tags []string) datatypes.JSONSlice[string] {
	if tags == nil {
		tags = []string{}
	}
	return datatypes.NewJSONSlice(tags)
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
