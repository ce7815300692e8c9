package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "nokshibox/internal/log"
	"nokshibox/internal/media"
)

// Media serves uploaded files from the store, refusing anything that would
// resolve outside its root.
func Media(store *media.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		full, ok := store.Resolve(path)
		if !ok {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(full, true)
	}
}
