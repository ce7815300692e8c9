package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nokshibox/internal/domain"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	a := actorOf(c)
	data["Actor"] = a
	if a.User != nil {
		data["User"] = a.User
	}
	// Token from the CSRF middleware; the cookie is a fallback when Locals is empty.
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func renderStatus(c *fiber.Ctx, status int, tmpl string, data fiber.Map) error {
	c.Status(status)
	return render(c, tmpl, data)
}

// RenderStatus renders tmpl with the layout data (actor, CSRF token) that
// every page expects. Used by middleware outside this package.
func RenderStatus(c *fiber.Ctx, status int, tmpl string, data fiber.Map) error {
	return renderStatus(c, status, tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return renderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": msg})
}

// actorOf returns the identity attached by Identify, or an anonymous actor.
func actorOf(c *fiber.Ctx) domain.Actor {
	a, _ := c.Locals("actor").(domain.Actor)
	return a
}
