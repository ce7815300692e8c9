package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"nokshibox/internal/domain"
	applog "nokshibox/internal/log"
	"nokshibox/internal/services"
)

// Identify attaches the request's Actor, anonymous when there is no bound session.
func Identify(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a := domain.Actor{SID: c.Cookies(sidCookie)}
		if a.SID != "" {
			if u, err := auth.CurrentUser(a.SID); err == nil && u != nil {
				a.User = u
			}
		}
		c.Locals("actor", a)
		return c.Next()
	}
}

// RequireUser sends anonymous visitors to the login page, remembering where
// they were going.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !actorOf(c).Authenticated() {
			return c.Redirect("/login/?next=" + url.QueryEscape(c.OriginalURL()))
		}
		return c.Next()
	}
}

// RequireSeller must follow RequireUser. Buyers are sent to their own landing page.
func RequireSeller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !actorOf(c).IsSeller() {
			applog.Security(c, "access.denied.seller", nil)
			return c.Redirect(domain.RoleBuyer.LandingPath())
		}
		return c.Next()
	}
}

// RequireStaff gates the admin console; everyone else goes to the admin login.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		a := actorOf(c)
		if !a.IsStaff() {
			if a.Authenticated() {
				applog.Security(c, "access.denied.admin", nil)
			}
			return c.Redirect("/admin/login/")
		}
		return c.Next()
	}
}
