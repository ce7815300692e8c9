package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sidCookie = "sid"

// Cookies configures the session cookie.
type Cookies struct {
	Secure bool
}

func (ck Cookies) set(c *fiber.Ctx, sid string) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   ck.Secure,
	})
}

// ensureSID returns the request's session id, issuing one if absent.
func (ck Cookies) ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sidCookie)
	if sid == "" {
		sid = newSID()
		ck.set(c, sid)
	}
	return sid
}

// newSID mints a session id. Sign-in always binds a fresh one so a
// pre-login cookie never becomes an authenticated session.
func newSID() string { return uuid.NewString() }

func (ck Cookies) expire(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   ck.Secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
