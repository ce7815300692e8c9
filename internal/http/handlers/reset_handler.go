package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nokshibox/internal/log"
	"nokshibox/internal/services"
	"nokshibox/internal/validate"
)

// ResetHandler drives the forgotten-password flow:
// request (email) -> verify (answers + new password) -> login.
type ResetHandler struct {
	Reset   *services.ResetService
	Cookies Cookies
}

func (h *ResetHandler) RequestForm(c *fiber.Ctx) error {
	return render(c, "forget_password_request", fiber.Map{})
}

func (h *ResetHandler) Request(c *fiber.Ctx) error {
	sid := h.Cookies.ensureSID(c)
	email := c.FormValue("email")
	if err := h.Reset.Request(sid, email); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Security(c, "auth.reset.unknown", nil)
			return renderStatus(c, fiber.StatusBadRequest, "forget_password_request", fiber.Map{
				"Err": "User with this email does not exist.", "Email": email,
			})
		}
		return err
	}
	log.Audit(c, "auth.reset.request", nil)
	return c.Redirect("/forget-password/verify/")
}

func (h *ResetHandler) VerifyForm(c *fiber.Ctx) error {
	u, err := h.Reset.Pending(c.Cookies(sidCookie))
	if err != nil {
		if errors.Is(err, services.ErrNoChallenge) {
			return c.Redirect("/forget-password/")
		}
		return err
	}
	return render(c, "forget_password_verify", fiber.Map{"Email": u.Email})
}

func (h *ResetHandler) Verify(c *fiber.Ctx) error {
	sid := c.Cookies(sidCookie)
	var in services.VerifyInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	err := h.Reset.Verify(sid, in)
	if err == nil {
		log.Audit(c, "auth.reset.complete", nil)
		return c.Redirect("/login/?reset=done")
	}
	if errors.Is(err, services.ErrNoChallenge) {
		return c.Redirect("/forget-password/")
	}

	var msg string
	switch {
	case errors.Is(err, services.ErrWrongAnswers):
		msg = "Incorrect answers."
		log.Security(c, "auth.reset.wrong_answers", nil)
	case errors.Is(err, services.ErrPasswordMismatch):
		msg = "Passwords do not match."
	default:
		errs, ok := validate.AsErrors(err)
		if !ok {
			return err
		}
		msg = errs["new_password"]
	}
	data := fiber.Map{"Err": msg}
	if u, perr := h.Reset.Pending(sid); perr == nil {
		data["Email"] = u.Email
	}
	return renderStatus(c, fiber.StatusBadRequest, "forget_password_verify", data)
}
