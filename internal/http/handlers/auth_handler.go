package handlers

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"nokshibox/internal/log"
	"nokshibox/internal/media"
	"nokshibox/internal/services"
	"nokshibox/internal/validate"
)

type AuthHandler struct {
	Auth         *services.AuthService
	Media        *media.Store
	Cookies      Cookies
	AllowedHosts []string
}

func (h *AuthHandler) SignupForm(c *fiber.Ctx) error {
	return render(c, "signup", fiber.Map{"Form": services.SignupInput{}, "Errors": validate.Errors{}})
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var in services.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return renderStatus(c, fiber.StatusBadRequest, "signup", fiber.Map{
			"Form": in, "Errors": validate.Errors{"form": "Invalid form submission."},
		})
	}
	// Never echo passwords back into the form.
	redisplay := in
	redisplay.Password1, redisplay.Password2 = "", ""

	if errs := h.Auth.CheckSignup(in); len(errs) > 0 {
		log.Security(c, "auth.signup.invalid", map[string]any{"fields": fieldNames(errs)})
		return renderStatus(c, fiber.StatusBadRequest, "signup", fiber.Map{"Form": redisplay, "Errors": errs})
	}
	if fh := uploaded(c, "photo"); fh != nil {
		rel, err := h.Media.SaveImage(fh, "profiles")
		if err != nil {
			return renderStatus(c, fiber.StatusBadRequest, "signup", fiber.Map{
				"Form": redisplay, "Errors": validate.Errors{"photo": uploadMessage(err)},
			})
		}
		in.Photo = rel
	}

	u, err := h.Auth.Signup(in)
	if err != nil {
		if in.Photo != "" {
			_ = h.Media.Remove(in.Photo)
		}
		errs, ok := validate.AsErrors(err)
		if !ok && errors.Is(err, services.ErrEmailTaken) {
			errs, ok = validate.Errors{"email": "User with this Email already exists."}, true
		}
		if ok {
			return renderStatus(c, fiber.StatusBadRequest, "signup", fiber.Map{"Form": redisplay, "Errors": errs})
		}
		return err
	}
	log.Audit(c, "auth.signup", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.Redirect("/login/")
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{
		"Err":   "",
		"Next":  c.Query("next"),
		"Reset": c.Query("reset") == "done",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	pass := c.FormValue("password")
	next := c.FormValue("next")
	if next == "" {
		next = c.Query("next")
	}
	fail := func(reason string) error {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
		return renderStatus(c, fiber.StatusUnauthorized, "login", fiber.Map{
			"Err": "Invalid email or password", "Next": next, "Email": email,
		})
	}
	if _, ok := validate.Email(email); !ok {
		return fail("bad_format")
	}
	if pass == "" {
		return fail("empty_password")
	}

	old := c.Cookies(sidCookie)
	sid := newSID()
	u, err := h.Auth.Login(sid, email, pass)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			return fail("bad_credentials")
		}
		return err
	}
	h.Cookies.set(c, sid)
	if old != "" {
		_ = h.Auth.Sessions.Delete(old)
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	if target, ok := validate.SafeRedirect(next, h.AllowedHosts); ok {
		return c.Redirect(target)
	}
	if next != "" {
		log.Security(c, "auth.login.next.rejected", map[string]any{"next": next})
	}
	return c.Redirect(u.Role.LandingPath())
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies(sidCookie); sid != "" {
		_ = h.Auth.Logout(sid)
		log.Audit(c, "auth.logout", nil)
	}
	h.Cookies.expire(c)
	return c.Redirect("/login/")
}

// uploaded returns the named file part, or nil when none was chosen.
func uploaded(c *fiber.Ctx, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Size == 0 || fh.Filename == "" {
		return nil
	}
	return fh
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return "The file is too large."
	case errors.Is(err, media.ErrNotAnImage):
		return "Upload a valid image (JPEG, PNG, GIF or WebP)."
	}
	return "Could not store the upload."
}

func fieldNames(errs validate.Errors) []string {
	out := make([]string, 0, len(errs))
	for k := range errs {
		out = append(out, k)
	}
	return out
}
