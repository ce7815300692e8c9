package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nokshibox/internal/domain"
	"nokshibox/internal/log"
	"nokshibox/internal/media"
	"nokshibox/internal/services"
	"nokshibox/internal/validate"
)

type ProfileHandler struct {
	Profiles *services.ProfileService
	Media    *media.Store
}

func (h *ProfileHandler) view(c *fiber.Ctx, status int, extra fiber.Map) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Profile not found")
	}
	pv, err := h.Profiles.View(actorOf(c), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c, "Profile not found")
		}
		return err
	}
	data := fiber.Map{
		"Profile":  pv.User,
		"Products": pv.Products,
		"IsOwner":  pv.IsOwner,
		"Errors":   validate.Errors{},
	}
	for k, v := range extra {
		data[k] = v
	}
	return renderStatus(c, status, "profile", data)
}

func (h *ProfileHandler) View(c *fiber.Ctx) error {
	return h.view(c, fiber.StatusOK, fiber.Map{"Sent": c.Query("sent") == "1"})
}

func editFormOf(u *domain.User) services.EditInput {
	return services.EditInput{FullName: u.FullName, MobileNo: u.MobileNo, SocialLink: u.SocialLink}
}

// EditForm shows the signed-in user's own profile form. Only the caller's
// own record is editable, so a foreign id is redirected to the caller's URL.
func (h *ProfileHandler) EditForm(c *fiber.Ctx) error {
	a := actorOf(c)
	if id, _ := validate.ID(c.Params("id")); id != a.UserID() {
		return c.Redirect("/profile/" + formatID(a.UserID()) + "/edit/")
	}
	return render(c, "edit_profile", fiber.Map{"Form": editFormOf(a.User), "Errors": validate.Errors{}})
}

// Edit updates the session's user. The :id in the path never selects the
// record being written.
func (h *ProfileHandler) Edit(c *fiber.Ctx) error {
	a := actorOf(c)
	var in services.EditInput
	if err := c.BodyParser(&in); err != nil {
		return renderStatus(c, fiber.StatusBadRequest, "edit_profile", fiber.Map{
			"Form": editFormOf(a.User), "Errors": validate.Errors{"form": "Invalid form submission."},
		})
	}
	redisplay := in
	redisplay.NewPassword, redisplay.Answer1, redisplay.Answer2 = "", "", ""

	if id, _ := validate.ID(c.Params("id")); id != a.UserID() {
		log.Security(c, "profile.edit.id_mismatch", map[string]any{"path_id": c.Params("id")})
	}
	if errs := h.Profiles.CheckEdit(in); len(errs) > 0 {
		return renderStatus(c, fiber.StatusBadRequest, "edit_profile", fiber.Map{"Form": redisplay, "Errors": errs})
	}
	if fh := uploaded(c, "photo"); fh != nil {
		rel, err := h.Media.SaveImage(fh, "profiles")
		if err != nil {
			return renderStatus(c, fiber.StatusBadRequest, "edit_profile", fiber.Map{
				"Form": redisplay, "Errors": validate.Errors{"photo": uploadMessage(err)},
			})
		}
		in.Photo = rel
	}

	u, oldPhoto, err := h.Profiles.Edit(a, in)
	if err != nil {
		if in.Photo != "" {
			_ = h.Media.Remove(in.Photo)
		}
		if errs, ok := validate.AsErrors(err); ok {
			return renderStatus(c, fiber.StatusBadRequest, "edit_profile", fiber.Map{"Form": redisplay, "Errors": errs})
		}
		return err
	}
	if oldPhoto != "" {
		_ = h.Media.Remove(oldPhoto)
	}
	log.Audit(c, "profile.update", map[string]any{"credentials_changed": in.NewPassword != ""})
	return c.Redirect("/profile/" + formatID(u.ID) + "/")
}

// Contact is POST /profile/:id/contact/: mail a message to a seller.
func (h *ProfileHandler) Contact(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Profile not found")
	}
	var in services.ContactInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	err := h.Profiles.ContactSeller(actorOf(c), id, in)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c, "Profile not found")
		}
		if errs, ok := validate.AsErrors(err); ok {
			return h.view(c, fiber.StatusBadRequest, fiber.Map{"Errors": errs, "Message": in.Message})
		}
		log.Error(c, "profile.contact.fail", err, map[string]any{"seller_id": id})
		return h.view(c, fiber.StatusBadGateway, fiber.Map{"ContactErr": "Your message could not be sent. Please try again later."})
	}
	log.Audit(c, "profile.contact", map[string]any{"seller_id": id})
	return c.Redirect("/profile/" + formatID(id) + "/?sent=1")
}
