package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"nokshibox/internal/domain"
	applog "nokshibox/internal/log"
	"nokshibox/internal/services"
	"nokshibox/internal/validate"
)

const adminLoginErr = "Invalid credentials or not authorized as admin."

type AdminHandler struct {
	Admin   *services.AdminService
	Auth    *services.AuthService
	Cookies Cookies
}

// GET /admin/login/
func (h *AdminHandler) LoginForm(c *fiber.Ctx) error {
	if actorOf(c).IsStaff() {
		return c.Redirect("/admin/")
	}
	return render(c, "admin_login", fiber.Map{})
}

// POST /admin/login/. Wrong password and "not staff" share one message.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	if actorOf(c).IsStaff() {
		return c.Redirect("/admin/")
	}
	username := c.FormValue("username")
	sid := newSID()
	if _, err := h.Auth.AdminLogin(sid, username, c.FormValue("password")); err != nil {
		if !errors.Is(err, services.ErrBadCreds) {
			return err
		}
		applog.Security(c, "admin.login.fail", map[string]any{"username": username})
		return renderStatus(c, fiber.StatusUnauthorized, "admin_login", fiber.Map{"Err": adminLoginErr, "Username": username})
	}
	if old := c.Cookies(sidCookie); old != "" {
		_ = h.Auth.Sessions.Delete(old)
	}
	h.Cookies.set(c, sid)
	applog.Audit(c, "admin.login.success", map[string]any{"username": username})
	return c.Redirect("/admin/")
}

// GET /admin/logout/
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies(sidCookie); sid != "" {
		_ = h.Auth.Logout(sid)
	}
	h.Cookies.expire(c)
	applog.Audit(c, "admin.logout", nil)
	return c.Redirect("/admin/login/")
}

func (h *AdminHandler) dashboard(c *fiber.Ctx, status int, extra fiber.Map) error {
	var f services.DashboardFilter
	if err := c.QueryParser(&f); err != nil {
		f = services.DashboardFilter{}
	}
	d, err := h.Admin.Dashboard(f)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return err
	}
	data := fiber.Map{
		"Users":      d.Users,
		"Products":   d.Products,
		"Categories": d.Categories,
		"Filter":     f,
		"Form":       services.CategoryInput{},
		"Errors":     validate.Errors{},
	}
	for k, v := range extra {
		data[k] = v
	}
	return renderStatus(c, status, "admin_dashboard", data)
}

// GET /admin/
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return h.dashboard(c, fiber.StatusOK, nil)
}

// POST /admin/ adds a category.
func (h *AdminHandler) AddCategory(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	cat, err := h.Admin.AddCategory(in)
	if err != nil {
		errs, ok := validate.AsErrors(err)
		if !ok && errors.Is(err, services.ErrCategoryExists) {
			errs, ok = validate.Errors{"name": "Category with this Name already exists."}, true
		}
		if !ok {
			return err
		}
		return h.dashboard(c, fiber.StatusBadRequest, fiber.Map{"Form": in, "Errors": errs})
	}
	applog.Audit(c, "admin.category.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.Redirect("/admin/")
}

// POST /admin/delete/:kind/:id
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	kind, ok := domain.ParseEntityKind(c.Params("kind"))
	if !ok {
		return c.Redirect("/admin/")
	}
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Not found")
	}
	if err := h.Admin.Delete(kind, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c, "Not found")
		}
		applog.Error(c, "admin.delete.fail", err, map[string]any{"kind": kind.String(), "id": id})
		return err
	}
	applog.Audit(c, "admin.delete", map[string]any{"kind": kind.String(), "id": id})
	if kind == domain.KindUser && id == actorOf(c).UserID() {
		h.Cookies.expire(c)
		return c.Redirect("/admin/login/")
	}
	return c.Redirect("/admin/")
}
