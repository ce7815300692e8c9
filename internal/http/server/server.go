// Package server assembles the fiber application: views, middleware and routes.
package server

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"nokshibox/internal/config"
	"nokshibox/internal/http/handlers"
	applog "nokshibox/internal/log"
	"nokshibox/internal/mail"
)

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code = fe.Code
		msg = "We couldn't process that request."
		if code == fiber.StatusNotFound {
			msg = "Page not found"
		}
	}
	applog.Error(c, "server.error", err, map[string]any{"code": code})
	// The error detail stays in the log.
	if rerr := handlers.RenderStatus(c, code, "notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// New builds the application. The caller owns db and listens on the result.
func New(cfg config.Config, db *sqlx.DB, mailer mail.Mailer) *fiber.App {
	engine := html.New(cfg.TemplateDir, ".html")
	engine.AddFuncMap(handlers.TemplateFuncs())
	engine.Reload(cfg.Debug)

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    cfg.MaxBodyBytes(),
		ErrorHandler: errorHandler,
	})

	deps := handlers.NewDeps(db, cfg, mailer)

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(handlers.Identify(deps.Auth))
	if cfg.RateLimitPerMin > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitPerMin,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := string(c.Request().URI().Path())
				return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
			},
		}))
	}
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return handlers.RenderStatus(c, fiber.StatusForbidden, "notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))

	// ---------- Static assets ----------
	app.Static("/static", cfg.StaticDir)
	if cfg.Debug {
		// Production media is served by the front web server.
		mediaDir := cfg.MediaDir
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
		applog.Info(nil, "static.media", map[string]any{"dir": mediaDir})
		app.Get("/media/*", handlers.Media(deps.Media))
	}

	loginLimit := func(tmpl, msg string) fiber.Handler {
		if cfg.LoginLimit <= 0 {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return limiter.New(limiter.Config{
			Max:        cfg.LoginLimit,
			Expiration: 10 * time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.login.hit", map[string]any{"form": tmpl})
				return handlers.RenderStatus(c, fiber.StatusTooManyRequests, tmpl, fiber.Map{"Err": msg})
			},
		})
	}
	resetLimit := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.ResetRatePerMin > 0 {
		resetLimit = handlers.NewPerIP(cfg.ResetRatePerMin).Handler("rate.reset.hit", func(c *fiber.Ctx) error {
			return handlers.RenderStatus(c, fiber.StatusTooManyRequests, "forget_password_request", fiber.Map{
				"Err": "Too many attempts. Please try again later.",
			})
		})
	}

	auth := deps.AuthHandler
	browse := deps.BrowseHandler
	prod := deps.ProductHandler
	prof := deps.ProfileHandler
	reset := deps.ResetHandler
	admin := deps.AdminHandler
	requireUser := handlers.RequireUser()
	requireSeller := handlers.RequireSeller()
	requireStaff := handlers.RequireStaff()

	// Public pages
	app.Get("/", handlers.Page("home"))
	app.Get("/about/", handlers.Page("about"))
	app.Get("/contact/", handlers.Page("contact"))
	app.Get("/products/", browse.Products)
	app.Get("/buyer/", browse.BuyerHome)

	// Identity
	app.Get("/signup/", auth.SignupForm)
	app.Post("/signup/", auth.Signup)
	app.Get("/login/", auth.LoginForm)
	app.Post("/login/", loginLimit("login", "Too many attempts. Please try again later."), auth.Login)
	app.Get("/logout/", auth.Logout)

	app.Get("/forget-password/", reset.RequestForm)
	app.Post("/forget-password/", resetLimit, reset.Request)
	app.Get("/forget-password/verify/", reset.VerifyForm)
	app.Post("/forget-password/verify/", resetLimit, reset.Verify)

	// Seller
	app.Get("/seller/", requireUser, requireSeller, prod.SellerHome)
	app.Post("/seller/", requireUser, requireSeller, prod.Create)
	app.Post("/seller/import/", requireUser, requireSeller, prod.Import)

	// Products: mutation routes answer 404 to anyone but the owner.
	app.Get("/product/:id/", prod.Detail)
	app.Get("/product/:id/edit/", prod.EditForm)
	app.Post("/product/:id/edit/", prod.Edit)
	app.Get("/product/:id/delete/", prod.DeleteConfirm)
	app.Post("/product/:id/delete/", prod.Delete)

	// Profiles
	app.Get("/profile/:id/", prof.View)
	app.Get("/profile/:id/edit/", requireUser, prof.EditForm)
	app.Post("/profile/:id/edit/", requireUser, prof.Edit)
	app.Post("/profile/:id/contact/", requireUser, prof.Contact)

	// Admin console
	app.Get("/admin/login/", admin.LoginForm)
	app.Post("/admin/login/", loginLimit("admin_login", "Too many attempts. Please try again later."), admin.Login)
	app.Get("/admin/logout/", admin.Logout)
	app.Get("/admin/", requireStaff, admin.Dashboard)
	app.Post("/admin/", requireStaff, admin.AddCategory)
	app.Post("/admin/delete/:kind/:id", requireStaff, admin.Delete)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return handlers.RenderStatus(c, fiber.StatusNotFound, "notfound", fiber.Map{"Message": "Page not found"})
	})

	return app
}
