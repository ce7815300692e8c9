package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"nokshibox/internal/log"
	"nokshibox/internal/services"
	"nokshibox/internal/validate"
)

type BrowseHandler struct {
	Catalog *services.CatalogService
}

// Page renders a static page by template name.
func Page(tmpl string) fiber.Handler {
	return func(c *fiber.Ctx) error { return render(c, tmpl, nil) }
}

// BuyerHome is the landing page for buyers and visitors: every product plus
// the category list. The search box filters the rendered list in the browser.
func (h *BrowseHandler) BuyerHome(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts()
	if err != nil {
		return err
	}
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return err
	}
	return render(c, "buyer_home", fiber.Map{"Products": products, "Categories": cats})
}

// Products is the public catalogue. Without parameters it returns the full
// set; q and category narrow it on the server for clients without scripts.
func (h *BrowseHandler) Products(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return err
	}
	rawQ := c.Query("q")
	var q string
	if strings.TrimSpace(rawQ) != "" {
		var ok bool
		if q, ok = validate.Q(rawQ); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			return renderStatus(c, fiber.StatusBadRequest, "products", fiber.Map{
				"Products": nil, "Categories": cats, "CategoryID": int64(0), "Err": "Enter a valid keyword (letters/numbers only)",
			})
		}
	}
	var catID int64
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		var ok bool
		if catID, ok = validate.ID(raw); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return renderStatus(c, fiber.StatusBadRequest, "products", fiber.Map{
				"Products": nil, "Categories": cats, "Q": q, "CategoryID": int64(0), "Err": "Invalid category",
			})
		}
	}

	products, err := h.Catalog.Search(q, catID)
	if err != nil {
		log.Error(c, "products.list.fail", err, nil)
		return err
	}
	return render(c, "products", fiber.Map{
		"Products": products, "Categories": cats, "Q": q, "CategoryID": catID, "Count": len(products),
	})
}
