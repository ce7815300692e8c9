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

const goneMsg = "This item is no longer available"

type ProductHandler struct {
	Catalog  *services.CatalogService
	Importer *services.ImportService
	Media    *media.Store
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, goneMsg)
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c, goneMsg)
		}
		return err
	}
	a := actorOf(c)
	return render(c, "product_detail", fiber.Map{"P": p, "IsOwner": a.Authenticated() && a.UserID() == p.SellerID})
}

// sellerHome renders the seller landing page with the create form in the
// given state.
func (h *ProductHandler) sellerHome(c *fiber.Ctx, status int, extra fiber.Map) error {
	a := actorOf(c)
	mine, err := h.Catalog.SellerProducts(a.UserID())
	if err != nil {
		return err
	}
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return err
	}
	data := fiber.Map{
		"MyProducts": mine,
		"Categories": cats,
		"Form":       services.ProductInput{},
		"Errors":     validate.Errors{},
	}
	for k, v := range extra {
		data[k] = v
	}
	return renderStatus(c, status, "seller_home", data)
}

// SellerHome is GET /seller/.
func (h *ProductHandler) SellerHome(c *fiber.Ctx) error {
	return h.sellerHome(c, fiber.StatusOK, nil)
}

// Create is POST /seller/. The seller is always the signed-in user; any
// seller field in the form is ignored.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return h.sellerHome(c, fiber.StatusBadRequest, fiber.Map{"Errors": validate.Errors{"form": "Invalid form submission."}})
	}
	errs := h.Catalog.CheckProduct(in)
	fh := uploaded(c, "image")
	if fh == nil {
		errs.Add("image", "This field is required.")
	}
	if len(errs) > 0 {
		return h.sellerHome(c, fiber.StatusBadRequest, fiber.Map{"Form": in, "Errors": errs})
	}
	rel, err := h.Media.SaveImage(fh, "products")
	if err != nil {
		return h.sellerHome(c, fiber.StatusBadRequest, fiber.Map{"Form": in, "Errors": validate.Errors{"image": uploadMessage(err)}})
	}
	in.Image = rel

	p, err := h.Catalog.CreateProduct(actorOf(c), in)
	if err != nil {
		_ = h.Media.Remove(rel)
		if errs, ok := validate.AsErrors(err); ok {
			return h.sellerHome(c, fiber.StatusBadRequest, fiber.Map{"Form": in, "Errors": errs})
		}
		return err
	}
	log.Audit(c, "product.create", map[string]any{"product_id": p.ID})
	return c.Redirect("/seller/")
}

// owned resolves :id through the owner-scoped lookup. ok is false when a
// response (404) has already been written.
func (h *ProductHandler) owned(c *fiber.Ctx) (p domain.Product, ok bool, err error) {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		return p, false, notFound(c, goneMsg)
	}
	p, err = h.Catalog.OwnedProduct(actorOf(c), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Security(c, "product.owner.miss", map[string]any{"product_id": id})
			return p, false, notFound(c, goneMsg)
		}
		return p, false, err
	}
	return p, true, nil
}

func formOf(p domain.Product) services.ProductInput {
	return services.ProductInput{
		Title:      p.Title,
		Details:    p.Details,
		Price:      formatPrice(p.Price),
		CategoryID: formatID(p.CategoryID),
	}
}

func (h *ProductHandler) renderEdit(c *fiber.Ctx, status int, p domain.Product, in services.ProductInput, errs validate.Errors) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return err
	}
	return renderStatus(c, status, "edit_product", fiber.Map{
		"P": p, "Form": in, "Errors": errs, "Categories": cats,
	})
}

func (h *ProductHandler) EditForm(c *fiber.Ctx) error {
	p, ok, err := h.owned(c)
	if !ok {
		return err
	}
	return h.renderEdit(c, fiber.StatusOK, p, formOf(p), validate.Errors{})
}

func (h *ProductHandler) Edit(c *fiber.Ctx) error {
	p, ok, err := h.owned(c)
	if !ok {
		return err
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return h.renderEdit(c, fiber.StatusBadRequest, p, formOf(p), validate.Errors{"form": "Invalid form submission."})
	}
	if errs := h.Catalog.CheckProduct(in); len(errs) > 0 {
		return h.renderEdit(c, fiber.StatusBadRequest, p, in, errs)
	}
	if fh := uploaded(c, "image"); fh != nil {
		rel, err := h.Media.SaveImage(fh, "products")
		if err != nil {
			return h.renderEdit(c, fiber.StatusBadRequest, p, in, validate.Errors{"image": uploadMessage(err)})
		}
		in.Image = rel
	}

	updated, oldImage, err := h.Catalog.UpdateProduct(actorOf(c), p.ID, in)
	if err != nil {
		if in.Image != "" {
			_ = h.Media.Remove(in.Image)
		}
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c, goneMsg)
		}
		if errs, ok := validate.AsErrors(err); ok {
			return h.renderEdit(c, fiber.StatusBadRequest, p, in, errs)
		}
		return err
	}
	if oldImage != "" {
		_ = h.Media.Remove(oldImage)
	}
	log.Audit(c, "product.update", map[string]any{"product_id": updated.ID})
	return c.Redirect("/seller/")
}

// DeleteConfirm is GET /product/:id/delete/. It never deletes.
func (h *ProductHandler) DeleteConfirm(c *fiber.Ctx) error {
	p, ok, err := h.owned(c)
	if !ok {
		return err
	}
	return render(c, "confirm_delete", fiber.Map{"P": p})
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		return notFound(c, goneMsg)
	}
	p, err := h.Catalog.DeleteProduct(actorOf(c), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c, goneMsg)
		}
		return err
	}
	if p.Image != "" {
		_ = h.Media.Remove(p.Image)
	}
	log.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.Redirect("/seller/")
}

// Import is POST /seller/import/: bulk listing from an .xlsx sheet.
func (h *ProductHandler) Import(c *fiber.Ctx) error {
	fh := uploaded(c, "sheet")
	if fh == nil {
		return h.sellerHome(c, fiber.StatusBadRequest, fiber.Map{"ImportErr": "Choose an .xlsx file to import."})
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	rep, err := h.Importer.Import(actorOf(c), f)
	if err != nil {
		if errors.Is(err, services.ErrBadSheet) {
			return h.sellerHome(c, fiber.StatusBadRequest, fiber.Map{"ImportErr": "That file could not be read as a spreadsheet."})
		}
		return err
	}
	log.Audit(c, "product.import", map[string]any{"created": len(rep.Created), "skipped": len(rep.Skipped)})
	return h.sellerHome(c, fiber.StatusOK, fiber.Map{"Report": rep})
}
