package services

import (
	"errors"
	"strings"

	"nokshibox/internal/domain"
	"nokshibox/internal/repos"
	"nokshibox/internal/validate"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

// ListProducts returns the whole catalogue; browse pages filter client side.
func (s *CatalogService) ListProducts() ([]domain.Product, error) {
	return s.Prods.List(repos.ProductFilter{})
}

// Search narrows by title substring and category; zero values mean no filter.
func (s *CatalogService) Search(q string, categoryID int64) ([]domain.Product, error) {
	return s.Prods.List(repos.ProductFilter{Q: q, CategoryID: categoryID})
}

func (s *CatalogService) SellerProducts(sellerID int64) ([]domain.Product, error) {
	return s.Prods.List(repos.ProductFilter{SellerID: sellerID})
}

func (s *CatalogService) GetProduct(id int64) (domain.Product, error) {
	return s.Prods.Get(id)
}

// ProductInput is the product form. Image is set by the caller once the
// upload is stored; on edit an empty Image keeps the current one.
type ProductInput struct {
	Title      string `form:"title" validate:"required,max=200"`
	Details    string `form:"details" validate:"max=5000"`
	Price      string `form:"price" validate:"required,price"`
	CategoryID string `form:"category" validate:"required"`
	Image      string `form:"-"`
}

func (in *ProductInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Details = strings.TrimSpace(in.Details)
	in.Price = strings.TrimSpace(in.Price)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
}

// CheckProduct validates the form, including that the category exists.
func (s *CatalogService) CheckProduct(in ProductInput) validate.Errors {
	in.normalize()
	errs := validate.Struct(in)
	if _, bad := errs["category"]; !bad {
		id, ok := validate.ID(in.CategoryID)
		if !ok {
			errs.Add("category", "Select a valid choice.")
		} else if _, err := s.Cats.Get(id); err != nil {
			errs.Add("category", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	return errs
}

func (s *CatalogService) fill(p *domain.Product, in ProductInput) error {
	if err := s.CheckProduct(in).OrNil(); err != nil {
		return err
	}
	in.normalize()
	p.Title = in.Title
	p.Details = in.Details
	p.Price, _ = validate.Price(in.Price)
	p.CategoryID, _ = validate.ID(in.CategoryID)
	return nil
}

// CreateProduct lists a new product owned by the actor. Ownership comes from
// the actor only.
func (s *CatalogService) CreateProduct(actor domain.Actor, in ProductInput) (domain.Product, error) {
	if !actor.IsSeller() {
		return domain.Product{}, ErrNotSeller
	}
	var p domain.Product
	if err := s.fill(&p, in); err != nil {
		return domain.Product{}, err
	}
	if strings.TrimSpace(in.Image) == "" {
		return domain.Product{}, validate.Errors{"image": "This field is required."}
	}
	p.Image = in.Image
	p.SellerID = actor.UserID()
	if err := s.Prods.Create(&p); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(p.ID)
}

// OwnedProduct is the owner-scoped lookup behind edit and delete: anything
// the actor does not own is ErrNotFound.
func (s *CatalogService) OwnedProduct(actor domain.Actor, id int64) (domain.Product, error) {
	if !actor.Authenticated() {
		return domain.Product{}, ErrNotFound
	}
	return s.Prods.GetOwned(id, actor.UserID())
}

// UpdateProduct edits an owned product and returns it together with the
// replaced image path, if the image changed.
func (s *CatalogService) UpdateProduct(actor domain.Actor, id int64, in ProductInput) (domain.Product, string, error) {
	p, err := s.OwnedProduct(actor, id)
	if err != nil {
		return domain.Product{}, "", err
	}
	if err := s.fill(&p, in); err != nil {
		return domain.Product{}, "", err
	}
	var oldImage string
	if in.Image != "" {
		oldImage, p.Image = p.Image, in.Image
	}
	if err := s.Prods.UpdateOwned(p); err != nil {
		return domain.Product{}, "", err
	}
	p, err = s.Prods.Get(p.ID)
	return p, oldImage, err
}

// DeleteProduct removes an owned product and returns what was deleted.
func (s *CatalogService) DeleteProduct(actor domain.Actor, id int64) (domain.Product, error) {
	p, err := s.OwnedProduct(actor, id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.DeleteOwned(id, actor.UserID()); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return domain.Product{}, ErrNotFound
		}
		return domain.Product{}, err
	}
	return p, nil
}
