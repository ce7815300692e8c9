package services

import (
	"errors"
	"fmt"
	"strings"

	"nokshibox/internal/domain"
	"nokshibox/internal/repos"
	"nokshibox/internal/validate"
)

type AdminService struct {
	Users *repos.UserRepo
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewAdminService(users *repos.UserRepo, cats *repos.CategoryRepo, prods *repos.ProductRepo) *AdminService {
	return &AdminService{Users: users, Cats: cats, Prods: prods}
}

// DashboardFilter holds the raw query parameters of the dashboard.
type DashboardFilter struct {
	Role        string `query:"role"`
	UserEmail   string `query:"user_email"`
	Category    string `query:"category"`
	SellerEmail string `query:"seller_email"`
}

type Dashboard struct {
	Users      []domain.User
	Products   []domain.Product
	Categories []domain.Category
}

// Dashboard lists everything, narrowed by whichever filters are set. A role
// other than buyer or seller, or a malformed category id, is ignored.
func (s *AdminService) Dashboard(f DashboardFilter) (Dashboard, error) {
	var uf repos.UserFilter
	if role, ok := domain.ParseRole(f.Role); ok {
		uf.Role = role
	}
	uf.EmailLike = strings.TrimSpace(f.UserEmail)

	var pf repos.ProductFilter
	if id, ok := validate.ID(f.Category); ok {
		pf.CategoryID = id
	}
	pf.SellerEmail = strings.TrimSpace(f.SellerEmail)

	var d Dashboard
	var err error
	if d.Users, err = s.Users.List(uf); err != nil {
		return Dashboard{}, fmt.Errorf("list users: %w", err)
	}
	if d.Products, err = s.Prods.List(pf); err != nil {
		return Dashboard{}, fmt.Errorf("list products: %w", err)
	}
	if d.Categories, err = s.Cats.List(); err != nil {
		return Dashboard{}, fmt.Errorf("list categories: %w", err)
	}
	return d, nil
}

type CategoryInput struct {
	Name string `form:"name"`
}

func (s *AdminService) AddCategory(in CategoryInput) (domain.Category, error) {
	name, ok := validate.Name(in.Name)
	if !ok {
		return domain.Category{}, validate.Errors{"name": "Enter a name of 1 to 100 characters."}
	}
	c, err := s.Cats.Create(name)
	if errors.Is(err, repos.ErrConflict) {
		return domain.Category{}, ErrCategoryExists
	}
	return c, err
}

// Delete removes any record of the given kind by id, without ownership
// checks. Users and categories take their products with them.
func (s *AdminService) Delete(kind domain.EntityKind, id int64) error {
	switch kind {
	case domain.KindUser:
		return s.Users.DeleteCascade(id)
	case domain.KindProduct:
		return s.Prods.Delete(id)
	case domain.KindCategory:
		return s.Cats.DeleteCascade(id)
	}
	return fmt.Errorf("delete: unsupported kind %d", kind)
}
