package repos

import (
	"fmt"

	"nokshibox/internal/domain"

	"github.com/jmoiron/sqlx"
)

const productSelect = `
  SELECT
    p.id, p.title, p.details, p.price, p.image, p.category_id, p.seller_id,
    p.created_at, COALESCE(p.updated_at,'') AS updated_at,
    c.name AS category_name, u.full_name AS seller_name, u.email AS seller_email
  FROM products p
  JOIN categories c ON c.id = p.category_id
  JOIN users u      ON u.id = p.seller_id`

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// ProductFilter fields are optional and combine with AND.
type ProductFilter struct {
	Q           string
	CategoryID  int64
	SellerID    int64
	SellerEmail string
}

func (r *ProductRepo) List(f ProductFilter) ([]domain.Product, error) {
	where := `1=1`
	args := []any{}
	if f.Q != "" {
		where += ` AND LOWER(p.title) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.Q))
	}
	if f.CategoryID != 0 {
		where += ` AND p.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.SellerID != 0 {
		where += ` AND p.seller_id = ?`
		args = append(args, f.SellerID)
	}
	if f.SellerEmail != "" {
		where += ` AND LOWER(u.email) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.SellerEmail))
	}
	var out []domain.Product
	err := r.db.Select(&out, productSelect+` WHERE `+where+` ORDER BY p.created_at DESC, p.id DESC`, args...)
	return out, err
}

func (r *ProductRepo) Get(id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, productSelect+` WHERE p.id = ?`, id)
	return p, notFound(err)
}

// GetOwned finds a product only if sellerID owns it; anything else is ErrNotFound.
func (r *ProductRepo) GetOwned(id, sellerID int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, productSelect+` WHERE p.id = ? AND p.seller_id = ?`, id, sellerID)
	return p, notFound(err)
}

// Create inserts p and fills in its id.
func (r *ProductRepo) Create(p *domain.Product) error {
	res, err := r.db.Exec(`
	  INSERT INTO products(title, details, price, image, category_id, seller_id)
	  VALUES(?, ?, ?, ?, ?, ?)`,
		p.Title, p.Details, p.Price, p.Image, p.CategoryID, p.SellerID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdateOwned rewrites the editable columns of p. The seller column is only
// used to scope the update, never written.
func (r *ProductRepo) UpdateOwned(p domain.Product) error {
	res, err := r.db.Exec(`
	  UPDATE products
	  SET title=?, details=?, price=?, image=?, category_id=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=? AND seller_id=?`,
		p.Title, p.Details, p.Price, p.Image, p.CategoryID, p.ID, p.SellerID)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return affected(res)
}

func (r *ProductRepo) DeleteOwned(id, sellerID int64) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id=? AND seller_id=?`, id, sellerID)
	if err != nil {
		return err
	}
	return affected(res)
}

// Delete removes a product regardless of owner (admin console).
func (r *ProductRepo) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM products WHERE id=?`, id)
	if err != nil {
		return err
	}
	return affected(res)
}
