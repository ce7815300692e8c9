package repos

import (
	"fmt"

	"nokshibox/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `SELECT id, name, created_at FROM categories ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) Get(id int64) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT id, name, created_at FROM categories WHERE id=?`, id)
	return c, notFound(err)
}

func (r *CategoryRepo) ByName(name string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT id, name, created_at FROM categories WHERE LOWER(name)=LOWER(?)`, name)
	return c, notFound(err)
}

// Create inserts a category; a name clash (ignoring case) yields ErrConflict.
func (r *CategoryRepo) Create(name string) (domain.Category, error) {
	res, err := r.db.Exec(`INSERT INTO categories(name) VALUES(?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, ErrConflict
		}
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Category{}, err
	}
	return r.Get(id)
}

// DeleteCascade removes the category together with every product filed under it.
func (r *CategoryRepo) DeleteCascade(id int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM products WHERE category_id=?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		return err
	}
	if err := affected(res); err != nil {
		return err
	}
	return tx.Commit()
}
