package domain

import "strings"

type Category struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

type Product struct {
	ID           int64   `db:"id"`
	Title        string  `db:"title"`
	Details      string  `db:"details"`
	Price        float64 `db:"price"`
	Image        string  `db:"image"`
	CategoryID   int64   `db:"category_id"`
	SellerID     int64   `db:"seller_id"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
	CategoryName string  `db:"category_name"`
	SellerName   string  `db:"seller_name"`
	SellerEmail  string  `db:"seller_email"`
}

// EntityKind names the record types the admin console may delete.
type EntityKind int

const (
	KindUser EntityKind = iota + 1
	KindProduct
	KindCategory
)

// ParseEntityKind maps a path segment onto a kind, ignoring case.
func ParseEntityKind(s string) (EntityKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return KindUser, true
	case "product":
		return KindProduct, true
	case "category":
		return KindCategory, true
	}
	return 0, false
}

func (k EntityKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindProduct:
		return "product"
	case KindCategory:
		return "category"
	}
	return "unknown"
}
