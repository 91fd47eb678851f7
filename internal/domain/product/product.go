package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a read-only snapshot of a catalog item owned by the catalog
// service.
type Product struct {
	ID        int64
	Nome      string
	Descricao *string
	Preco     decimal.Decimal
	Estoque   int
	Categoria string
	SKU       *string
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Estoque > 0
}

// Filter narrows a catalog listing. Empty fields are not sent.
type Filter struct {
	Search    string
	Categoria string
	Sort      string
}

// Catalog is the external product service.
type Catalog interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, id int64, p Product) (*Product, error)
	Delete(ctx context.Context, id int64) error
}
