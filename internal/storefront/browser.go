package storefront

import (
	"fmt"
	"slices"

	"github.com/xenking/vendas-storefront/internal/domain/product"
)

// Status lines of the catalog listing.
const (
	StatusLoading   = "Carregando produtos..."
	StatusEmpty     = "Nenhum produto disponível."
	StatusLoadError = "Erro ao carregar produtos. Verifique se o backend está em execução."
)

// browser is the latest catalog listing applied to a session. Loads are
// numbered; only the answer to the most recently issued load is applied.
type browser struct {
	pageSize int
	issued   uint64
	loaded   bool
	products []product.Product
	loadErr  error
}

// begin issues a new load generation.
func (b *browser) begin() uint64 {
	b.issued++
	return b.issued
}

// apply stores the result of load gen and reports whether it was current.
func (b *browser) apply(gen uint64, list []product.Product, err error) bool {
	if gen != b.issued {
		return false
	}
	b.loaded = true
	b.loadErr = err
	b.products = list
	if err != nil {
		b.products = nil
	}
	return true
}

// lookup finds a product of the applied listing by id.
func (b *browser) lookup(id int64) (product.Product, bool) {
	i := slices.IndexFunc(b.products, func(p product.Product) bool { return p.ID == id })
	if i < 0 {
		return product.Product{}, false
	}
	return b.products[i], true
}

// snapshot returns a copy of the applied listing.
func (b *browser) snapshot() []product.Product {
	return slices.Clone(b.products)
}

// Page is one page of a listing.
type Page struct {
	Items      []product.Product
	Categories []string
	Total      int
	Page       int
	TotalPages int
	Status     string
}

// paginate cuts list into pages of size pageSize; zero puts everything on
// one page. A page beyond the last one falls back to the first.
func paginate(list []product.Product, pageSize, page int) Page {
	total := len(list)
	if pageSize <= 0 {
		pageSize = max(total, 1)
	}
	totalPages := max(1, (total+pageSize-1)/pageSize)
	if page < 1 || page > totalPages {
		page = 1
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	p := Page{
		Items:      slices.Clone(list[start:end]),
		Categories: categories(list),
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}
	if total == 0 {
		p.Status = StatusEmpty
	} else {
		p.Status = fmt.Sprintf("%d produto(s) • página %d/%d", total, page, totalPages)
	}
	return p
}

// categories returns the distinct categories of list, sorted.
func categories(list []product.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Categoria)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
