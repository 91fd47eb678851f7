package product

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	nomeMinLen = 3
	nomeMaxLen = 60
	skuMaxLen  = 64
)

var minPreco = decimal.RequireFromString("0.01")

// ValidationError lists the form fields that failed validation, keyed by
// field name, with a message suitable for inline display.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid product: " + strings.Join(parts, "; ")
}

// Validate normalizes the admin form input and checks it against the catalog
// constraints. The returned Product has trimmed text, the price rounded to
// cents and blank optional fields set to nil.
func Validate(in Product) (Product, error) {
	out := in
	fields := make(map[string]string)

	out.Nome = strings.TrimSpace(in.Nome)
	if n := utf8.RuneCountInString(out.Nome); n < nomeMinLen || n > nomeMaxLen {
		fields["nome"] = "Nome deve ter 3 a 60 caracteres."
	}

	if in.Preco.LessThan(minPreco) {
		fields["preco"] = "Preço deve ser >= 0,01."
	}
	out.Preco = in.Preco.Round(2)

	if in.Estoque < 0 {
		fields["estoque"] = "Estoque deve ser >= 0."
	}

	out.Categoria = strings.TrimSpace(in.Categoria)
	if out.Categoria == "" {
		fields["categoria"] = "Categoria é obrigatória."
	}

	out.Descricao = trimOptional(in.Descricao)
	out.SKU = trimOptional(in.SKU)
	if out.SKU != nil && utf8.RuneCountInString(*out.SKU) > skuMaxLen {
		fields["sku"] = "SKU deve ter no máximo 64 caracteres."
	}

	if len(fields) > 0 {
		return in, &ValidationError{Fields: fields}
	}
	return out, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
