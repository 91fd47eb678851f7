package main

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/db"
	"github.com/xenking/vendas-storefront/internal/domain/product"
)

type mockCatalog struct {
	mu        sync.Mutex
	existing  []product.Product
	created   []product.Product
	createErr error
}

func (m *mockCatalog) List(context.Context, product.Filter) ([]product.Product, error) {
	return m.existing, nil
}

func (m *mockCatalog) Create(_ context.Context, p product.Product) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, p)
	p.ID = int64(100 + len(m.created))
	return &p, nil
}

func (m *mockCatalog) Update(context.Context, int64, product.Product) (*product.Product, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCatalog) Delete(context.Context, int64) error {
	return errors.New("not implemented")
}

func sku(s string) *string { return &s }

func sample(nome, code string) product.Product {
	return product.Product{
		Nome:      nome,
		Preco:     decimal.RequireFromString("2.90"),
		Estoque:   10,
		Categoria: "Canetas",
		SKU:       sku(code),
	}
}

func TestSeedProductsEmbedded(t *testing.T) {
	list, err := product.DecodeList(jx.DecodeBytes(db.SeedProducts))
	require.NoError(t, err)
	require.Len(t, list, 23)

	seen := make(map[string]bool)
	for _, in := range list {
		p, err := product.Validate(in)
		require.NoError(t, err, in.Nome)
		require.NotNil(t, p.SKU)
		assert.False(t, seen[*p.SKU], "duplicate sku %s", *p.SKU)
		seen[*p.SKU] = true
	}
	assert.Equal(t, "Caderno Universitário", list[0].Nome)
	assert.True(t, decimal.RequireFromString("19.90").Equal(list[0].Preco))
}

func TestSeed_SkipsExistingSKUs(t *testing.T) {
	m := &mockCatalog{existing: []product.Product{{ID: 1, SKU: sku("CNT-AZL-001")}}}
	list := []product.Product{
		sample("Caneta Azul", "CNT-AZL-001"),
		sample("Caneta Preta", "CNT-PRT-001"),
		sample("Caneta Preta repetida", "CNT-PRT-001"),
	}

	res, err := seed(context.Background(), zap.NewNop(), m, list, 2)
	require.NoError(t, err)
	assert.Equal(t, seedResult{Created: 1, Skipped: 2}, res)

	require.Len(t, m.created, 1)
	assert.Equal(t, "CNT-PRT-001", *m.created[0].SKU)
}

func TestSeed_InvalidProductAborts(t *testing.T) {
	m := &mockCatalog{}
	bad := sample("ab", "X-1")

	_, err := seed(context.Background(), zap.NewNop(), m, []product.Product{sample("Borracha", "B-1"), bad}, 1)
	var verr *product.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, m.created)
}

func TestSeed_CreateError(t *testing.T) {
	m := &mockCatalog{createErr: errors.New("boom")}

	_, err := seed(context.Background(), zap.NewNop(), m, []product.Product{sample("Borracha", "B-1")}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `create "Borracha"`)
}
