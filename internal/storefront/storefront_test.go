package storefront

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/vendas-storefront/internal/domain/cart"
	"github.com/xenking/vendas-storefront/internal/domain/checkout"
	"github.com/xenking/vendas-storefront/internal/domain/prefs"
	"github.com/xenking/vendas-storefront/internal/domain/product"
	"github.com/xenking/vendas-storefront/internal/export"
	"github.com/xenking/vendas-storefront/internal/storage"
)

// --- Mock implementations ---

type mockCatalog struct {
	mu       sync.Mutex
	products []product.Product
	filters  []product.Filter
	listErr  error
	// hold, when set, is called by List before answering.
	hold func(f product.Filter)

	orders   []checkout.OrderRequest
	orderErr error
	created  []product.Product
}

func (m *mockCatalog) List(_ context.Context, f product.Filter) ([]product.Product, error) {
	m.mu.Lock()
	m.filters = append(m.filters, f)
	hold := m.hold
	m.mu.Unlock()

	if hold != nil {
		hold(f)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []product.Product
	for _, p := range m.products {
		if f.Categoria != "" && p.Categoria != f.Categoria {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockCatalog) Create(_ context.Context, p product.Product) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.products) + 1)
	m.created = append(m.created, p)
	m.products = append(m.products, p)
	return &p, nil
}

func (m *mockCatalog) Update(_ context.Context, id int64, p product.Product) (*product.Product, error) {
	p.ID = id
	return &p, nil
}

func (m *mockCatalog) Delete(_ context.Context, id int64) error {
	return product.ErrNotFound
}

func (m *mockCatalog) ConfirmOrder(_ context.Context, req checkout.OrderRequest) (*checkout.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, req)
	if m.orderErr != nil {
		return nil, m.orderErr
	}
	return &checkout.Order{ID: int64(len(m.orders)), Total: decimal.RequireFromString("90.00")}, nil
}

func (m *mockCatalog) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filters)
}

type recordedOrder struct {
	session string
	order   checkout.Order
	items   int
}

type mockOrderLog struct {
	mu       sync.Mutex
	recorded []recordedOrder
	err      error
}

func (m *mockOrderLog) RecordOrder(_ context.Context, sessionID string, order checkout.Order, items int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, recordedOrder{session: sessionID, order: order, items: items})
	return nil
}

// --- Helpers ---

func newTestProduct(id int64, nome, preco, categoria string, estoque int) product.Product {
	return product.Product{
		ID:        id,
		Nome:      nome,
		Preco:     decimal.RequireFromString(preco),
		Estoque:   estoque,
		Categoria: categoria,
	}
}

func newTestCatalog() *mockCatalog {
	return &mockCatalog{products: []product.Product{
		newTestProduct(1, "Caderno", "50.00", "Papelaria", 10),
		newTestProduct(2, "Caneta", "2.50", "Escrita", 0),
		newTestProduct(3, "Lápis", "1.25", "Escrita", 5),
	}}
}

func loadedSession(t *testing.T, m *Manager) *Session {
	t.Helper()
	s := m.Session(context.Background(), NewID())
	_, err := s.Load(context.Background())
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

// --- Tests ---

func TestSession_Load(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(storage.NewMemory(), cat)
	s := m.Session(context.Background(), NewID())

	assert.Equal(t, StatusLoading, s.Catalog().Status)

	v, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, v.Stale)
	assert.Len(t, v.Items, 3)
	assert.Equal(t, []string{"Escrita", "Papelaria"}, v.Categories)
	assert.Equal(t, "3 produto(s) • página 1/1", v.Status)
	assert.Equal(t, product.Filter{Sort: prefs.DefaultSort}, cat.filters[0])
}

func TestSession_LoadError(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(storage.NewMemory(), cat)
	s := loadedSession(t, m)

	cat.listErr = errors.New("connection refused")
	v, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusLoadError, v.Status)
	assert.Empty(t, s.Export())
}

func TestSession_LoadEmpty(t *testing.T) {
	m := NewManager(storage.NewMemory(), &mockCatalog{})
	s := m.Session(context.Background(), NewID())

	v, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, v.Status)
}

func TestSession_Pagination(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(storage.NewMemory(), cat, WithPageSize(2))
	s := loadedSession(t, m)

	v := s.Catalog()
	assert.Equal(t, 2, v.TotalPages)
	assert.Len(t, v.Items, 2)

	v, err := s.UpdatePrefs(context.Background(), prefs.Patch{Page: ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, "3 produto(s) • página 2/2", v.Status)
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(3), v.Items[0].ID)

	// Narrowing the listing below the stored page falls back to page 1.
	_, err = s.UpdatePrefs(context.Background(), prefs.Patch{Page: ptr(9)})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Prefs().Page)
}

func TestSession_UpdatePrefsFilters(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(storage.NewMemory(), cat)
	s := loadedSession(t, m)

	v, err := s.UpdatePrefs(context.Background(), prefs.Patch{Categoria: ptr("Escrita")})
	require.NoError(t, err)
	assert.Len(t, v.Items, 2)
	assert.Equal(t, "Escrita", v.Prefs.Categoria)
	assert.Len(t, s.Export(), 2)
}

func TestSession_StaleLoadIsNotApplied(t *testing.T) {
	cat := newTestCatalog()
	m := NewManager(storage.NewMemory(), cat)
	s := m.Session(context.Background(), NewID())

	entered := make(chan struct{})
	release := make(chan struct{})
	cat.hold = func(f product.Filter) {
		if f.Categoria == "" {
			close(entered)
			<-release
		}
	}

	type result struct {
		v   CatalogView
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := s.Load(context.Background())
		done <- result{v, err}
	}()
	<-entered

	// A newer load for another category completes first.
	v, err := s.UpdatePrefs(context.Background(), prefs.Patch{Categoria: ptr("Escrita")})
	require.NoError(t, err)
	assert.Len(t, v.Items, 2)

	close(release)
	old := <-done
	require.NoError(t, old.err)
	assert.True(t, old.v.Stale)
	assert.Len(t, old.v.Items, 3, "stale result is still returned to its caller")

	// The session keeps the newer listing.
	assert.Len(t, s.Export(), 2)
	assert.Len(t, s.Catalog().Items, 2)
}

func TestSession_AddToCart(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemory(), newTestCatalog())
	s := loadedSession(t, m)

	v, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.ItemCount)
	assert.True(t, v.ConfirmEnabled)

	_, err = s.AddToCart(ctx, 2)
	require.ErrorIs(t, err, cart.ErrOutOfStock)

	_, err = s.AddToCart(ctx, 99)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestSession_CartOperations(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemory(), newTestCatalog())
	s := loadedSession(t, m)

	_, err := s.AddToCart(ctx, 3)
	require.NoError(t, err)

	v, err := s.Increment(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, v.ItemCount)
	assert.Equal(t, "2.50", v.Subtotal)

	v, err = s.SetQuantity(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, "6.25", v.Lines[0].Total)

	v, err = s.Decrement(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, v.ItemCount)

	v, err = s.Remove(ctx, 3)
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.False(t, v.ConfirmEnabled)
}

func TestSession_CheckoutHappyPath(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog()
	m := NewManager(storage.NewMemory(), cat)
	s := loadedSession(t, m)

	_, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)
	v, err := s.Increment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "100.00", v.Subtotal)

	v, err = s.SetCoupon(ctx, "aluno10")
	require.NoError(t, err)
	assert.False(t, v.ConfirmEnabled)

	v, err = s.ApplyCoupon(ctx)
	require.NoError(t, err)
	assert.Equal(t, checkout.StateValidated, v.State)
	assert.Equal(t, "10.00", v.Discount)

	v, err = s.Review(ctx)
	require.NoError(t, err)
	assert.True(t, v.Locked)
	assert.True(t, v.ConfirmEnabled)
	assert.Equal(t, "90.00", v.Total)

	loads := cat.listCalls()
	order, v, err := s.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)
	assert.True(t, v.Empty)
	assert.Equal(t, checkout.StateEmpty, v.State)
	assert.Equal(t, loads+1, cat.listCalls(), "catalog reloaded after confirm")

	require.Len(t, cat.orders, 1)
	assert.Equal(t, "ALUNO10", *cat.orders[0].Coupon)
}

func TestSession_ConfirmFailure(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog()
	cat.orderErr = errors.New("estoque insuficiente")
	m := NewManager(storage.NewMemory(), cat)
	s := loadedSession(t, m)

	_, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)

	_, v, err := s.Confirm(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, v.ItemCount)
	assert.True(t, v.ConfirmEnabled)
}

func TestSession_ConfirmRecordsOrder(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog()
	log := &mockOrderLog{}
	m := NewManager(storage.NewMemory(), cat, WithOrderLog(log))
	s := loadedSession(t, m)

	_, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)
	_, err = s.SetQuantity(ctx, 1, 3)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, 3)
	require.NoError(t, err)

	order, _, err := s.Confirm(ctx)
	require.NoError(t, err)

	require.Len(t, log.recorded, 1)
	assert.Equal(t, s.ID(), log.recorded[0].session)
	assert.Equal(t, order.ID, log.recorded[0].order.ID)
	assert.True(t, order.Total.Equal(log.recorded[0].order.Total))
	assert.Equal(t, 4, log.recorded[0].items)

	// A failed confirmation is not recorded.
	cat.orderErr = errors.New("estoque insuficiente")
	_, err = s.AddToCart(ctx, 1)
	require.NoError(t, err)
	_, _, err = s.Confirm(ctx)
	require.Error(t, err)
	assert.Len(t, log.recorded, 1)
}

func TestSession_ConfirmOrderLogFailure(t *testing.T) {
	ctx := context.Background()
	m := NewManager(storage.NewMemory(), newTestCatalog(),
		WithOrderLog(&mockOrderLog{err: errors.New("connection refused")}),
	)
	s := loadedSession(t, m)

	_, err := s.AddToCart(ctx, 1)
	require.NoError(t, err)

	order, v, err := s.Confirm(ctx)
	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.True(t, v.Empty)
}

func TestSession_ConfirmEmptyCart(t *testing.T) {
	m := NewManager(storage.NewMemory(), newTestCatalog())
	s := loadedSession(t, m)

	_, _, err := s.Confirm(context.Background())
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestSession_Products(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog()
	m := NewManager(storage.NewMemory(), cat)
	s := loadedSession(t, m)

	_, err := s.CreateProduct(ctx, product.Product{Nome: "x"})
	var verr *product.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, cat.created)

	created, err := s.CreateProduct(ctx, product.Product{
		Nome:      "  Borracha  ",
		Preco:     decimal.RequireFromString("0.999"),
		Estoque:   4,
		Categoria: "Escrita",
	})
	require.NoError(t, err)
	assert.Equal(t, "Borracha", created.Nome)
	assert.Len(t, s.Export(), 4, "listing reloaded after create")

	_, err = s.UpdateProduct(ctx, 1, product.Product{Nome: "Caderno", Preco: decimal.RequireFromString("10"), Categoria: "Papelaria"})
	require.NoError(t, err)

	require.ErrorIs(t, s.DeleteProduct(ctx, 99), product.ErrNotFound)
}

func TestSession_WriteExport(t *testing.T) {
	m := NewManager(storage.NewMemory(), newTestCatalog())
	s := loadedSession(t, m)

	var buf bytes.Buffer
	require.NoError(t, s.WriteExport(&buf, export.FormatJSON, false))
	assert.Contains(t, buf.String(), `"nome":"Lápis"`)
}

func TestManager_RestoresFromStorage(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	cat := newTestCatalog()

	m := NewManager(kv, cat)
	id := NewID()
	s := m.Session(ctx, id)
	_, err := s.Load(ctx)
	require.NoError(t, err)
	_, err = s.AddToCart(ctx, 1)
	require.NoError(t, err)
	_, err = s.UpdatePrefs(ctx, prefs.Patch{Text: ptr("cad")})
	require.NoError(t, err)

	// A fresh manager over the same store sees the same session.
	restored := NewManager(kv, cat).Session(ctx, id)
	assert.Equal(t, 1, restored.Cart().ItemCount)
	assert.Equal(t, "cad", restored.Prefs().Text)

	// Other sessions are isolated.
	other := NewManager(kv, cat).Session(ctx, NewID())
	assert.True(t, other.Cart().Empty)
}

func TestManager_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	m := NewManager(storage.NewMemory(), newTestCatalog(), WithIdleTimeout(time.Minute))
	m.now = func() time.Time { return now }

	a := NewID()
	m.Session(ctx, a)
	now = now.Add(2 * time.Minute)
	b := NewID()
	m.Session(ctx, b)

	assert.Equal(t, 1, m.Sweep(ctx))
	assert.Equal(t, 1, m.Len())

	m.Evict(ctx, b)
	assert.Zero(t, m.Len())
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(NewID()))
	assert.False(t, ValidID("../../etc/passwd"))
}
