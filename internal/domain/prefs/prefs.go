// Package prefs persists the catalog browsing preferences of a session:
// search text, category, sort order and page.
package prefs

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/internal/domain/product"
	"github.com/xenking/vendas-storefront/internal/storage"
)

// StorageKey is the fixed key of the preferences snapshot.
const StorageKey = "vendas_ux_v1"

// DefaultSort orders products by name.
const DefaultSort = "nome:asc"

// UX is the preferences snapshot.
type UX struct {
	Sort      string
	Text      string
	Categoria string
	Page      int
}

// Default returns the preferences of a new session.
func Default() UX {
	return UX{Sort: DefaultSort, Page: 1}
}

// Filter builds the catalog query for u.
func (u UX) Filter() product.Filter {
	return product.Filter{Search: u.Text, Categoria: u.Categoria, Sort: u.Sort}
}

// Patch carries the fields to change. Nil fields are left as they are.
type Patch struct {
	Sort      *string
	Text      *string
	Categoria *string
	Page      *int
}

// Store holds the preferences of one session. It is not safe for
// concurrent use.
type Store struct {
	kv storage.KV
	lg *zap.Logger
	ux UX
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report persistence failures.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// Open restores preferences from kv, merging stored fields over the
// defaults. Malformed data is ignored.
func Open(ctx context.Context, kv storage.KV, opts ...Option) *Store {
	s := &Store{kv: kv, lg: zap.NewNop(), ux: Default()}
	for _, o := range opts {
		o(s)
	}

	data, err := kv.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.lg.Warn("Preferences unreadable, using defaults", zap.Error(err))
		}
		return s
	}
	if err := s.ux.decode(jx.DecodeBytes(data)); err != nil {
		s.lg.Warn("Preferences malformed, using defaults", zap.Error(err))
		s.ux = Default()
	}
	return s
}

// Get returns the current preferences.
func (s *Store) Get() UX {
	return s.ux
}

// Apply changes the fields set in p and persists the result. Changing the
// text, category or sort returns to the first page.
func (s *Store) Apply(ctx context.Context, p Patch) UX {
	if p.Text != nil {
		s.ux.Text = strings.TrimSpace(*p.Text)
		s.ux.Page = 1
	}
	if p.Categoria != nil {
		s.ux.Categoria = *p.Categoria
		s.ux.Page = 1
	}
	if p.Sort != nil {
		s.ux.Sort = *p.Sort
		if s.ux.Sort == "" {
			s.ux.Sort = DefaultSort
		}
		s.ux.Page = 1
	}
	if p.Page != nil {
		s.ux.Page = max(*p.Page, 1)
	}
	s.save(ctx)
	return s.ux
}

// ResetPage moves back to the first page, as done when the listing shrank
// below the stored page.
func (s *Store) ResetPage(ctx context.Context) {
	if s.ux.Page == 1 {
		return
	}
	s.ux.Page = 1
	s.save(ctx)
}

func (s *Store) save(ctx context.Context) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	s.ux.encode(e)

	if err := s.kv.Set(ctx, StorageKey, e.Bytes()); err != nil {
		s.lg.Error("Persist preferences", zap.Error(err))
	}
}

func (u UX) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("sort")
	e.Str(u.Sort)
	e.FieldStart("text")
	e.Str(u.Text)
	e.FieldStart("categoria")
	e.Str(u.Categoria)
	e.FieldStart("page")
	e.Int(u.Page)
	e.ObjEnd()
}

// decode merges the fields found in d into u. Fields of the wrong type are
// skipped.
func (u *UX) decode(d *jx.Decoder) error {
	if d.Next() != jx.Object {
		return errors.New("preferences are not an object")
	}
	merged := *u
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "sort", "text", "categoria":
			if d.Next() != jx.String {
				return d.Skip()
			}
			v, err := d.Str()
			if err != nil {
				return err
			}
			switch key {
			case "sort":
				if v != "" {
					merged.Sort = v
				}
			case "text":
				merged.Text = v
			case "categoria":
				merged.Categoria = v
			}
			return nil
		case "page":
			if d.Next() != jx.Number {
				return d.Skip()
			}
			n, err := d.Int()
			if err != nil {
				return err
			}
			merged.Page = max(n, 1)
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return errors.Wrap(err, "decode preferences")
	}
	*u = merged
	return nil
}
