package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes p in the catalog service wire shape.
func (p Product) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	p.encodeFields(e)
	e.ObjEnd()
}

// EncodeBody writes p without its id, as expected by create and update
// requests.
func (p Product) EncodeBody(e *jx.Encoder) {
	e.ObjStart()
	p.encodeFields(e)
	e.ObjEnd()
}

func (p Product) encodeFields(e *jx.Encoder) {
	e.FieldStart("nome")
	e.Str(p.Nome)
	e.FieldStart("descricao")
	encodeOptStr(e, p.Descricao)
	e.FieldStart("preco")
	e.Num(jx.Num(p.Preco.StringFixed(2)))
	e.FieldStart("estoque")
	e.Int(p.Estoque)
	e.FieldStart("categoria")
	e.Str(p.Categoria)
	e.FieldStart("sku")
	encodeOptStr(e, p.SKU)
}

func encodeOptStr(e *jx.Encoder, s *string) {
	if s == nil {
		e.Null()
		return
	}
	e.Str(*s)
}

// Decode reads a product object. Unknown fields are skipped and the price is
// accepted both as a JSON number and as a numeric string.
func (p *Product) Decode(d *jx.Decoder) error {
	*p = Product{}
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
		case "nome":
			p.Nome, err = d.Str()
		case "descricao":
			p.Descricao, err = decodeOptStr(d)
		case "preco":
			p.Preco, err = DecodeDecimal(d)
		case "estoque":
			p.Estoque, err = d.Int()
		case "categoria":
			p.Categoria, err = d.Str()
		case "sku":
			p.SKU, err = decodeOptStr(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
}

// DecodeList reads a JSON array of products.
func DecodeList(d *jx.Decoder) ([]Product, error) {
	var list []Product
	err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := p.Decode(d); err != nil {
			return err
		}
		list = append(list, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// DecodeDecimal reads a number or a numeric string as a decimal.
func DecodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for decimal", d.Next())
	}
}

func decodeOptStr(d *jx.Decoder) (*string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	return &s, nil
}
