package cart

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// encodeSnapshot writes {"items":{"<id>":{"produto":{...},"qtd":n}}}.
func encodeSnapshot(lines []Line) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("items")
	e.ObjStart()
	for _, l := range lines {
		e.FieldStart(strconv.FormatInt(l.Product.ID, 10))
		e.ObjStart()
		e.FieldStart("produto")
		l.Product.Encode(e)
		e.FieldStart("qtd")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ObjEnd()
	e.ObjEnd()

	return append([]byte(nil), e.Bytes()...)
}

// decodeSnapshot parses a cart snapshot. The top level must be an object;
// a missing or non-object "items" yields an empty cart. Individual lines
// that cannot be parsed, or whose quantity is outside [1, MaxQuantity], are
// counted in skipped and dropped.
func decodeSnapshot(data []byte) (lines map[int64]Line, skipped int, err error) {
	lines = make(map[int64]Line)

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return nil, 0, errors.New("snapshot is not an object")
	}

	err = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" || d.Next() != jx.Object {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			l, err := decodeLine(key, raw)
			if err != nil {
				skipped++
				return nil
			}
			lines[l.Product.ID] = l
			return nil
		})
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "decode snapshot")
	}
	return lines, skipped, nil
}

func decodeLine(key string, raw jx.Raw) (Line, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return Line{}, errors.Wrapf(err, "line key %q", key)
	}

	var (
		l          Line
		hasProduct bool
	)
	err = jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "produto":
			hasProduct = true
			return l.Product.Decode(d)
		case "qtd":
			n, err := d.Int()
			l.Quantity = n
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return Line{}, err
	}
	if !hasProduct {
		return Line{}, errors.Errorf("line %d has no product", id)
	}
	if l.Quantity < 1 || l.Quantity > MaxQuantity {
		return Line{}, errors.Errorf("line %d has quantity %d", id, l.Quantity)
	}
	// The map key is authoritative.
	l.Product.ID = id
	return l, nil
}
