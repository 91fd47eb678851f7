// Package export writes product listings as spreadsheet-friendly CSV or as
// JSON, optionally gzip-compressed.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/xenking/vendas-storefront/internal/domain/product"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", errors.Errorf("unknown export format %q", s)
	}
}

// ContentType returns the MIME type of the uncompressed file.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-16le"
	}
	return "application/json"
}

// FileName returns the download name of the export.
func (f Format) FileName(compressed bool) string {
	name := "produtos." + string(f)
	if compressed {
		name += ".gz"
	}
	return name
}

var header = []string{"id", "nome", "descricao", "preco", "estoque", "categoria", "sku"}

// Write exports list to w in format f, gzip-compressed when compress is set.
func Write(w io.Writer, f Format, list []product.Product, compress bool) error {
	if !compress {
		return write(w, f, list)
	}

	zw := pgzip.NewWriter(w)
	zw.Name = f.FileName(false)
	if err := write(zw, f, list); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "close gzip")
	}
	return nil
}

func write(w io.Writer, f Format, list []product.Product) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, list)
	case FormatJSON:
		return WriteJSON(w, list)
	default:
		return errors.Errorf("unknown export format %q", f)
	}
}

// WriteCSV writes a semicolon-separated file encoded as UTF-16LE with a byte
// order mark and CRLF line endings.
func WriteCSV(w io.Writer, list []product.Product) error {
	tw := transform.NewWriter(w, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder())

	cw := csv.NewWriter(tw)
	cw.Comma = ';'
	cw.UseCRLF = true

	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, p := range list {
		rec := []string{
			strconv.FormatInt(p.ID, 10),
			p.Nome,
			deref(p.Descricao),
			p.Preco.StringFixed(2),
			strconv.Itoa(p.Estoque),
			p.Categoria,
			deref(p.SKU),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "write product %d", p.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "encode utf-16")
	}
	return nil
}

// WriteJSON writes list as a JSON array in the catalog wire shape.
func WriteJSON(w io.Writer, list []product.Product) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, p := range list {
		p.Encode(e)
	}
	e.ArrEnd()

	if _, err := w.Write(e.Bytes()); err != nil {
		return errors.Wrap(err, "write json")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
