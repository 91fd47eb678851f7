package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/vendas-storefront/internal/domain/prefs"
	"github.com/xenking/vendas-storefront/internal/export"
	"github.com/xenking/vendas-storefront/internal/storefront"
)

const loadFailed = storefront.StatusLoadError

func (h *Handler) getCatalog(w http.ResponseWriter, r *http.Request) {
	v, err := session(r).Load(r.Context())
	if err != nil {
		writeError(w, r, err, loadFailed)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCatalog(e, v) })
}

func (h *Handler) getPrefs(w http.ResponseWriter, r *http.Request) {
	ux := session(r).Prefs()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodePrefs(e, ux) })
}

// putPrefs patches the preferences and reloads the listing. Fields left out
// of the body keep their value.
func (h *Handler) putPrefs(w http.ResponseWriter, r *http.Request) {
	var p prefs.Patch
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "sort":
			return decodeOptStr(d, &p.Sort)
		case "text":
			return decodeOptStr(d, &p.Text)
		case "categoria":
			return decodeOptStr(d, &p.Categoria)
		case "page":
			n, err := d.Int()
			if err != nil {
				return err
			}
			p.Page = &n
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	v, err := session(r).UpdatePrefs(r.Context(), p)
	if err != nil {
		writeError(w, r, err, loadFailed)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCatalog(e, v) })
}

// exportCatalog downloads the applied listing; ?compress=gzip compresses it.
func (h *Handler) exportCatalog(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Formato de exportação desconhecido.")
		return
	}
	compress := r.URL.Query().Get("compress") == "gzip"

	var buf bytes.Buffer
	if err := session(r).WriteExport(&buf, f, compress); err != nil {
		writeError(w, r, err, "")
		return
	}

	contentType := f.ContentType()
	if compress {
		contentType = "application/gzip"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.FileName(compress)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func decodeOptStr(d *jx.Decoder, dst **string) error {
	if d.Next() == jx.Null {
		*dst = nil
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = &s
	return nil
}
