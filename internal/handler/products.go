package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/vendas-storefront/internal/domain/product"
)

func decodeProduct(r *http.Request) (product.Product, error) {
	var p product.Product
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return p, badRequest(err, "read body")
	}
	if err := p.Decode(jx.DecodeBytes(body)); err != nil {
		return p, badRequest(err, "decode product")
	}
	return p, nil
}

func writeProduct(w http.ResponseWriter, status int, p *product.Product, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("product")
		p.Encode(e)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProduct(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	created, err := session(r).CreateProduct(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Erro ao salvar produto.")
		return
	}
	writeProduct(w, http.StatusCreated, created, "Produto criado.")
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	in, err := decodeProduct(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	updated, err := session(r).UpdateProduct(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err, "Erro ao salvar produto.")
		return
	}
	writeProduct(w, http.StatusOK, updated, "Produto atualizado.")
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	if err := session(r).DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, err, "Erro ao excluir.")
		return
	}
	writeMessage(w, http.StatusOK, "Produto excluído.")
}
