package handler

import (
	"context"
	"net/http"
	"sort"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/vendas-storefront/internal/catalog"
	"github.com/xenking/vendas-storefront/internal/domain/cart"
	"github.com/xenking/vendas-storefront/internal/domain/checkout"
	"github.com/xenking/vendas-storefront/internal/domain/coupon"
	"github.com/xenking/vendas-storefront/internal/domain/product"
)

// Messages shown for domain errors.
var domainMessages = []struct {
	err     error
	status  int
	message string
}{
	{coupon.ErrInvalidCoupon, http.StatusUnprocessableEntity, "Cupom inválido."},
	{checkout.ErrCouponRequired, http.StatusUnprocessableEntity, "Informe um cupom."},
	{checkout.ErrCouponLocked, http.StatusUnprocessableEntity, "O cupom não pode ser alterado após a revisão."},
	{checkout.ErrNotValidated, http.StatusUnprocessableEntity, "Aplique o cupom antes de revisar."},
	{cart.ErrOutOfStock, http.StatusUnprocessableEntity, "Produto sem estoque."},
	{cart.ErrQuantityLimit, http.StatusUnprocessableEntity, "Quantidade máxima por item atingida."},
	{checkout.ErrEmptyCart, http.StatusConflict, "Seu carrinho está vazio."},
	{checkout.ErrConfirmDisabled, http.StatusConflict, "Revise o total com o cupom antes de finalizar."},
	{checkout.ErrConfirmInProgress, http.StatusConflict, "Confirmação em andamento."},
}

// writeError answers err as {"code","message"}. fallback is the message used
// when the catalog service failed without a message of its own.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		badReq    *badRequestError
		invalid   *product.ValidationError
		notInCart *cart.NotFoundError
		svcErr    *catalog.ServiceError
		netErr    *catalog.NetworkError
	)

	switch {
	case errors.As(err, &badReq):
		writeMessage(w, http.StatusBadRequest, "Requisição inválida.")
		return
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("code")
			e.Int(http.StatusUnprocessableEntity)
			e.FieldStart("message")
			e.Str("Verifique os campos do produto.")
			e.FieldStart("fields")
			encodeFields(e, invalid.Fields)
			e.ObjEnd()
		})
		return
	case errors.As(err, &notInCart):
		writeMessage(w, http.StatusNotFound, "Item não está no carrinho.")
		return
	case errors.Is(err, product.ErrNotFound):
		writeMessage(w, http.StatusNotFound, catalog.UserMessage(err, "Produto não encontrado."))
		return
	}

	for _, m := range domainMessages {
		if errors.Is(err, m.err) {
			writeMessage(w, m.status, m.message)
			return
		}
	}

	lg := zctx.From(r.Context())
	switch {
	case errors.As(err, &svcErr):
		lg.Warn("Catalog service error", zap.Error(err))
		writeMessage(w, http.StatusBadGateway, catalog.UserMessage(err, fallback))
	case errors.As(err, &netErr):
		if errors.Is(err, context.Canceled) {
			lg.Debug("Catalog request canceled", zap.Error(err))
		} else {
			lg.Warn("Catalog unreachable", zap.Error(err))
		}
		writeMessage(w, http.StatusServiceUnavailable, fallback)
	default:
		lg.Error("Unhandled error", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Erro interno.")
	}
}

func encodeMessage(e *jx.Encoder, status int, message string) {
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
}

func encodeFields(e *jx.Encoder, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		e.Str(fields[k])
	}
	e.ObjEnd()
}
