package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/vendas-storefront/internal/storefront"
)

func writeCart(w http.ResponseWriter, v storefront.CartView, message string) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("cart")
		encodeCart(e, v)
		if message != "" {
			e.FieldStart("message")
			e.Str(message)
		}
		e.ObjEnd()
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeCart(w, session(r).Cart(), "")
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var id int64
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "product_id" {
			return d.Skip()
		}
		var err error
		id, err = d.Int64()
		return err
	})
	if err == nil && id <= 0 {
		err = badRequest(errors.New("missing"), "product_id")
	}
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	v, err := session(r).AddToCart(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeCart(w, v, "Adicionado ao carrinho.")
}

// cartLine adapts a per-line session operation to a handler.
func cartLine(op func(s *storefront.Session, ctx context.Context, id int64) (storefront.CartView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err, "")
			return
		}
		v, err := op(session(r), r.Context(), id)
		if err != nil {
			writeError(w, r, err, "")
			return
		}
		writeCart(w, v, "")
	}
}

func (h *Handler) increment(w http.ResponseWriter, r *http.Request) {
	cartLine((*storefront.Session).Increment)(w, r)
}

func (h *Handler) decrement(w http.ResponseWriter, r *http.Request) {
	cartLine((*storefront.Session).Decrement)(w, r)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	cartLine((*storefront.Session).Remove)(w, r)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	var (
		n   int
		set bool
	)
	err = decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		set = true
		var err error
		n, err = d.Int()
		return err
	})
	if err == nil && !set {
		err = badRequest(errors.New("missing"), "quantity")
	}
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	v, err := session(r).SetQuantity(r.Context(), id, n)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeCart(w, v, "")
}

func (h *Handler) setCoupon(w http.ResponseWriter, r *http.Request) {
	var text string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "text" {
			return d.Skip()
		}
		var err error
		text, err = d.Str()
		return err
	})
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	v, err := session(r).SetCoupon(r.Context(), text)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeCart(w, v, "")
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	v, err := session(r).ApplyCoupon(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeCart(w, v, "Cupom aplicado.")
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	v, err := session(r).Review(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeCart(w, v, "")
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	order, v, err := session(r).Confirm(r.Context())
	if err != nil {
		writeError(w, r, err, "Erro ao confirmar.")
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("order")
		encodeOrder(e, order)
		e.FieldStart("cart")
		encodeCart(e, v)
		e.FieldStart("message")
		e.Str("Pedido #" + strconv.FormatInt(order.ID, 10) + " confirmado. Total R$ " + order.Total.StringFixed(2))
		e.ObjEnd()
	})
}
