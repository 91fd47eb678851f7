// Package handler exposes the storefront sessions as a JSON API for the
// browser UI.
package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/vendas-storefront/internal/storefront"
	"github.com/xenking/vendas-storefront/pkg/httpmiddleware"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "vendas_session"

// maxBodySize bounds request bodies; the largest is a product form.
const maxBodySize = 64 << 10

// Probes serves the liveness and readiness endpoints.
type Probes interface {
	LiveEndpoint(w http.ResponseWriter, r *http.Request)
	ReadyEndpoint(w http.ResponseWriter, r *http.Request)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// SecureCookie marks the session cookie Secure. Enable behind TLS.
	SecureCookie bool
	// CookieMaxAge bounds the session cookie lifetime. Zero makes it a
	// browser-session cookie.
	CookieMaxAge time.Duration
}

// Handler routes API requests to the session of the calling browser.
type Handler struct {
	sessions *storefront.Manager
	probes   Probes
	cfg      Config
}

// New constructs a Handler. probes may be nil.
func New(cfg Config, sessions *storefront.Manager, probes Probes) *Handler {
	return &Handler{sessions: sessions, probes: probes, cfg: cfg}
}

// Router builds the route tree. Request logging is mounted inside the router
// so that log lines carry the matched route pattern.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(httpmiddleware.LogRequests())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Recurso não encontrado.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Método não permitido.")
	})

	if h.probes != nil {
		r.Get("/livez", h.probes.LiveEndpoint)
		r.Get("/readyz", h.probes.ReadyEndpoint)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(h.withSession)

		r.Get("/catalog", h.getCatalog)
		r.Get("/catalog/export.{format}", h.exportCatalog)
		r.Get("/prefs", h.getPrefs)
		r.Put("/prefs", h.putPrefs)

		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)

		r.Get("/cart", h.getCart)
		r.Post("/cart/items", h.addItem)
		r.Put("/cart/items/{id}", h.setQuantity)
		r.Delete("/cart/items/{id}", h.removeItem)
		r.Post("/cart/items/{id}/increment", h.increment)
		r.Post("/cart/items/{id}/decrement", h.decrement)
		r.Put("/cart/coupon", h.setCoupon)
		r.Post("/cart/coupon/apply", h.applyCoupon)
		r.Post("/cart/review", h.review)
		r.Post("/cart/confirm", h.confirm)
	})

	return r
}

type sessionKey struct{}

// withSession resolves the session from the cookie, starting a new one when
// the cookie is missing or malformed.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil && storefront.ValidID(c.Value) {
			id = c.Value
		} else {
			id = storefront.NewID()
			c := &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   h.cfg.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			}
			if h.cfg.CookieMaxAge > 0 {
				c.MaxAge = int(h.cfg.CookieMaxAge / time.Second)
			}
			http.SetCookie(w, c)
		}

		s := h.sessions.Session(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func session(r *http.Request) *storefront.Session {
	return r.Context().Value(sessionKey{}).(*storefront.Session)
}

// badRequestError marks a request that could not be parsed.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return "bad request: " + e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error, format string, args ...any) error {
	return &badRequestError{err: errors.Wrapf(err, format, args...)}
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(errors.New("must be a positive integer"), "id %q", raw)
	}
	return id, nil
}

// decodeBody reads a JSON object body with fn called per field.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return badRequest(err, "read body")
	}
	if err := jx.DecodeBytes(body).Obj(fn); err != nil {
		return badRequest(err, "decode body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeMessage(e, status, message)
	})
}
