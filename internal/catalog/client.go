// Package catalog is the HTTP client of the external catalog service that
// owns products and confirms orders.
package catalog

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/vendas-storefront/internal/domain/checkout"
	"github.com/xenking/vendas-storefront/internal/domain/product"
)

// DefaultTimeout bounds every request to the catalog service.
const DefaultTimeout = 10 * time.Second

var (
	_ product.Catalog         = (*Client)(nil)
	_ checkout.OrderConfirmer = (*Client)(nil)
)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	tracer     trace.TracerProvider
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithTracerProvider sets the provider for client spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// Client talks to the catalog service.
type Client struct {
	base   *url.URL
	http   *http.Client
	tracer trace.Tracer
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse catalog url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("catalog url %q must be absolute", baseURL)
	}

	o := options{
		timeout: DefaultTimeout,
		tracer:  otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(o.tracer),
			),
		}
	}
	hc := *o.httpClient
	hc.Timeout = o.timeout

	return &Client{
		base:   base,
		http:   &hc,
		tracer: o.tracer.Tracer("github.com/xenking/vendas-storefront/internal/catalog"),
	}, nil
}

// List fetches the products matching f. Empty filter fields are omitted
// from the query.
func (c *Client) List(ctx context.Context, f product.Filter) (_ []product.Product, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.List", trace.WithAttributes(
		attribute.String("catalog.search", f.Search),
		attribute.String("catalog.categoria", f.Categoria),
		attribute.String("catalog.sort", f.Sort),
	))
	defer func() { endSpan(span, rerr) }()

	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Categoria != "" {
		q.Set("categoria", f.Categoria)
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}

	var list []product.Product
	err := c.do(ctx, http.MethodGet, "/produtos", q, nil, func(d *jx.Decoder) error {
		var err error
		list, err = product.DecodeList(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.count", len(list)))
	return list, nil
}

// Create adds a product and returns it as stored by the service.
func (c *Client) Create(ctx context.Context, p product.Product) (_ *product.Product, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Create")
	defer func() { endSpan(span, rerr) }()

	var out product.Product
	if err := c.do(ctx, http.MethodPost, "/produtos", nil, p.EncodeBody, out.Decode); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the product id.
func (c *Client) Update(ctx context.Context, id int64, p product.Product) (_ *product.Product, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Update", trace.WithAttributes(
		attribute.Int64("product.id", id),
	))
	defer func() { endSpan(span, rerr) }()

	var out product.Product
	if err := c.do(ctx, http.MethodPut, productPath(id), nil, p.EncodeBody, out.Decode); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the product id.
func (c *Client) Delete(ctx context.Context, id int64) (rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Delete", trace.WithAttributes(
		attribute.Int64("product.id", id),
	))
	defer func() { endSpan(span, rerr) }()

	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil, nil)
}

// ConfirmOrder posts the cart to the order confirmation endpoint.
func (c *Client) ConfirmOrder(ctx context.Context, req checkout.OrderRequest) (_ *checkout.Order, rerr error) {
	ctx, span := c.tracer.Start(ctx, "catalog.ConfirmOrder", trace.WithAttributes(
		attribute.Int("order.items", len(req.Items)),
		attribute.Bool("order.coupon", req.Coupon != nil),
	))
	defer func() { endSpan(span, rerr) }()

	var order checkout.Order
	err := c.do(ctx, http.MethodPost, "/carrinho/confirmar", nil,
		func(e *jx.Encoder) { encodeOrderRequest(e, req) },
		func(d *jx.Decoder) error { return decodeOrder(d, &order) },
	)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return &order, nil
}

// Ping checks the service health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body func(*jx.Encoder),
	decode func(*jx.Decoder) error,
) error {
	op := method + " " + path

	u := c.base.JoinPath(path)
	u.RawQuery = query.Encode()

	var reqBody io.Reader
	if body != nil {
		e := &jx.Encoder{}
		body(e)
		reqBody = bytes.NewReader(e.Bytes())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return errors.Wrapf(err, "build %s", op)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: errors.Wrap(err, "read body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, data)
	}
	if decode == nil {
		return nil
	}
	if err := decode(jx.DecodeBytes(data)); err != nil {
		return &NetworkError{Op: op, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

func productPath(id int64) string {
	return "/produtos/" + strconv.FormatInt(id, 10)
}

func encodeOrderRequest(e *jx.Encoder, req checkout.OrderRequest) {
	e.ObjStart()
	e.FieldStart("itens")
	e.ArrStart()
	for _, it := range req.Items {
		e.ObjStart()
		e.FieldStart("produto_id")
		e.Int64(it.ProductID)
		e.FieldStart("quantidade")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("cupom")
	if req.Coupon == nil {
		e.Null()
	} else {
		e.Str(*req.Coupon)
	}
	e.ObjEnd()
}

func decodeOrder(d *jx.Decoder, o *checkout.Order) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = d.Int64()
		case "total":
			o.Total, err = product.DecodeDecimal(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
