package catalog

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/vendas-storefront/internal/domain/product"
)

// ServiceError is a non-2xx answer of the catalog service. Message holds the
// human-readable text from the error body, if any.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog service: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("catalog service: status %d", e.Status)
}

// Is reports a 404 as product.ErrNotFound.
func (e *ServiceError) Is(target error) bool {
	return target == product.ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError means the catalog service could not be reached or its answer
// could not be read.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UserMessage returns the text to show for err: the service message when
// the service sent one, fallback otherwise.
func UserMessage(err error, fallback string) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return fallback
}

// parseError builds a ServiceError from a response body. Recognized shapes:
//
//	{"detail": {"erro": "..."}}
//	{"detail": "..."}
//	{"erro": "..."}
//	{"message": "..."}
//
// Anything else leaves Message empty.
func parseError(status int, body []byte) *ServiceError {
	e := &ServiceError{Status: status}
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return e
	}
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "detail":
			switch d.Next() {
			case jx.String:
				msg, err := d.Str()
				if err == nil && e.Message == "" {
					e.Message = msg
				}
				return err
			case jx.Object:
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "erro" || d.Next() != jx.String {
						return d.Skip()
					}
					msg, err := d.Str()
					if err == nil {
						e.Message = msg
					}
					return err
				})
			}
		case "erro", "message":
			if d.Next() == jx.String {
				msg, err := d.Str()
				if err == nil && e.Message == "" {
					e.Message = msg
				}
				return err
			}
		}
		return d.Skip()
	})
	return e
}
