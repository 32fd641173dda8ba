// Package validation binds go-playground/validator into echo.
package validation

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"giftaihub/internal/dto"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// New returns a validator with the checkout struct rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// the first line item carries the shared recipient envelope
	v.RegisterStructValidation(cartStructValidation, dto.CartCheckoutRequest{})

	return v
}

func cartStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(dto.CartCheckoutRequest)
	if len(req.Items) == 0 || req.Items[0] == nil {
		return
	}

	first := req.Items[0]
	if strings.TrimSpace(first.RecipientEmail) == "" {
		sl.ReportError(first.RecipientEmail, "items[0].recipientEmail", "RecipientEmail", "recipient_required", "")
	}
	if strings.TrimSpace(first.RecipientName) == "" {
		sl.ReportError(first.RecipientName, "items[0].recipientName", "RecipientName", "recipient_required", "")
	}
	if strings.TrimSpace(first.SenderName) == "" {
		sl.ReportError(first.SenderName, "items[0].senderName", "SenderName", "recipient_required", "")
	}
}

// EchoValidator adapts a validator to echo.Validator.
type EchoValidator struct {
	v *validatorv10.Validate
}

func NewEchoValidator(v *validatorv10.Validate) *EchoValidator {
	return &EchoValidator{v: v}
}

func (ev *EchoValidator) Validate(i interface{}) error {
	return ev.v.Struct(i)
}

// BindAndValidate binds the request body into out and validates it. Failures
// come back as a 400 *echo.HTTPError with per-field messages.
func BindAndValidate(c echo.Context, out interface{}) error {
	if err := c.Bind(out); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid_request_body",
		})
	}

	if err := c.Validate(out); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"error":  "validation_failed",
			"fields": Fields(err),
		})
	}
	return nil
}

// Fields flattens validator errors into namespace -> failed rule.
func Fields(err error) map[string]string {
	out := map[string]string{}

	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		out["error"] = err.Error()
		return out
	}

	for _, fe := range ve {
		out[fieldName(fe)] = fe.Tag()
	}
	return out
}

// fieldName drops the root struct name from the namespace.
func fieldName(fe validatorv10.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
