package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
)

// upstreamAPI is the subset of the upstream client the services use.
type upstreamAPI interface {
	GetJSON(ctx context.Context, auth upstream.Auth, path string, query url.Values, dest interface{}) error
	PostJSON(ctx context.Context, auth upstream.Auth, path string, body, dest interface{}) error
	PutJSON(ctx context.Context, auth upstream.Auth, path string, body, dest interface{}) error
	PostForm(ctx context.Context, auth upstream.Auth, path string, form url.Values, dest interface{}) error
	GetText(ctx context.Context, auth upstream.Auth, path string) (string, error)
}

// NewValidator returns a validator reporting fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// structErrors flattens validator errors into field -> message.
func structErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
