package service

import (
	"embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/validation"
)

//go:embed forms/*.yaml
var formFiles embed.FS

var whatsappPattern = regexp.MustCompile(`^0[0-9]{9}$`)

// formCustoms are the named predicates form schemas may reference.
var formCustoms = map[string]validation.CustomFunc{
	"whatsapp_number": func(value any) string {
		s, _ := value.(string)
		if s == "" {
			return ""
		}
		compact := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
		if !whatsappPattern.MatchString(compact) {
			return "Invalid WhatsApp number format (e.g., 0501234567)"
		}
		return ""
	},
}

// FormSchema loads one of the embedded schemas: login, contact or settings.
func FormSchema(name string) (validation.Schema, error) {
	data, err := formFiles.ReadFile("forms/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", name, err)
	}
	return validation.LoadSchema(data, formCustoms)
}

func mustFormSchema(name string) validation.Schema {
	schema, err := FormSchema(name)
	if err != nil {
		panic(err)
	}
	return schema
}

// FieldErrors maps field names to validation messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return strings.Join(f.Messages(), "; ")
}

// Messages lists the messages ordered by field name.
func (f FieldErrors) Messages() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, f[name])
	}
	return out
}

// validationFailed wraps field errors so handlers can return them in meta.
func validationFailed(fields map[string]string) error {
	return appErrors.Wrap(FieldErrors(fields), appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
}

// AsFieldErrors extracts per-field messages from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fields FieldErrors
	if errors.As(err, &fields) {
		return fields, true
	}
	return nil, false
}
