package validation

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Values holds form field values by name.
type Values map[string]any

// FormState is a snapshot of a Form.
type FormState struct {
	Values       Values            `json:"values"`
	Errors       map[string]string `json:"errors"`
	Touched      []string          `json:"touched"`
	IsSubmitting bool              `json:"isSubmitting"`
	IsValid      bool              `json:"isValid"`
}

// SubmitFunc receives a copy of the values of a valid form.
type SubmitFunc func(ctx context.Context, values Values) error

// Form tracks one form instance. Fields move pristine -> touched on blur or
// submit; only touched fields (or a full ValidateForm pass) populate errors.
// A field revalidated on blur or change keeps an entry even when it passes;
// the entry holds "" and only a full ValidateForm pass removes it.
type Form struct {
	mu         sync.Mutex
	schema     Schema
	initial    Values
	values     Values
	errors     map[string]string
	touched    map[string]struct{}
	submitting bool
	logger     *zap.Logger
}

// FormOption customises a Form.
type FormOption func(*Form)

// WithLogger attaches a logger for validation and submission outcomes.
func WithLogger(l *zap.Logger) FormOption {
	return func(f *Form) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewForm builds a form from initial values and a schema.
func NewForm(initial Values, schema Schema, opts ...FormOption) *Form {
	f := &Form{
		schema:  schema,
		initial: copyValues(initial),
		values:  copyValues(initial),
		errors:  map[string]string{},
		touched: map[string]struct{}{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ValidateField runs the schema rule for name against value.
func (f *Form) ValidateField(name string, value any) string {
	return ValidateField(f.schema, name, value)
}

// ValidateForm validates every current value, replaces the error map and
// reports whether it is empty.
func (f *Form) ValidateForm() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateAllLocked()
}

func (f *Form) validateAllLocked() bool {
	errs := make(map[string]string)
	for _, name := range sortedKeys(f.values) {
		if msg := ValidateField(f.schema, name, f.values[name]); msg != "" {
			errs[name] = msg
		}
	}
	f.errors = errs
	f.logger.Debug("form validated", zap.Bool("valid", len(errs) == 0), zap.Int("errors", len(errs)))
	return len(errs) == 0
}

// HandleChange stores value and revalidates the field when already touched.
func (f *Form) HandleChange(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
	if _, touched := f.touched[name]; touched {
		f.setErrorLocked(name, ValidateField(f.schema, name, value))
	}
}

// HandleBlur marks the field touched and revalidates it.
func (f *Form) HandleBlur(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[name] = struct{}{}
	f.setErrorLocked(name, ValidateField(f.schema, name, f.values[name]))
}

// HandleSubmit touches every field and validates the whole form. onSubmit runs
// only for a valid form; its error is logged and returned. The submitting
// flag is set for the duration, including a failing submit.
func (f *Form) HandleSubmit(ctx context.Context, onSubmit SubmitFunc) (bool, error) {
	f.mu.Lock()
	f.submitting = true
	for name := range f.values {
		f.touched[name] = struct{}{}
	}
	valid := f.validateAllLocked()
	values := copyValues(f.values)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if !valid {
		f.logger.Debug("form submission blocked by validation errors")
		return false, nil
	}
	if onSubmit == nil {
		return true, nil
	}
	if err := onSubmit(ctx, values); err != nil {
		f.logger.Warn("form submission failed", zap.Error(err))
		return true, err
	}
	f.logger.Debug("form submitted")
	return true, nil
}

// Reset restores initial values and clears errors, touched fields and the
// submitting flag.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = copyValues(f.initial)
	f.errors = map[string]string{}
	f.touched = map[string]struct{}{}
	f.submitting = false
}

// IsValid reports an empty error map AND at least one touched field. An
// untouched form is not valid even though nothing failed, and neither is a
// form whose fields passed on blur but was never validated as a whole.
func (f *Form) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isValidLocked()
}

func (f *Form) isValidLocked() bool {
	return len(f.errors) == 0 && len(f.touched) > 0
}

// Errors returns the current failing messages by field.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messagesLocked()
}

func (f *Form) messagesLocked() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Values returns a copy of the current values.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyValues(f.values)
}

// Touched reports whether name has been touched.
func (f *Form) Touched(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.touched[name]
	return ok
}

// State returns a consistent snapshot of the form.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	errs := f.messagesLocked()
	touched := make([]string, 0, len(f.touched))
	for name := range f.touched {
		touched = append(touched, name)
	}
	sort.Strings(touched)
	return FormState{
		Values:       copyValues(f.values),
		Errors:       errs,
		Touched:      touched,
		IsSubmitting: f.submitting,
		IsValid:      f.isValidLocked(),
	}
}

// Submitting reports whether a submit is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *Form) setErrorLocked(name, msg string) {
	f.errors[name] = msg
}

func copyValues(in Values) Values {
	out := make(Values, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(values Values) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
