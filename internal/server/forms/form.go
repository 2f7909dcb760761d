// Package forms binds and validates the submitted candidate forms: the
// account fields, the round application fields and any supplementary forms
// registered by the embedding site.
package forms

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NonFieldKey collects errors that do not belong to a single field.
const NonFieldKey = "__all__"

// Form is one prefixed group of fields. Submitted data is read from
// "<prefix>-<field>" keys and whitespace-trimmed.
type Form interface {
	Prefix() string
	Bind(data url.Values)
	IsBound() bool
	// Validate reports whether the bound data is acceptable. A non-nil
	// error means validation itself could not run.
	Validate(ctx context.Context) (bool, error)
	Errors() Errors
	Value(field string) string
	Fields() []Field
}

// Errors maps field names to human readable messages.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Get(field string) []string {
	return e[field]
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) NonField() []string {
	return e[NonFieldKey]
}

func (e Errors) Empty() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return false
		}
	}
	return true
}

var validate = validator.New()

// Field declares one text input and the validator tags it must satisfy.
type Field struct {
	Name  string
	Rules string
}

// Base implements the Form plumbing (binding, trimming, rule checks) and is
// meant to be embedded. Embedders supply Validate.
type Base struct {
	prefix  string
	fields  []Field
	initial map[string]string
	values  map[string]string
	bound   bool
	errors  Errors
}

func NewBase(prefix string, fields []Field, initial map[string]string) Base {
	if initial == nil {
		initial = map[string]string{}
	}
	return Base{prefix: prefix, fields: fields, initial: initial, errors: Errors{}}
}

// Key returns the submitted name of field in a form with the given prefix.
func Key(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "-" + field
}

func (b *Base) Prefix() string { return b.prefix }

func (b *Base) IsBound() bool { return b.bound }

func (b *Base) Errors() Errors { return b.errors }

func (b *Base) Fields() []Field { return b.fields }

func (b *Base) Bind(data url.Values) {
	b.bound = true
	b.errors = Errors{}
	b.values = make(map[string]string, len(b.fields))
	for _, f := range b.fields {
		b.values[f.Name] = strings.TrimSpace(data.Get(Key(b.prefix, f.Name)))
	}
}

// Value returns the bound value of field, or its initial value when the
// form is unbound.
func (b *Base) Value(name string) string {
	if b.bound {
		return b.values[name]
	}
	return b.initial[name]
}

// ValidateFields runs the declared rules and records a message per failing
// field. It reports whether every field passed.
func (b *Base) ValidateFields() bool {
	ok := true
	for _, f := range b.fields {
		if f.Rules == "" {
			continue
		}
		if err := validate.Var(b.values[f.Name], f.Rules); err != nil {
			b.errors.Add(f.Name, message(err))
			ok = false
		}
	}
	return ok
}

func message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Enter a valid value."
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid e-mail address."
	case "number":
		return "Enter a whole number."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "oneof":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}
