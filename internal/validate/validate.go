// Package validate checks submitted form data against a stored schema.
//
// Submission walks the schema in field order and accumulates every failure in
// one pass, so a client can highlight all offending inputs after a single round
// trip. It never panics and never returns a Go error: a bad submission is an
// expected outcome, reported through Result.Errors.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/schema"
)

// whitespaceClass lists the characters browsers treat as whitespace: line
// terminators, the Zs category, vertical tab and the byte order mark. RE2's
// \s only covers the ASCII ones.
const whitespaceClass = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

var emailPattern = regexp.MustCompile(
	`^[^@` + whitespaceClass + `]+@[^@` + whitespaceClass + `]+\.[^@` + whitespaceClass + `]+$`,
)

// Result is the outcome of validating one submission.
// Exactly one of Data (on success) or Errors (on failure) is meaningful.
type Result struct {
	Data   map[string]any
	Errors []apperror.FieldError
}

// OK reports whether the submission passed every rule.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Submission validates input against s.
//
// Only keys that name a schema field are considered; unknown keys are dropped.
// Optional fields left empty are omitted from Data. number fields are stored as
// float64, everything else verbatim.
func Submission(s schema.FormSchema, input map[string]any) Result {
	data := make(map[string]any, len(s.Fields))
	var errs []apperror.FieldError

	fail := func(f schema.FieldDefinition, format string, args ...any) {
		errs = append(errs, apperror.FieldError{
			Field:   f.ID,
			Message: f.DisplayLabel() + " " + fmt.Sprintf(format, args...),
		})
	}

	for _, f := range s.Fields {
		value := input[f.ID]

		if isEmpty(value) {
			if f.Required {
				fail(f, "is required")
			}
			continue
		}

		switch f.Type {
		case schema.TypeEmail:
			str, ok := value.(string)
			if !ok || !emailPattern.MatchString(str) {
				fail(f, "must be a valid email")
				continue
			}
			data[f.ID] = str

		case schema.TypeNumber:
			n, ok := toNumber(value)
			if !ok {
				fail(f, "must be a number")
				continue
			}
			data[f.ID] = n

		case schema.TypeSelect:
			// No options list accepts anything; an empty one accepts nothing.
			if f.Options == nil {
				data[f.ID] = value
				continue
			}
			if !anyMatch(f.Options, value) {
				fail(f, "must be one of: %s", joinLabels(f.Options))
				continue
			}
			data[f.ID] = value

		default:
			if _, ok := value.(string); !ok {
				fail(f, "must be a string")
				continue
			}
			data[f.ID] = value
		}
	}

	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Data: data}
}

// isEmpty treats a missing key, JSON null and "" alike.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func anyMatch(opts []schema.Option, v any) bool {
	for _, o := range opts {
		if o.Matches(v) {
			return true
		}
	}
	return false
}

func joinLabels(opts []schema.Option) string {
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.DisplayLabel()
	}
	return strings.Join(labels, ", ")
}
