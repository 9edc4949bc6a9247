package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a single rejected field. Index is the position
// of the offending observation within a batch, or -1 outside a batch.
type ValidationError struct {
	Subject string
	Index   int
	Field   string
	Value   any
	Reason  string
}

func (e *ValidationError) Error() string {
	subject := e.Subject
	if e.Index >= 0 {
		subject = fmt.Sprintf("%s %d", e.Subject, e.Index)
	}
	return fmt.Sprintf("%s: %s %s (got %v)", subject, e.Field, e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so errors line up with the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	_ = v.RegisterValidation("study_type", func(fl validator.FieldLevel) bool {
		return ValidStudyType(fl.Field().String())
	})

	return v
}

// structErrors runs the validator and converts its field errors into
// joined *ValidationError values.
func structErrors(s any, subject string, index int) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &ValidationError{
			Subject: subject,
			Index:   index,
			Field:   fe.Field(),
			Value:   fe.Value(),
			Reason:  reasonFor(fe),
		})
	}
	return errors.Join(errs...)
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "gtfield":
		return "must be greater than " + strings.ToLower(fe.Param())
	case "finite":
		return "must be a finite number"
	case "study_type":
		return "is not a known study type"
	case "required":
		return "is required"
	}
	return "failed " + fe.Tag()
}
