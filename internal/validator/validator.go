package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single field failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the service's custom rules.
type Validator struct {
	validate *validator.Validate
}

var orgCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{3,10}$`)

func New() *Validator {
	validate := validator.New()

	_ = validate.RegisterValidation("org_code", func(fl validator.FieldLevel) bool {
		return orgCodePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("option_key", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "A", "B", "C", "D":
			return true
		}
		return false
	})

	return &Validator{validate: validate}
}

// Validate runs struct-tag validation; nil means valid.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs ValidationErrors
	for _, fe := range err.(validator.ValidationErrors) {
		errs = append(errs, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errs
}

// ValidateQuestionOptions enforces the pairwise-distinct invariant over the
// four option texts, compared case-insensitively after trimming.
func (v *Validator) ValidateQuestionOptions(options ...string) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]int, len(options))
	labels := []string{"option_a", "option_b", "option_c", "option_d"}

	for i, opt := range options {
		key := strings.ToLower(strings.TrimSpace(opt))
		if prev, ok := seen[key]; ok {
			errs = append(errs, ValidationError{
				Field:   labels[i],
				Message: fmt.Sprintf("duplicates %s", labels[prev]),
				Value:   opt,
				Rule:    "distinct_options",
			})
			continue
		}
		seen[key] = i
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "org_code":
		return "must be 3-10 alphanumeric characters"
	case "option_key", "oneof":
		return "must be one of A, B, C, D"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
