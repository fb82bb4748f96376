package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/VinMeld/autopost/internal/validation"
)

const (
	msgMissingFields = "All fields are required and at least one image must be uploaded."
	msgInvalidPhone  = "Phone number must be in the format +923XX-XXXXXXX and contain only numbers."
	msgInvalidPrice  = "Price must be a non-negative number."
	msgUnknownCity   = "Please select a city from the list."
)

var (
	phonePattern = regexp.MustCompile(`^\+923\d{2}-\d{7}$`)
	pricePattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ValidPhone reports whether phone has the +923XX-XXXXXXX shape.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidPrice reports whether price is a plain non-negative decimal number.
func ValidPrice(price string) bool {
	return pricePattern.MatchString(strings.TrimSpace(price))
}

// submission is the validated view of the form.
type submission struct {
	Model  string `validate:"required"`
	Price  string `validate:"required,price"`
	Phone  string `validate:"required,pkphone"`
	City   string `validate:"required,knowncity"`
	Images int    `validate:"gt=0"`
}

func newValidator(knownCity func(string) bool) *validator.Validate {
	v := validator.New()
	mustRegister(v, "pkphone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	mustRegister(v, "price", func(fl validator.FieldLevel) bool {
		return ValidPrice(fl.Field().String())
	})
	mustRegister(v, "knowncity", func(fl validator.FieldLevel) bool {
		return knownCity(fl.Field().String())
	})
	return v
}

// mustRegister panics if a rule cannot be registered.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %s rule: %v", tag, err))
	}
}

// check runs every rule and returns a validation.Errors, or nil. Missing
// fields are reported once, ahead of the field-specific rules.
func check(v *validator.Validate, s submission) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var (
		missing bool
		errs    validation.Errors
	)
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "gt":
			missing = true
		case "pkphone":
			errs = append(errs, &validation.Error{Code: validation.InvalidPhoneFormat, Field: "phone", Message: msgInvalidPhone})
		case "price":
			errs = append(errs, &validation.Error{Code: validation.InvalidPrice, Field: "price", Message: msgInvalidPrice})
		case "knowncity":
			errs = append(errs, &validation.Error{Code: validation.UnknownCity, Field: "city", Message: msgUnknownCity})
		}
	}
	if missing {
		errs = append(validation.Errors{{Code: validation.MissingFields, Message: msgMissingFields}}, errs...)
	}
	if len(errs) == 0 {
		return err
	}
	return errs
}
