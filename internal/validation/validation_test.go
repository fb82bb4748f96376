package validation

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsMatching(t *testing.T) {
	errs := Errors{
		{Code: MissingFields, Message: "All fields are required"},
		{Code: InvalidPhoneFormat, Field: "phone", Message: "bad phone"},
	}
	wrapped := fmt.Errorf("submit: %w", errs)

	if !errors.Is(wrapped, ErrMissingFields) {
		t.Error("Expected MissingFields to match")
	}
	if !Has(wrapped, InvalidPhoneFormat) {
		t.Error("Expected InvalidPhoneFormat to match")
	}
	if errors.Is(wrapped, ErrTooManyImages) {
		t.Error("Did not expect TooManyImages to match")
	}
	if errs.Field("phone") == nil || errs.Field("model") != nil {
		t.Error("Field lookup mismatch")
	}
	if errs.Error() != "All fields are required; bad phone" {
		t.Errorf("Unexpected message: %s", errs.Error())
	}
}
