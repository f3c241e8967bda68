package validation

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SeatRow accepts a single uppercase row letter A-Z.
func SeatRow(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}

// Register installs the custom tags on v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("seatrow", SeatRow); err != nil {
		return fmt.Errorf("register seatrow: %w", err)
	}
	return nil
}

// RegisterWithGin installs the custom tags on gin's default validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}
