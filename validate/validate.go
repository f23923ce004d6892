// Package validate contains custom validation functions
package validate

import (
	"encoding/base64"

	"github.com/go-playground/validator/v10"
)

// Base64URL is a custom validation function that is used to validate credential IDs
func Base64URL(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return false
	}

	_, err := base64.RawURLEncoding.DecodeString(value)
	return err == nil
}
