package models

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator registers "maxbytes", which limits the encoded length of a
// string rather than its rune count. Account space and address seeds are
// measured in bytes.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}
