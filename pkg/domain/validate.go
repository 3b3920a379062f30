package domain

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks required fields and enum membership declared in struct tags.
// Format and cross-column rules are left to the storage engine.
func Validate(v any) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate.Struct(v)
}
