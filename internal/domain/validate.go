package domain

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func settingsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = newSettingsValidator(map[string]validator.Func{
			"sendtime": func(fl validator.FieldLevel) bool { return ValidSendTime(fl.Field().String()) },
			"region":   func(fl validator.FieldLevel) bool { return IsRegion(fl.Field().String()) },
		})
	})
	return validate
}

// newSettingsValidator panics if a custom tag cannot be registered.
func newSettingsValidator(tags map[string]validator.Func) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("domain: register %q validation: %v", tag, err))
		}
	}
	return v
}

// Validate checks the record invariants: non-empty id, well-formed or empty
// send time and a known region.
func (s UserSettings) Validate() error {
	return settingsValidator().Struct(s)
}
