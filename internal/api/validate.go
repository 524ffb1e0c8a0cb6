package api

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/model"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func preferencesValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("knowncategory", func(fl validator.FieldLevel) bool {
			raw := fl.Field().String()
			c := model.Category(raw)
			return classify.IsKnownCategory(c) && classify.NormalizeCategory(raw) == c
		})
	})
	return validate
}

// ValidatePreferences rejects category keys outside the canonical set.
func ValidatePreferences(p model.Preferences) error {
	err := preferencesValidator().Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating preferences: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = fmt.Sprintf("unknown category %q", fe.Value())
	}
	return &ValidationError{Fields: fields}
}
