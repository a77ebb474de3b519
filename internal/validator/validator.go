package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teachkit/correction-service/internal/grading"
	"github.com/teachkit/correction-service/internal/models"
)

// Validator wraps struct-tag validation with the custom rules used by the
// correction endpoints.
type Validator struct {
	structValidator *validator.Validate
}

// New creates the shared validator instance.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// Validate validates struct tags and converts failures to the shared
// ValidationErrors type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if converted := ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// ValidateStruct validates struct tags only, keeping the raw validator error.
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

func registerCustomValidators(validate *validator.Validate) {
	// Settable correction statuses (DISPENSE is recognized downstream but is
	// never a valid target here)
	validate.RegisterValidation("correction_status", validateCorrectionStatus)

	// Scoring family of an activity
	validate.RegisterValidation("scoring_kind", validateScoringKind)

	// json tag names for readable error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateCorrectionStatus(fl validator.FieldLevel) bool {
	return grading.IsSettableStatus(models.CorrectionStatus(fl.Field().String()))
}

func validateScoringKind(fl validator.FieldLevel) bool {
	validKinds := []models.ScoringKind{
		models.ScoringTwoPart,
		models.ScoringVariable,
	}

	value := fl.Field().String()
	for _, validKind := range validKinds {
		if string(validKind) == value {
			return true
		}
	}
	return false
}
