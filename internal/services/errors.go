package services

import (
	"errors"
	"fmt"

	apperrors "github.com/teachkit/correction-service/internal/errors"
	"github.com/teachkit/correction-service/internal/grading"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Correction specific errors
	ErrCorrectionNotFound = errors.New("correction not found")
	ErrCorrectionExists   = errors.New("correction already exists for this student and activity")
	ErrInvalidInput       = errors.New("no usable field found in the request")
	ErrBonusNotSupported  = errors.New("bonus applies to variable-part activities only")

	// Status errors, shared with the grading package so errors.Is works
	// across layers
	ErrInvalidStatus      = grading.ErrInvalidStatus
	ErrStatusNotSupported = grading.ErrStatusNotSupported

	// Activity specific errors
	ErrActivityNotFound       = errors.New("activity not found")
	ErrActivityHasCorrections = errors.New("activity cannot be deleted - has existing corrections")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCorrectionNotFound) ||
		errors.Is(err, ErrActivityNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidInput) {
		return true
	}
	var single *apperrors.ValidationError
	if errors.As(err, &single) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsInvalidStatus checks if error represents a rejected status request
func IsInvalidStatus(err error) bool {
	return errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrStatusNotSupported)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrCorrectionExists) ||
		errors.Is(err, ErrActivityHasCorrections)
}
