package services

import (
	"errors"
	"fmt"

	apperrors "github.com/openassess/testing-service/internal/errors"
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

	// Test specific errors
	ErrTestNotFound       = errors.New("test not found or not active")
	ErrTestNotStarted     = errors.New("test has not started yet")
	ErrTestEnded          = errors.New("test has ended")
	ErrTestNotDeletable   = errors.New("test cannot be deleted - has existing sessions")
	ErrTestLinkNotFound   = errors.New("test link not found")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrNoQuestionsInTest  = errors.New("test has no associated questions")
	ErrRandomPoolTooSmall = errors.New("random question count exceeds the associated pool")

	// Question specific errors
	ErrQuestionNotFound       = errors.New("question not found")
	ErrRevisionNotFound       = errors.New("question revision not found")
	ErrQuestionInvalidType    = errors.New("invalid question type")
	ErrQuestionInvalidContent = errors.New("invalid question content for type")
	ErrQuestionNotDeletable   = errors.New("question cannot be deleted - in use by tests")

	// Session specific errors
	ErrCandidateTestNotFound = errors.New("candidate test not found or invalid UUID")
	ErrTestAlreadySubmitted  = errors.New("test already submitted")
	ErrAttemptLimitExceeded  = errors.New("maximum attempts exceeded")
	ErrResultNotVisible      = errors.New("results are not visible for this test")

	// Organization / user errors
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrTagNotFound          = errors.New("tag not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidRole          = errors.New("invalid user role")
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
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrTestLinkNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrRevisionNotFound) ||
		errors.Is(err, ErrCandidateTestNotFound) ||
		errors.Is(err, ErrOrganizationNotFound) ||
		errors.Is(err, ErrTagNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrTestNotDeletable) ||
		errors.Is(err, ErrQuestionNotDeletable) ||
		errors.Is(err, ErrAttemptLimitExceeded)
}

// IsForbidden checks if error represents a forbidden condition
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrResultNotVisible)
}

// IsBadRequest checks if error maps to a client error on the candidate surface
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrTestAlreadySubmitted) ||
		errors.Is(err, ErrTestNotStarted) ||
		errors.Is(err, ErrTestEnded)
}
