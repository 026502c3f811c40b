package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("time_limit", "must be at least 1", 0)

	if err.Field != "time_limit" {
		t.Errorf("Expected field to be 'time_limit', got '%s'", err.Field)
	}

	if err.Message != "must be at least 1" {
		t.Errorf("Expected message to be 'must be at least 1', got '%s'", err.Message)
	}

	if err.Value != 0 {
		t.Errorf("Expected value to be 0, got '%v'", err.Value)
	}

	expected := "validation error on field 'time_limit': must be at least 1"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, *NewValidationError("name", "is required", nil))
	expected := "validation failed: name is required"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, *NewValidationError("end_time", "must not precede start_time", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("question_type", "must be a valid question type", "question_type", "essay")

	if err.Rule != "question_type" {
		t.Errorf("Expected rule to be 'question_type', got '%s'", err.Rule)
	}

	if err.Field != "question_type" {
		t.Errorf("Expected field to be 'question_type', got '%s'", err.Field)
	}
}
