package validator

import (
	"github.com/openassess/testing-service/internal/models"
)

// TestValidator enforces the cross-field rules on a test definition:
// timing window consistency and random-sampling configuration.
type TestValidator struct{}

func NewTestValidator() *TestValidator {
	return &TestValidator{}
}

// ValidateDefinition checks a test definition before create or update.
// associatedCount is the number of question revisions currently attached;
// pass -1 to skip pool-size checks (create time, before associations exist).
func (tv *TestValidator) ValidateDefinition(test *models.Test, associatedCount int) error {
	var errs ValidationErrors

	if test.StartTime != nil && test.EndTime != nil && test.EndTime.Before(*test.StartTime) {
		errs = append(errs, *NewValidationErrorWithRule(
			"end_time", "must not precede start_time", "time_window", test.EndTime))
	}

	if test.TimeLimit != nil && test.StartTime != nil && test.EndTime != nil {
		window := int(test.EndTime.Sub(*test.StartTime).Seconds())
		if *test.TimeLimit*60 > window {
			errs = append(errs, *NewValidationErrorWithRule(
				"time_limit", "must fit within the start/end window", "time_limit_fits", *test.TimeLimit))
		}
	}

	errs = append(errs, tv.validateRandomConfig(test, associatedCount)...)

	if test.IsTemplate && test.Link != "" {
		errs = append(errs, *NewValidationError("link", "templates must not carry a public link", test.Link))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (tv *TestValidator) validateRandomConfig(test *models.Test, associatedCount int) ValidationErrors {
	var errs ValidationErrors

	if !test.RandomQuestions {
		if test.NoOfRandomQuestions != nil {
			errs = append(errs, *NewValidationError(
				"no_of_random_questions", "requires random_questions to be enabled", *test.NoOfRandomQuestions))
		}
		return errs
	}

	if test.NoOfRandomQuestions == nil || *test.NoOfRandomQuestions < 1 {
		errs = append(errs, *NewValidationErrorWithRule(
			"no_of_random_questions",
			"must be set and not exceed the associated question count",
			"random_count", test.NoOfRandomQuestions))
		return errs
	}

	if associatedCount >= 0 && *test.NoOfRandomQuestions > associatedCount {
		errs = append(errs, *NewValidationErrorWithRule(
			"no_of_random_questions",
			"must be set and not exceed the associated question count",
			"random_count", *test.NoOfRandomQuestions))
	}

	for i, trc := range test.RandomTagCount {
		if trc.Count < 1 {
			errs = append(errs, *NewValidationError(
				"random_tag_count", "per-tag count must be at least 1", test.RandomTagCount[i].Count))
		}
	}

	return errs
}
