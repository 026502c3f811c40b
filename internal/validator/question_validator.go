package validator

import (
	"encoding/json"
	"fmt"

	"github.com/openassess/testing-service/internal/models"
)

// QuestionValidator checks revision content rules that struct tags cannot
// express: option counts, correct-answer shape, answer ids in range.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateRevision validates a revision's content against its question type.
func (qv *QuestionValidator) ValidateRevision(rev *models.QuestionRevision) error {
	var errs ValidationErrors

	switch rev.QuestionType {
	case models.SingleChoice, models.MultiChoice:
		errs = append(errs, qv.validateChoice(rev)...)
	case models.NumericalInteger:
		errs = append(errs, qv.validateNumerical(rev)...)
	case models.Subjective:
		errs = append(errs, qv.validateSubjective(rev)...)
	default:
		errs = append(errs, *NewValidationErrorWithRule(
			"question_type",
			"must be a valid question type (single-choice, multi-choice, subjective, numerical-integer)",
			"question_type", string(rev.QuestionType)))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (qv *QuestionValidator) validateChoice(rev *models.QuestionRevision) ValidationErrors {
	var errs ValidationErrors

	if len(rev.Options) < 2 {
		errs = append(errs, *NewValidationError("options", "must contain at least 2 options", len(rev.Options)))
	}
	for i, opt := range rev.Options {
		if opt.ID != i {
			errs = append(errs, *NewValidationError("options",
				fmt.Sprintf("option at position %d has id %d, ids must match position", i, opt.ID), opt.ID))
		}
		if opt.Text == "" && opt.Image == nil {
			errs = append(errs, *NewValidationError("options",
				fmt.Sprintf("option %d must have text or an image", i), nil))
		}
	}

	ids, err := decodeAnswerIDs(json.RawMessage(rev.CorrectAnswer))
	if err != nil {
		errs = append(errs, *NewValidationError("correct_answer", "must be a list of option ids", string(rev.CorrectAnswer)))
		return errs
	}
	if len(ids) == 0 {
		errs = append(errs, *NewValidationError("correct_answer", "is required", nil))
		return errs
	}
	if rev.QuestionType == models.SingleChoice && len(ids) != 1 {
		errs = append(errs, *NewValidationError("correct_answer", "must contain exactly one option id for single-choice", len(ids)))
	}

	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(rev.Options) {
			errs = append(errs, *NewValidationError("correct_answer",
				fmt.Sprintf("option id %d is out of range", id), id))
		}
		if seen[id] {
			errs = append(errs, *NewValidationError("correct_answer",
				fmt.Sprintf("option id %d appears more than once", id), id))
		}
		seen[id] = true
	}

	return errs
}

func (qv *QuestionValidator) validateNumerical(rev *models.QuestionRevision) ValidationErrors {
	var errs ValidationErrors

	if len(rev.Options) > 0 {
		errs = append(errs, *NewValidationError("options", "must be empty for numerical-integer questions", len(rev.Options)))
	}

	if len(rev.CorrectAnswer) == 0 {
		errs = append(errs, *NewValidationError("correct_answer", "is required", nil))
		return errs
	}

	// Accept a bare integer or a single-element list of integers.
	var scalar int64
	if err := json.Unmarshal(rev.CorrectAnswer, &scalar); err == nil {
		return errs
	}
	var list []int64
	if err := json.Unmarshal(rev.CorrectAnswer, &list); err == nil && len(list) == 1 {
		return errs
	}
	errs = append(errs, *NewValidationError("correct_answer", "must be an integer", string(rev.CorrectAnswer)))

	return errs
}

func (qv *QuestionValidator) validateSubjective(rev *models.QuestionRevision) ValidationErrors {
	var errs ValidationErrors

	if len(rev.Options) > 0 {
		errs = append(errs, *NewValidationError("options", "must be empty for subjective questions", len(rev.Options)))
	}
	if rev.SubjectiveAnswerLimit != nil && *rev.SubjectiveAnswerLimit < 1 {
		errs = append(errs, *NewValidationError("subjective_answer_limit", "must be at least 1", *rev.SubjectiveAnswerLimit))
	}

	return errs
}

// decodeAnswerIDs reads a correct_answer payload into option ids, accepting
// both the canonical list form and the legacy scalar form.
func decodeAnswerIDs(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []int
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids, nil
	}
	var scalar int
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return []int{scalar}, nil
	}
	return nil, fmt.Errorf("correct_answer: expected option id list")
}
