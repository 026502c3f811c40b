package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/openassess/testing-service/internal/models"
)

func choiceRevision(questionType models.QuestionType, optionCount int, correctAnswer string) *models.QuestionRevision {
	options := make([]models.Option, 0, optionCount)
	for i := 0; i < optionCount; i++ {
		options = append(options, models.Option{ID: i, Text: "option"})
	}
	return &models.QuestionRevision{
		QuestionText:  "What is it?",
		QuestionType:  questionType,
		Options:       datatypes.NewJSONSlice(options),
		CorrectAnswer: datatypes.JSON(correctAnswer),
	}
}

func TestValidateRevision_Choice(t *testing.T) {
	qv := NewQuestionValidator()

	tests := []struct {
		name    string
		rev     *models.QuestionRevision
		wantErr bool
	}{
		{
			name: "valid single choice",
			rev:  choiceRevision(models.SingleChoice, 4, `[2]`),
		},
		{
			name: "valid multi choice",
			rev:  choiceRevision(models.MultiChoice, 4, `[0, 3]`),
		},
		{
			name: "legacy scalar answer accepted",
			rev:  choiceRevision(models.SingleChoice, 4, `2`),
		},
		{
			name:    "too few options",
			rev:     choiceRevision(models.SingleChoice, 1, `[0]`),
			wantErr: true,
		},
		{
			name:    "single choice with two answers",
			rev:     choiceRevision(models.SingleChoice, 4, `[0, 1]`),
			wantErr: true,
		},
		{
			name:    "answer id out of range",
			rev:     choiceRevision(models.MultiChoice, 3, `[0, 5]`),
			wantErr: true,
		},
		{
			name:    "duplicate answer id",
			rev:     choiceRevision(models.MultiChoice, 4, `[1, 1]`),
			wantErr: true,
		},
		{
			name:    "missing answer",
			rev:     choiceRevision(models.MultiChoice, 4, `[]`),
			wantErr: true,
		},
		{
			name:    "non-numeric answer",
			rev:     choiceRevision(models.SingleChoice, 4, `"a"`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := qv.ValidateRevision(tt.rev)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRevision_OptionIDMustMatchPosition(t *testing.T) {
	qv := NewQuestionValidator()

	rev := &models.QuestionRevision{
		QuestionText: "Pick one",
		QuestionType: models.SingleChoice,
		Options: datatypes.NewJSONSlice([]models.Option{
			{ID: 1, Text: "first"},
			{ID: 0, Text: "second"},
		}),
		CorrectAnswer: datatypes.JSON(`[0]`),
	}

	assert.Error(t, qv.ValidateRevision(rev))
}

func TestValidateRevision_Numerical(t *testing.T) {
	qv := NewQuestionValidator()

	tests := []struct {
		name    string
		answer  string
		wantErr bool
	}{
		{name: "bare integer", answer: `42`},
		{name: "single-element list", answer: `[42]`},
		{name: "string answer rejected", answer: `"42"`, wantErr: true},
		{name: "multi-element list rejected", answer: `[1, 2]`, wantErr: true},
		{name: "missing answer", answer: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rev := &models.QuestionRevision{
				QuestionText:  "How many?",
				QuestionType:  models.NumericalInteger,
				CorrectAnswer: datatypes.JSON(tt.answer),
			}
			err := qv.ValidateRevision(rev)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRevision_NumericalWithOptions(t *testing.T) {
	qv := NewQuestionValidator()

	rev := &models.QuestionRevision{
		QuestionText:  "How many?",
		QuestionType:  models.NumericalInteger,
		Options:       datatypes.NewJSONSlice([]models.Option{{ID: 0, Text: "x"}}),
		CorrectAnswer: datatypes.JSON(`42`),
	}

	assert.Error(t, qv.ValidateRevision(rev))
}

func TestValidateRevision_Subjective(t *testing.T) {
	qv := NewQuestionValidator()

	valid := &models.QuestionRevision{
		QuestionText:          "Explain briefly",
		QuestionType:          models.Subjective,
		SubjectiveAnswerLimit: intPtr(200),
	}
	assert.NoError(t, qv.ValidateRevision(valid))

	badLimit := &models.QuestionRevision{
		QuestionText:          "Explain briefly",
		QuestionType:          models.Subjective,
		SubjectiveAnswerLimit: intPtr(0),
	}
	assert.Error(t, qv.ValidateRevision(badLimit))
}

func TestValidateRevision_UnknownType(t *testing.T) {
	qv := NewQuestionValidator()

	rev := &models.QuestionRevision{
		QuestionText: "???",
		QuestionType: models.QuestionType("essay"),
	}

	assert.Error(t, qv.ValidateRevision(rev))
}

func intPtr(v int) *int {
	return &v
}
