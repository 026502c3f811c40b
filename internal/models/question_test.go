package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCandidateViewOmitsAnswerFields(t *testing.T) {
	solution := "because 4"
	revision := &QuestionRevision{
		ID:           10,
		QuestionID:   3,
		QuestionText: "What is 2+2?",
		QuestionType: SingleChoice,
		Options: datatypes.NewJSONSlice([]Option{
			{ID: 0, Text: "3"},
			{ID: 1, Text: "4"},
		}),
		CorrectAnswer: datatypes.JSON(`[1]`),
		Solution:      &solution,
		IsMandatory:   true,
	}

	view := revision.CandidateView()

	data, err := json.Marshal(view)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))

	// The keys must be structurally absent, not just empty.
	assert.NotContains(t, payload, "correct_answer")
	assert.NotContains(t, payload, "solution")
	assert.Equal(t, "What is 2+2?", payload["question_text"])
}

func TestQuestionEffective(t *testing.T) {
	assert.True(t, (&Question{IsActive: true}).Effective())
	assert.False(t, (&Question{IsActive: false}).Effective())
	assert.False(t, (&Question{IsActive: true, IsDeleted: true}).Effective())
}
