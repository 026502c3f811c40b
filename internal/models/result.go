package models

// TestResult is the scored outcome of one candidate test session. It is
// derived on demand from the session's answers and the test's question
// revisions, never persisted.
type TestResult struct {
	CorrectAnswer         int `json:"correct_answer"`
	IncorrectAnswer       int `json:"incorrect_answer"`
	MandatoryNotAttempted int `json:"mandatory_not_attempted"`
	OptionalNotAttempted  int `json:"optional_not_attempted"`
}
