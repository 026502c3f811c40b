package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/openassess/testing-service/internal/models"
)

// EventType represents different types of session events
type EventType string

const (
	// Session lifecycle events
	EventSessionStarted   EventType = "session.started"
	EventSessionSubmitted EventType = "session.submitted"
	EventResultComputed   EventType = "result.computed"

	// Test definition events
	EventTestCreated     EventType = "test.created"
	EventTestDeactivated EventType = "test.deactivated"

	// Import events
	EventImportCompleted EventType = "import.completed"
)

// SessionEvent is the envelope for all events published to the bus
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewSessionEvent builds an envelope with a fresh id and current timestamp
func NewSessionEvent(eventType EventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "testing-service",
		Version:   "1.0",
		Data:      data,
	}
}

// Session lifecycle event payloads

type SessionStartedEvent struct {
	CandidateTestID uint      `json:"candidate_test_id"`
	TestID          uint      `json:"test_id"`
	TestName        string    `json:"test_name"`
	CandidateID     uint      `json:"candidate_id"`
	StartedAt       time.Time `json:"started_at"`
	QuestionCount   int       `json:"question_count"`
	TimeLimit       *int      `json:"time_limit,omitempty"` // minutes
}

type SessionSubmittedEvent struct {
	CandidateTestID uint      `json:"candidate_test_id"`
	TestID          uint      `json:"test_id"`
	TestName        string    `json:"test_name"`
	CandidateID     uint      `json:"candidate_id"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

type ResultComputedEvent struct {
	CandidateTestID       uint `json:"candidate_test_id"`
	TestID                uint `json:"test_id"`
	CorrectAnswer         int  `json:"correct_answer"`
	IncorrectAnswer       int  `json:"incorrect_answer"`
	MandatoryNotAttempted int  `json:"mandatory_not_attempted"`
	OptionalNotAttempted  int  `json:"optional_not_attempted"`
}

// Test definition event payloads

type TestCreatedEvent struct {
	TestID    uint   `json:"test_id"`
	TestName  string `json:"test_name"`
	CreatedBy string `json:"created_by"`
	Link      string `json:"link,omitempty"`
}

type TestDeactivatedEvent struct {
	TestID   uint   `json:"test_id"`
	TestName string `json:"test_name"`
}

// Import event payloads

type ImportCompletedEvent struct {
	OrganizationID uint                  `json:"organization_id"`
	Summary        *models.ImportSummary `json:"summary"`
	ImportedBy     string                `json:"imported_by"`
}
