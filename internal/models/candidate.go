package models

import (
	"time"

	"gorm.io/datatypes"
)

// Candidate is a test-taker. Registered candidates carry a UserID; anonymous
// (QR-code) candidates are identified solely by the generated Identity UUID.
type Candidate struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	UserID   *string `json:"user_id" gorm:"size:255;index"`
	Identity string  `json:"identity" gorm:"size:36;uniqueIndex;not null"`

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"modified_date"`
	IsActive  *bool     `json:"is_active"`
	IsDeleted bool      `json:"is_deleted" gorm:"default:false;index"`
}

func (c *Candidate) Effective() bool {
	return !c.IsDeleted
}

func (Candidate) TableName() string {
	return "candidates"
}

// CandidateTest is one attempt: it binds a candidate to a test and snapshots
// the ordered question-revision id list at creation time. The snapshot is
// immutable for the life of the session, so repeated fetches always see the
// same ordering even for shuffled or randomly sampled tests.
type CandidateTest struct {
	ID          uint `json:"id" gorm:"primaryKey"`
	CandidateID uint `json:"candidate_id" gorm:"not null;uniqueIndex:idx_candidate_test"`
	TestID      uint `json:"test_id" gorm:"not null;uniqueIndex:idx_candidate_test"`

	Device  *string `json:"device" gorm:"size:255"`
	Consent bool    `json:"consent" gorm:"default:false"`

	StartTime   time.Time  `json:"start_time" gorm:"not null"`
	EndTime     *time.Time `json:"end_time"`
	IsSubmitted bool       `json:"is_submitted" gorm:"default:false"`

	QuestionRevisionIDs datatypes.JSONSlice[uint] `json:"question_revision_ids" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"modified_date"`

	Candidate Candidate `json:"-" gorm:"foreignKey:CandidateID"`
	Test      Test      `json:"-" gorm:"foreignKey:TestID"`
}

func (CandidateTest) TableName() string {
	return "candidate_tests"
}

// CandidateTestAnswer holds one candidate's response to one question revision
// within a session. The (candidate_test_id, question_revision_id) pair is
// unique; resubmission updates the row in place. The unique constraint is the
// only guard against concurrent duplicate inserts (no row locking).
type CandidateTestAnswer struct {
	ID                 uint `json:"id" gorm:"primaryKey"`
	CandidateTestID    uint `json:"candidate_test_id" gorm:"not null;uniqueIndex:idx_session_answer"`
	QuestionRevisionID uint `json:"question_revision_id" gorm:"not null;uniqueIndex:idx_session_answer"`

	// Response is free-form JSON: a string, a number, or a list of option
	// ids depending on the question type. It is normalized to a list of
	// option ids when scored, never here.
	Response  datatypes.JSON `json:"response" gorm:"type:jsonb"`
	Visited   bool           `json:"visited" gorm:"default:false"`
	TimeSpent int            `json:"time_spent" gorm:"default:0"` // seconds

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"modified_date"`

	CandidateTest CandidateTest `json:"-" gorm:"foreignKey:CandidateTestID"`
}

func (CandidateTestAnswer) TableName() string {
	return "candidate_test_answers"
}
