package models

import (
	"time"

	"gorm.io/datatypes"
)

type MarksLevel string

const (
	MarksLevelQuestion MarksLevel = "question"
	MarksLevelTest     MarksLevel = "test"
)

// TagRandomCount is one tag-based sampling rule: draw Count distinct
// questions from the pool of revisions tagged with TagID.
type TagRandomCount struct {
	TagID uint `json:"tag_id"`
	Count int  `json:"count"`
}

// Test is a named assessment definition. Timing, shuffling and random
// sampling rules here drive session creation; the definition itself is
// mutable, unlike question revisions.
type Test struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:255;index" validate:"required,max=255"`
	Description *string `json:"description" gorm:"type:text"`

	// Timing. All three are optional; invariants between them are enforced
	// by the test validator, not the schema.
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	TimeLimit *int       `json:"time_limit" validate:"omitempty,min=1"` // minutes

	MarksLevel        *MarksLevel `json:"marks_level" gorm:"size:20" validate:"omitempty,oneof=question test"`
	Marks             *int        `json:"marks"`
	CompletionMessage *string     `json:"completion_message" gorm:"type:text"`
	StartInstructions *string     `json:"start_instructions" gorm:"type:text"`

	// Link is the UUID token embedded in the QR code / public URL.
	Link string `json:"link" gorm:"size:64;uniqueIndex"`

	NoOfAttempts        int  `json:"no_of_attempts" gorm:"default:1" validate:"omitempty,min=1"`
	Shuffle             bool `json:"shuffle" gorm:"default:false"`
	RandomQuestions     bool `json:"random_questions" gorm:"default:false"`
	NoOfRandomQuestions *int `json:"no_of_random_questions"`
	QuestionPagination  int  `json:"question_pagination" gorm:"default:1" validate:"min=0"`

	IsTemplate bool  `json:"is_template" gorm:"default:false"`
	TemplateID *uint `json:"template_id"`

	ShowResult       bool                               `json:"show_result" gorm:"default:true"`
	MarkingScheme    *datatypes.JSONType[MarkingScheme] `json:"marking_scheme" gorm:"type:jsonb"`
	CandidateProfile bool                               `json:"candidate_profile" gorm:"default:false"`

	// RandomTagCount holds the per-tag sampling rules used when
	// random_questions is enabled with a tag-driven pool.
	RandomTagCount datatypes.JSONSlice[TagRandomCount] `json:"random_tag_count" gorm:"type:jsonb"`

	CreatedByID string    `json:"created_by_id" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_date"`
	UpdatedAt   time.Time `json:"modified_date"`
	IsActive    bool      `json:"is_active" gorm:"default:true;index"`
	IsDeleted   bool      `json:"is_deleted" gorm:"default:false;index"`

	// Relations
	Questions []TestQuestion `json:"questions,omitempty" gorm:"foreignKey:TestID"`
	Tags      []Tag          `json:"tags,omitempty" gorm:"many2many:test_tag"`
	Template  *Test          `json:"-" gorm:"foreignKey:TemplateID"`
}

func (t *Test) Effective() bool {
	return t.IsActive && !t.IsDeleted
}

func (Test) TableName() string {
	return "tests"
}

// TestQuestion associates a question revision with a test. Association order
// (ascending id) is the base ordering candidates see when shuffling is off.
type TestQuestion struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	TestID             uint      `json:"test_id" gorm:"not null;uniqueIndex:idx_test_question"`
	QuestionRevisionID uint      `json:"question_revision_id" gorm:"not null;uniqueIndex:idx_test_question"`
	CreatedAt          time.Time `json:"created_date"`

	QuestionRevision QuestionRevision `json:"question_revision,omitempty" gorm:"foreignKey:QuestionRevisionID"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}
