package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	SingleChoice     QuestionType = "single-choice"
	MultiChoice      QuestionType = "multi-choice"
	Subjective       QuestionType = "subjective"
	NumericalInteger QuestionType = "numerical-integer"
)

// MarkingScheme holds per-question point values for correct, wrong and
// skipped outcomes.
type MarkingScheme struct {
	Correct float64 `json:"correct"`
	Wrong   float64 `json:"wrong"`
	Skipped float64 `json:"skipped"`
}

type Image struct {
	URL     string  `json:"url"`
	AltText *string `json:"alt_text,omitempty"`
}

// Option is one answer choice. The option id is its zero-based position in
// the revision's option list and is stable for the lifetime of the revision.
type Option struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Image *Image `json:"image,omitempty"`
}

// Question tracks metadata and points at its latest revision. All content
// lives in QuestionRevision rows.
type Question struct {
	ID             uint  `json:"id" gorm:"primaryKey"`
	OrganizationID uint  `json:"organization_id" gorm:"not null;index"`
	LastRevisionID *uint `json:"last_revision_id"`

	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"modified_date"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	IsDeleted bool      `json:"is_deleted" gorm:"default:false;index"`

	// Relations
	Revisions    []QuestionRevision `json:"revisions,omitempty" gorm:"foreignKey:QuestionID"`
	Organization Organization       `json:"-" gorm:"foreignKey:OrganizationID"`
	Tags         []Tag              `json:"tags,omitempty" gorm:"many2many:question_tag"`
}

// Effective reports whether the question is visible to read paths:
// active and not soft-deleted. Read paths must filter on this rather than
// checking the two flags independently.
func (q *Question) Effective() bool {
	return q.IsActive && !q.IsDeleted
}

func (Question) TableName() string {
	return "questions"
}

// QuestionRevision is an immutable versioned snapshot of a question's
// content and correct answer. Rows are only ever inserted; superseding a
// revision repoints Question.LastRevisionID.
type QuestionRevision struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	QuestionText string  `json:"question_text" gorm:"not null;type:text" validate:"required"`
	Instructions *string `json:"instructions" gorm:"type:text"`
	QuestionType QuestionType `json:"question_type" gorm:"not null;size:30" validate:"required,question_type"`

	Options datatypes.JSONSlice[Option] `json:"options" gorm:"type:jsonb"`

	// CorrectAnswer is a list of option ids for choice questions; scalar
	// numeric/string forms from older clients are normalized on read.
	CorrectAnswer datatypes.JSON `json:"correct_answer" gorm:"type:jsonb"`

	SubjectiveAnswerLimit *int                                 `json:"subjective_answer_limit"`
	IsMandatory           bool                                 `json:"is_mandatory" gorm:"default:true"`
	MarkingScheme         *datatypes.JSONType[MarkingScheme]   `json:"marking_scheme" gorm:"type:jsonb"`
	Solution              *string                              `json:"solution" gorm:"type:text"`
	Media                 *datatypes.JSONType[Image]           `json:"media" gorm:"type:jsonb"`

	CreatedByID string    `json:"created_by_id" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_date"`
	UpdatedAt   time.Time `json:"modified_date"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	IsDeleted   bool      `json:"is_deleted" gorm:"default:false"`

	Question Question `json:"-" gorm:"foreignKey:QuestionID"`
}

func (r *QuestionRevision) Effective() bool {
	return r.IsActive && !r.IsDeleted
}

func (QuestionRevision) TableName() string {
	return "question_revisions"
}

// CandidateQuestion is the answer-safe projection of a revision returned to
// candidates. It structurally omits CorrectAnswer and Solution; keeping those
// fields out of the type (rather than blanking them at runtime) is the
// answer-safety contract for the candidate surface.
type CandidateQuestion struct {
	ID                    uint                        `json:"id"`
	QuestionID            uint                        `json:"question_id"`
	QuestionText          string                      `json:"question_text"`
	Instructions          *string                     `json:"instructions,omitempty"`
	QuestionType          QuestionType                `json:"question_type"`
	Options               datatypes.JSONSlice[Option] `json:"options"`
	SubjectiveAnswerLimit *int                        `json:"subjective_answer_limit,omitempty"`
	IsMandatory           bool                        `json:"is_mandatory"`
	Media                 *datatypes.JSONType[Image]  `json:"media,omitempty"`
}

// CandidateView strips a revision down to what a test-taker may see.
func (r *QuestionRevision) CandidateView() CandidateQuestion {
	return CandidateQuestion{
		ID:                    r.ID,
		QuestionID:            r.QuestionID,
		QuestionText:          r.QuestionText,
		Instructions:          r.Instructions,
		QuestionType:          r.QuestionType,
		Options:               r.Options,
		SubjectiveAnswerLimit: r.SubjectiveAnswerLimit,
		IsMandatory:           r.IsMandatory,
		Media:                 r.Media,
	}
}
