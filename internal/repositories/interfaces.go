package repositories

import (
	"time"

	"github.com/openassess/testing-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	IsActive   *bool      `json:"is_active"`
	IsTemplate *bool      `json:"is_template"`
	CreatedBy  *string    `json:"created_by"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
	SortBy     string     `json:"sort_by"`    // "created_at", "name", "start_time"
	SortOrder  string     `json:"sort_order"` // "asc", "desc"
}

type QuestionFilters struct {
	Type            *models.QuestionType `json:"type"`
	OrganizationID  *uint                `json:"organization_id"`
	TagIDs          []uint               `json:"tag_ids"`
	CreatedBy       *string              `json:"created_by"`
	IncludeInactive bool                 `json:"include_inactive"`
	Limit           int                  `json:"limit"`
	Offset          int                  `json:"offset"`
	SortBy          string               `json:"sort_by"`
	SortOrder       string               `json:"sort_order"`
}

type SessionFilters struct {
	TestID        *uint      `json:"test_id"`
	CandidateID   *uint      `json:"candidate_id"`
	SubmittedOnly bool       `json:"submitted_only"`
	DateFrom      *time.Time `json:"date_from"`
	DateTo        *time.Time `json:"date_to"`
	Limit         int        `json:"limit"`
	Offset        int        `json:"offset"`
}
