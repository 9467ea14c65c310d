package types

import "errors"

// Draft validation errors.
var (
	ErrDraftTitleEmpty   = errors.New("draft title must not be empty")
	ErrInvalidStatus     = errors.New("invalid status value")
	ErrInvalidPriority   = errors.New("invalid priority value")
	ErrInvalidType       = errors.New("invalid story type value")
	ErrInvalidPoints     = errors.New("points must be positive")
	ErrCriterionNoText   = errors.New("acceptance criterion text must not be empty")
)

// Draft is a story extracted from freeform text before it is admitted to
// the collection. Drafts carry no ID, timestamp, or comments; those are
// assigned when the batch is imported.
type Draft struct {
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Status             Status                `json:"status"`
	Priority           Priority              `json:"priority"`
	Type               StoryType             `json:"type"`
	Points             int                   `json:"points,omitempty"`
	Epic               string                `json:"epic,omitempty"`
	AcceptanceCriteria []AcceptanceCriterion `json:"acceptanceCriteria,omitempty"`
}

// Validate checks the draft against the extraction schema: required title,
// recognized enum values, and positive points when present. Criterion IDs
// may be empty; they are filled in at import time.
func (d Draft) Validate() error {
	if d.Title == "" {
		return ErrDraftTitleEmpty
	}
	if !validStatuses[d.Status] {
		return ErrInvalidStatus
	}
	if !validPriorities[d.Priority] {
		return ErrInvalidPriority
	}
	if !validTypes[d.Type] {
		return ErrInvalidType
	}
	if d.Points < 0 {
		return ErrInvalidPoints
	}
	for _, ac := range d.AcceptanceCriteria {
		if ac.Text == "" {
			return ErrCriterionNoText
		}
	}
	return nil
}

// ToStory materializes the draft as a full story: fresh unique ID,
// CreatedAt set to now, empty comments, and fresh IDs for every
// acceptance criterion that lacks one.
func (d Draft) ToStory() Story {
	criteria := make([]AcceptanceCriterion, len(d.AcceptanceCriteria))
	for i, ac := range d.AcceptanceCriteria {
		if ac.ID == "" {
			ac.ID = NewID()
		}
		criteria[i] = ac
	}

	s := NewStory(d.Title, d.Type, ViewBacklog)
	s.Description = d.Description
	s.Status = d.Status
	s.Priority = d.Priority
	s.Points = d.Points
	s.Epic = d.Epic
	s.AcceptanceCriteria = criteria
	return s
}
