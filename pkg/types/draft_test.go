package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		Title:       "As a user I can log in",
		Description: "Login with email and password",
		Status:      StatusBacklog,
		Priority:    PriorityMedium,
		Type:        TypeStory,
	}
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		wantErr error
	}{
		{name: "valid draft", mutate: func(d *Draft) {}},
		{
			name:   "valid with points and criteria",
			mutate: func(d *Draft) { d.Points = 8; d.AcceptanceCriteria = []AcceptanceCriterion{{Text: "works"}} },
		},
		{
			name:    "empty title",
			mutate:  func(d *Draft) { d.Title = "" },
			wantErr: ErrDraftTitleEmpty,
		},
		{
			name:    "bad status",
			mutate:  func(d *Draft) { d.Status = Status("SOMEDAY") },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "bad priority",
			mutate:  func(d *Draft) { d.Priority = Priority("URGENT") },
			wantErr: ErrInvalidPriority,
		},
		{
			name:    "bad type",
			mutate:  func(d *Draft) { d.Type = StoryType("TASK") },
			wantErr: ErrInvalidType,
		},
		{
			name:    "negative points",
			mutate:  func(d *Draft) { d.Points = -1 },
			wantErr: ErrInvalidPoints,
		},
		{
			name:    "criterion without text",
			mutate:  func(d *Draft) { d.AcceptanceCriteria = []AcceptanceCriterion{{Text: ""}} },
			wantErr: ErrCriterionNoText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := d.Validate()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDraftToStory(t *testing.T) {
	d := validDraft()
	d.Status = StatusTodo
	d.Priority = PriorityHigh
	d.Points = 3
	d.Epic = "Onboarding"
	d.AcceptanceCriteria = []AcceptanceCriterion{
		{Text: "one", Completed: true},
		{ID: "keep-me", Text: "two"},
	}

	s := d.ToStory()

	assert.NotEmpty(t, s.ID)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, d.Title, s.Title)
	assert.Equal(t, d.Description, s.Description)
	assert.Equal(t, StatusTodo, s.Status)
	assert.Equal(t, PriorityHigh, s.Priority)
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, "Onboarding", s.Epic)
	assert.Empty(t, s.Comments)
	assert.NotNil(t, s.Comments)

	require.Len(t, s.AcceptanceCriteria, 2)
	assert.NotEmpty(t, s.AcceptanceCriteria[0].ID, "missing criterion ID should be filled in")
	assert.True(t, s.AcceptanceCriteria[0].Completed)
	assert.Equal(t, "keep-me", s.AcceptanceCriteria[1].ID, "existing criterion ID should be kept")
}

func TestDraftToStoryAbsentPointsStayAbsent(t *testing.T) {
	d := validDraft()
	s := d.ToStory()

	assert.Equal(t, 0, s.Points, "a draft without points must not gain the creation default")
	assert.Equal(t, AbsentPoints, s.ScorePoints())
}
