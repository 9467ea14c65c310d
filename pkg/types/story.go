package types

import (
	"time"

	"github.com/google/uuid"
)

// Status is the workflow bucket a story sits in. Statuses double as board
// columns (except Backlog, which only appears in the backlog view). Any
// status is reachable from any other; there is no transition graph.
type Status string

const (
	StatusBacklog    Status = "BACKLOG"
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusBlocked    Status = "BLOCKED"
	StatusTesting    Status = "TESTING"
	StatusDone       Status = "DONE"
)

// validStatuses is the set of recognized status values.
var validStatuses = map[Status]bool{
	StatusBacklog:    true,
	StatusTodo:       true,
	StatusInProgress: true,
	StatusBlocked:    true,
	StatusTesting:    true,
	StatusDone:       true,
}

// ValidStatus reports whether s is a recognized status value.
func ValidStatus(s Status) bool { return validStatuses[s] }

// Priority is the urgency of a story.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// validPriorities is the set of recognized priority values.
var validPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
}

// ValidPriority reports whether p is a recognized priority value.
func ValidPriority(p Priority) bool { return validPriorities[p] }

// StoryType distinguishes feature work from defects. The type only affects
// creation defaults and display treatment, never workflow rules.
type StoryType string

const (
	TypeStory StoryType = "STORY"
	TypeBug   StoryType = "BUG"
)

// validTypes is the set of recognized story type values.
var validTypes = map[StoryType]bool{
	TypeStory: true,
	TypeBug:   true,
}

// ValidType reports whether t is a recognized story type value.
func ValidType(t StoryType) bool { return validTypes[t] }

// View identifies which surface a story was created from. The origin view
// decides the default status of a new story.
type View string

const (
	ViewBoard   View = "BOARD"
	ViewBacklog View = "BACKLOG"
)

// Creation defaults.
const (
	// DefaultPoints is the effort score assigned at creation.
	DefaultPoints = 5
	// AbsentPoints is the score used during aggregation when a story
	// carries no points value.
	AbsentPoints = 10

	defaultStoryTitle = "NEW PROJECT QUEST"
	defaultBugTitle   = "NEW BUG DETECTED"
)

// AcceptanceCriterion is a checklist item attached to a story. Completion
// is toggled independently per criterion.
type AcceptanceCriterion struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Comment is a free-text remark on a story tied to a user. Comments are
// stored and carried through persistence but carry no workflow semantics.
type Comment struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	TaggedUserID string    `json:"taggedUserId,omitempty"`
}

// Story is a unit of work (feature request or bug) tracked on the board.
//
// Points uses 0 to encode "absent"; a story without points counts as
// AbsentPoints during score aggregation. AssigneeID is a lookup key, not
// an ownership relation; empty means unassigned. Epic is a free-text
// grouping label compared case-sensitively; empty means ungrouped.
type Story struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Status             Status                `json:"status"`
	Priority           Priority              `json:"priority"`
	Type               StoryType             `json:"type"`
	Points             int                   `json:"points,omitempty"`
	AssigneeID         string                `json:"assigneeId,omitempty"`
	Epic               string                `json:"epic,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	AcceptanceCriteria []AcceptanceCriterion `json:"acceptanceCriteria"`
	Comments           []Comment             `json:"comments"`
}

// NewStory returns a fresh story created from the given view with a new
// unique ID, CreatedAt set to the current time, empty comments and
// criteria, and type-dependent defaults: bugs start HIGH priority, stories
// MEDIUM; stories created from the board start in TODO, from the backlog
// in BACKLOG. An empty title gets the type's placeholder title.
func NewStory(title string, typ StoryType, from View) Story {
	if !validTypes[typ] {
		typ = TypeStory
	}

	status := StatusBacklog
	if from == ViewBoard {
		status = StatusTodo
	}

	priority := PriorityMedium
	if typ == TypeBug {
		priority = PriorityHigh
	}

	if title == "" {
		if typ == TypeBug {
			title = defaultBugTitle
		} else {
			title = defaultStoryTitle
		}
	}

	return Story{
		ID:                 NewID(),
		Title:              title,
		Status:             status,
		Priority:           priority,
		Type:               typ,
		Points:             DefaultPoints,
		CreatedAt:          time.Now(),
		AcceptanceCriteria: []AcceptanceCriterion{},
		Comments:           []Comment{},
	}
}

// NewID generates a new UUID v7 for entity IDs, falling back to UUID v4
// if v7 generation fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// SetStatus sets the story status to the given value. Returns
// ErrInvalidStatus if the status is not recognized. Any-to-any
// transitions are legal; setting the current status succeeds.
func (s *Story) SetStatus(status Status) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}
	s.Status = status
	return nil
}

// ScorePoints returns the points value used for score aggregation:
// the story's points, or AbsentPoints when no points are set.
func (s *Story) ScorePoints() int {
	if s.Points <= 0 {
		return AbsentPoints
	}
	return s.Points
}

// Progress returns the acceptance-criterion completion ratio in [0, 1].
// A story with no criteria has progress 0.
func (s *Story) Progress() float64 {
	if len(s.AcceptanceCriteria) == 0 {
		return 0
	}
	completed := 0
	for _, ac := range s.AcceptanceCriteria {
		if ac.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(s.AcceptanceCriteria))
}

// AddComment appends a comment by the given user, assigning it a fresh
// ID and the current time. taggedUserID may be empty.
func (s *Story) AddComment(userID, text, taggedUserID string) Comment {
	c := Comment{
		ID:           NewID(),
		UserID:       userID,
		Text:         text,
		CreatedAt:    time.Now(),
		TaggedUserID: taggedUserID,
	}
	s.Comments = append(s.Comments, c)
	return c
}

// Clone returns a deep copy of the story. Slices are copied so mutating
// the clone's criteria or comments never aliases the original.
func (s Story) Clone() Story {
	cp := s
	if s.AcceptanceCriteria != nil {
		cp.AcceptanceCriteria = make([]AcceptanceCriterion, len(s.AcceptanceCriteria))
		copy(cp.AcceptanceCriteria, s.AcceptanceCriteria)
	}
	if s.Comments != nil {
		cp.Comments = make([]Comment, len(s.Comments))
		copy(cp.Comments, s.Comments)
	}
	return cp
}
