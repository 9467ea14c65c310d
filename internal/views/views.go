// Package views derives the board and backlog presentations from a story
// collection. Every function here is a pure projection: filtering,
// grouping, sorting, numbering, and aggregation never mutate the
// collection, and the collection is re-projected on every render.
package views

import (
	"sort"

	"github.com/mesh-intelligence/storyflow/pkg/epic"
	"github.com/mesh-intelligence/storyflow/pkg/types"
)

// BoardStatuses lists the board columns in display order. Backlog stories
// never appear on the board.
var BoardStatuses = []types.Status{
	types.StatusTodo,
	types.StatusInProgress,
	types.StatusBlocked,
	types.StatusTesting,
	types.StatusDone,
}

// columnTitles maps a status to its column heading.
var columnTitles = map[types.Status]string{
	types.StatusTodo:       "TO DO",
	types.StatusInProgress: "IN PROGRESS",
	types.StatusBlocked:    "BLOCKED",
	types.StatusTesting:    "TESTING",
	types.StatusDone:       "DONE",
}

// Column is one board column: a status bucket with its stories in display
// order.
type Column struct {
	Status  types.Status  `json:"status"`
	Title   string        `json:"title"`
	Stories []types.Story `json:"stories"`
}

// Chip is one entry of the epic filter bar.
type Chip struct {
	Label  string     `json:"label"`
	Active bool       `json:"active"`
	Color  epic.Color `json:"color"`
}

// Stats are the header aggregates, computed over the whole collection.
type Stats struct {
	// Score sums points over DONE stories; stories without points count
	// as ten.
	Score int `json:"score"`
	// Items is the total story count.
	Items int `json:"items"`
	// Blocked counts stories with status BLOCKED.
	Blocked int `json:"blocked"`
}

// priorityRank orders stories within a column: HIGH before MEDIUM before
// LOW, anything unrecognized last.
func priorityRank(p types.Priority) int {
	switch p {
	case types.PriorityHigh:
		return 0
	case types.PriorityMedium:
		return 1
	case types.PriorityLow:
		return 2
	default:
		return 3
	}
}

// matchesEpic reports whether a story passes the epic filter. An empty
// filter passes everything; otherwise the match is a case-sensitive exact
// string comparison.
func matchesEpic(s types.Story, filter string) bool {
	return filter == "" || s.Epic == filter
}

// Board partitions the collection into the five fixed columns, applies
// the optional epic filter, and sorts each column by priority with the
// original collection order preserved on ties. Backlog stories are
// excluded entirely.
func Board(stories []types.Story, epicFilter string) []Column {
	columns := make([]Column, len(BoardStatuses))
	for i, status := range BoardStatuses {
		columns[i] = Column{
			Status:  status,
			Title:   columnTitles[status],
			Stories: []types.Story{},
		}

		for _, s := range stories {
			if s.Status == status && matchesEpic(s, epicFilter) {
				columns[i].Stories = append(columns[i].Stories, s)
			}
		}

		col := columns[i].Stories
		sort.SliceStable(col, func(a, b int) bool {
			return priorityRank(col[a].Priority) < priorityRank(col[b].Priority)
		})
	}
	return columns
}

// Backlog returns the BACKLOG-status stories in collection order, with
// the optional epic filter applied. No priority sort: the declared order
// is the current collection order.
func Backlog(stories []types.Story, epicFilter string) []types.Story {
	out := []types.Story{}
	for _, s := range stories {
		if s.Status == types.StatusBacklog && matchesEpic(s, epicFilter) {
			out = append(out, s)
		}
	}
	return out
}

// UniqueEpics returns the distinct non-empty epic labels among the given
// stories, sorted.
func UniqueEpics(stories []types.Story) []string {
	seen := make(map[string]bool)
	for _, s := range stories {
		if s.Epic != "" {
			seen[s.Epic] = true
		}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// BoardChips builds the epic filter bar for the board view: one chip per
// distinct epic among non-backlog stories, regardless of the currently
// active filter. Filter state is single-select and local to the view.
func BoardChips(stories []types.Story, active string, dark bool) []Chip {
	scope := []types.Story{}
	for _, s := range stories {
		if s.Status != types.StatusBacklog {
			scope = append(scope, s)
		}
	}
	return chips(scope, active, dark)
}

// BacklogChips builds the epic filter bar for the backlog view from
// backlog-status stories only.
func BacklogChips(stories []types.Story, active string, dark bool) []Chip {
	return chips(Backlog(stories, ""), active, dark)
}

func chips(scope []types.Story, active string, dark bool) []Chip {
	labels := UniqueEpics(scope)
	out := make([]Chip, len(labels))
	for i, label := range labels {
		out[i] = Chip{
			Label:  label,
			Active: label == active,
			Color:  epic.ColorFor(label, dark),
		}
	}
	return out
}

// Numbers assigns each story its 1-based display number: the story's rank
// in full-collection creation order. Ranks are computed over the entire
// collection, never a filtered subset, so a story keeps its number no
// matter which view or filter is active. Ties on CreatedAt keep the
// collection order.
func Numbers(stories []types.Story) map[string]int {
	order := make([]int, len(stories))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return stories[order[a]].CreatedAt.Before(stories[order[b]].CreatedAt)
	})

	numbers := make(map[string]int, len(stories))
	for rank, idx := range order {
		numbers[stories[idx].ID] = rank + 1
	}
	return numbers
}

// Summarize computes the header aggregates over the whole collection.
func Summarize(stories []types.Story) Stats {
	st := Stats{Items: len(stories)}
	for i := range stories {
		switch stories[i].Status {
		case types.StatusDone:
			st.Score += stories[i].ScorePoints()
		case types.StatusBlocked:
			st.Blocked++
		}
	}
	return st
}
