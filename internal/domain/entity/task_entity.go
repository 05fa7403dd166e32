package entity

import (
	"strings"
	"time"
)

// Priority is the tier that decides how many points a completed task awards.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Points awarded per tier. Unknown tiers fall back to medium.
const (
	PointsLow    int64 = 10
	PointsMedium int64 = 20
	PointsHigh   int64 = 30
)

var priorityAliases = map[string]Priority{
	"low":    PriorityLow,
	"bajo":   PriorityLow,
	"medium": PriorityMedium,
	"medio":  PriorityMedium,
	"high":   PriorityHigh,
	"alto":   PriorityHigh,
}

// ParsePriority normalizes user input into a tier, defaulting to medium.
func ParsePriority(s string) Priority {
	if p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p
	}
	return PriorityMedium
}

// PointsFor maps a tier to the points awarded on completion.
func PointsFor(p Priority) int64 {
	switch p {
	case PriorityHigh:
		return PointsHigh
	case PriorityLow:
		return PointsLow
	default:
		return PointsMedium
	}
}

// Task is owned by exactly one user. Points stay 0 until the task is
// completed, after which completion fields are never rewritten.
type Task struct {
	ID            string
	OwnerID       string
	Name          string
	DueDate       time.Time
	Completed     bool
	Points        int64
	Collaborative bool
	AssignedUsers []string
	Priority      Priority
	ProofRef      *string
	Notes         *string
	CompletedAt   *time.Time
	CreatedAt     time.Time
}

// CanComplete reports whether userID may complete the task: the owner, or an
// assigned user when the task is collaborative.
func (t *Task) CanComplete(userID string) bool {
	if t.OwnerID == userID {
		return true
	}
	if !t.Collaborative {
		return false
	}
	for _, u := range t.AssignedUsers {
		if u == userID {
			return true
		}
	}
	return false
}

// Completion is the evidence and award applied to a task in one update.
type Completion struct {
	ProofRef    string
	Notes       string
	Points      int64
	CompletedAt time.Time
}
