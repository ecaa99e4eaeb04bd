// Package remote is the sync boundary with the coaching backend. The
// backend owns persistence, auth, and the wire contract; this package only
// exposes its operations as typed calls. No operation is retried — failures
// surface to the caller, which keeps its in-memory edits.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/maheo/foulee/internal/pace"
	"github.com/maheo/foulee/internal/plan"
)

// ErrNotFound is returned when the backend has no record for the requested
// resource (e.g. an athlete without a pace profile).
var ErrNotFound = errors.New("remote: not found")

// PlanDocument is the wire shape of a persisted plan: metadata plus the
// flat session records the grid is rebuilt from.
type PlanDocument struct {
	Title         string               `json:"title,omitempty"`
	Description   string               `json:"description,omitempty"`
	StartDate     string               `json:"startDate,omitempty"`
	WeekCount     int                  `json:"weekCount,omitempty"`
	DisabledSlots []plan.SlotKey       `json:"disabledSlots,omitempty"`
	Sessions      []plan.SessionRecord `json:"sessions"`
}

// Summary is the server-computed aggregate shown beside the client-side
// distribution. The two are not required to agree.
type Summary struct {
	TotalKm       float64            `json:"totalKm"`
	SessionCount  int                `json:"sessionCount"`
	WeeklyLoad    float64            `json:"weeklyLoad"`
	ByCategory    map[string]float64 `json:"byCategory,omitempty"`
	ByDiscipline  map[string]int     `json:"byDiscipline,omitempty"`
}

// FeedbackEntry is one athlete feedback record, read-only input to the
// training-load computation.
type FeedbackEntry struct {
	WeekIndex int       `json:"weekIndex"`
	DayOfWeek int       `json:"dayOfWeek"`
	Slot      plan.Slot `json:"slot"`
	Distance  string    `json:"distance"` // km, numeric string
	Pace      string    `json:"pace"`     // mm:ss per km
	RPE       int       `json:"rpe"`      // 1..10
	CreatedAt string    `json:"createdAt,omitempty"`
}

// Service enumerates the backend operations the console consumes. An empty
// athleteID means the group-wide plan.
type Service interface {
	Login(ctx context.Context, email, password string) error
	LoadPlan(ctx context.Context, groupID, athleteID string) (*PlanDocument, error)
	SavePlan(ctx context.Context, groupID, athleteID string, doc *PlanDocument) (*PlanDocument, error)
	LoadSummary(ctx context.Context, groupID, athleteID string) (*Summary, error)
	LoadFeedback(ctx context.Context, groupID, athleteID string, weekIndex int) ([]FeedbackEntry, error)
	SubmitFeedback(ctx context.Context, groupID string, weekIndex int, entries []FeedbackEntry) error
	LoadAthletePaces(ctx context.Context, groupID, athleteID string) (pace.Profile, error)
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote: backend returned %d", e.StatusCode)
}
