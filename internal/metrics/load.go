package metrics

import (
	"sort"
	"time"

	"github.com/maheo/foulee/internal/pace"
	"github.com/maheo/foulee/internal/plan"
	"github.com/maheo/foulee/internal/planweek"
	"github.com/maheo/foulee/internal/remote"
)

// LoadPoint is one day of summed training load.
type LoadPoint struct {
	Date time.Time
	Load float64
}

// LoadSeries turns feedback entries into a per-day training-load series,
// ascending by date. Load is RPE × estimated duration (distance ×
// pace-seconds-per-km, 0 when either is unparsable). Each entry is dated at
// its *planned* day — the plan start's Monday plus weekIndex*7 + dayOfWeek —
// not at its submission time: load must reflect when the training happened.
// With an absent or unparsable plan start no entry can be dated, so the
// series is empty rather than zero-filled.
func LoadSeries(entries []remote.FeedbackEntry, planStart string) []LoadPoint {
	start, ok := planweek.ParseDate(planStart)
	if !ok {
		return nil
	}

	byDay := map[time.Time]float64{}
	for _, e := range entries {
		if e.DayOfWeek < 0 || e.DayOfWeek >= plan.DaysPerWeek || e.WeekIndex < 0 {
			continue
		}
		date := planweek.SlotDate(start, e.WeekIndex, e.DayOfWeek)
		byDay[date] += entryLoad(e)
	}

	points := make([]LoadPoint, 0, len(byDay))
	for date, load := range byDay {
		points = append(points, LoadPoint{Date: date, Load: load})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// entryLoad computes RPE × duration-seconds for one feedback entry.
func entryLoad(e remote.FeedbackEntry) float64 {
	km, ok := pace.ParseKm(e.Distance)
	if !ok {
		return 0
	}
	perKm, ok := pace.ParseMinSec(e.Pace)
	if !ok {
		return 0
	}
	return float64(e.RPE) * km * float64(perKm)
}
