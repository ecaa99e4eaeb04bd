// Package metrics computes the derived views over a plan grid: the
// intensity/discipline distribution behind the pie summary and the
// training-load time series behind the load chart. Everything here is a
// pure function over grid and feedback data.
package metrics

import (
	"strconv"
	"strings"

	"github.com/maheo/foulee/internal/pace"
	"github.com/maheo/foulee/internal/plan"
)

// Distribution modes.
const (
	ModeCourse = "course"
	ModeOther  = "other"
)

// DistributionEntry is one pie slice: kilometres per pace category in
// course mode, session counts per discipline in other mode.
type DistributionEntry struct {
	Category   string
	Value      float64
	Percentage float64
}

// courseCategories fixes the display order of pace-category slices.
var courseCategories = []string{
	pace.CategoryEF, pace.CategorySeuil, pace.CategoryMarathon,
	pace.Category5K, pace.Category1500,
}

// otherFocuses fixes the display order of non-running disciplines.
var otherFocuses = []string{plan.FocusVelo, plan.FocusPiscine, plan.FocusMusculation}

// Distribution aggregates non-disabled sessions into pie slices. Course
// mode buckets running volume (km) per pace category; other mode counts
// sessions per non-running discipline. Zero-valued categories are omitted;
// percentages sum to 100 whenever the total is positive.
func Distribution(weeks []plan.Week, mode string, profile pace.Profile) []DistributionEntry {
	totals := map[string]float64{}
	var order []string

	switch mode {
	case ModeCourse:
		order = courseCategories
		for _, w := range weeks {
			for _, day := range w.Days {
				for _, slot := range plan.Slots {
					sess := day.Session(slot)
					if sess.Disabled || sess.PrimaryFocus != plan.FocusCourse {
						continue
					}
					for _, b := range sess.Payload.Blocks {
						cat := pace.Category(b.Pace)
						if cat == "" {
							continue
						}
						if km := blockKm(b, profile); km > 0 {
							totals[cat] += km
						}
					}
				}
			}
		}
	case ModeOther:
		order = otherFocuses
		for _, w := range weeks {
			for _, day := range w.Days {
				for _, slot := range plan.Slots {
					sess := day.Session(slot)
					if sess.Disabled {
						continue
					}
					switch sess.PrimaryFocus {
					case plan.FocusVelo, plan.FocusPiscine, plan.FocusMusculation:
						totals[sess.PrimaryFocus]++
					}
				}
			}
		}
	default:
		return nil
	}

	var total float64
	for _, v := range totals {
		total += v
	}
	if total == 0 {
		return nil
	}

	entries := make([]DistributionEntry, 0, len(totals))
	for _, cat := range order {
		v := totals[cat]
		if v == 0 {
			continue
		}
		entries = append(entries, DistributionEntry{
			Category:   cat,
			Value:      v,
			Percentage: v / total * 100,
		})
	}
	return entries
}

// blockKm estimates a block's kilometre contribution: the distance field
// when parseable — a parsed zero counts as zero, it does not fall back —
// otherwise duration divided by the resolved pace. Repeated blocks multiply
// by their rep count.
func blockKm(b plan.Block, profile pace.Profile) float64 {
	var km float64
	if v, ok := pace.ParseKm(b.Distance); ok {
		km = v
	} else if secs, ok := pace.ParseMinSec(b.Duration); ok {
		if perKm := secondsPerKm(profile, b.Pace); perKm > 0 {
			km = float64(secs) / perKm
		}
	}
	if km == 0 {
		return 0
	}
	if reps, err := strconv.Atoi(strings.TrimSpace(b.Reps)); err == nil && reps > 0 {
		km *= float64(reps)
	}
	return km
}

// secondsPerKm resolves a pace key to seconds per km. Category keys are
// stored per km directly; interval keys (i400, r200, ...) store the target
// time for the distance embedded in the key and are scaled up.
func secondsPerKm(profile pace.Profile, key string) float64 {
	secs := profile.SecondsPerKm(key)
	if secs == 0 {
		return 0
	}
	switch key {
	case pace.CategoryEF, pace.CategorySeuil, pace.CategoryMarathon:
		return float64(secs)
	}
	metres, err := strconv.Atoi(strings.TrimLeft(key, "ir"))
	if err != nil || metres <= 0 {
		return 0
	}
	return float64(secs) * 1000 / float64(metres)
}
