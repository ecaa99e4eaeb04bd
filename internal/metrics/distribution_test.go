package metrics

import (
	"math"
	"testing"

	"github.com/maheo/foulee/internal/pace"
	"github.com/maheo/foulee/internal/plan"
)

// testWeeks builds a two-week grid with a mix of running and other
// sessions.
func testWeeks(t *testing.T) []plan.Week {
	t.Helper()
	weeks := plan.BuildEmptyWeeks(2, nil)

	set := func(w, d int, slot plan.Slot, focus string, blocks ...plan.Block) *plan.Session {
		sess := weeks[w].Days[d].Session(slot)
		sess.PrimaryFocus = focus
		if len(blocks) > 0 {
			sess.Payload = plan.BlockSet{Blocks: blocks}.Normalize()
		}
		return sess
	}

	set(0, 0, plan.SlotAM, plan.FocusCourse, plan.Block{Distance: "10", Pace: "ef"})
	set(0, 2, plan.SlotAM, plan.FocusCourse, plan.Block{Distance: "6", Pace: "seuil"})
	set(0, 4, plan.SlotPM, plan.FocusVelo)
	set(1, 1, plan.SlotAM, plan.FocusPiscine)
	set(1, 3, plan.SlotPM, plan.FocusVelo)
	return weeks
}

func TestDistribution_CourseBucketsKmByCategory(t *testing.T) {
	weeks := testWeeks(t)
	profile := pace.Profile{"ef": 330, "seuil": 255}

	entries := Distribution(weeks, ModeCourse, profile)
	if len(entries) != 2 {
		t.Fatalf("got %d entries: %+v", len(entries), entries)
	}
	if entries[0].Category != pace.CategoryEF || entries[0].Value != 10 {
		t.Errorf("ef entry = %+v", entries[0])
	}
	if entries[1].Category != pace.CategorySeuil || entries[1].Value != 6 {
		t.Errorf("seuil entry = %+v", entries[1])
	}

	var pct float64
	for _, e := range entries {
		pct += e.Percentage
	}
	if math.Abs(pct-100) > 1 {
		t.Errorf("percentages sum to %f, want 100 ±1", pct)
	}
}

func TestDistribution_DurationDerivedKm(t *testing.T) {
	weeks := plan.BuildEmptyWeeks(1, nil)
	sess := weeks[0].Days[0].Session(plan.SlotAM)
	sess.PrimaryFocus = plan.FocusCourse
	sess.Payload = plan.BlockSet{Blocks: []plan.Block{
		{Distance: "", Duration: "30:00", Pace: "ef"},
	}}.Normalize()

	profile := pace.Profile{"ef": 330}
	entries := Distribution(weeks, ModeCourse, profile)
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	// 1800 seconds at 330 s/km ≈ 5.4545 km.
	if math.Abs(entries[0].Value-5.4545) > 0.001 {
		t.Errorf("derived km = %f, want ≈5.4545", entries[0].Value)
	}
}

func TestDistribution_ZeroDistanceIsNotDurationDerived(t *testing.T) {
	weeks := plan.BuildEmptyWeeks(1, nil)
	sess := weeks[0].Days[0].Session(plan.SlotAM)
	sess.PrimaryFocus = plan.FocusCourse
	sess.Payload = plan.BlockSet{Blocks: []plan.Block{
		// An explicit "0" distance counts as zero km; the duration is not
		// used as a fallback estimate.
		{Distance: "0", Duration: "30:00", Pace: "ef"},
	}}.Normalize()

	if entries := Distribution(weeks, ModeCourse, pace.Profile{"ef": 330}); entries != nil {
		t.Errorf("zero-distance block produced volume: %+v", entries)
	}
}

func TestDistribution_IntervalRepsAndCategories(t *testing.T) {
	weeks := plan.BuildEmptyWeeks(1, nil)
	sess := weeks[0].Days[2].Session(plan.SlotAM)
	sess.PrimaryFocus = plan.FocusCourse
	sess.Payload = plan.BlockSet{Blocks: []plan.Block{
		// 6 × 400m at i400 pace: distance parses per rep.
		{Distance: "0.4", Reps: "6", Pace: "i400"},
		// 4 × 200m recovery intervals bucket as 1500m pace.
		{Distance: "0.2", Reps: "4", Pace: "r200"},
	}}.Normalize()

	entries := Distribution(weeks, ModeCourse, pace.Profile{"i400": 84, "r200": 40})
	if len(entries) != 2 {
		t.Fatalf("got %+v", entries)
	}
	if entries[0].Category != pace.Category5K || math.Abs(entries[0].Value-2.4) > 1e-9 {
		t.Errorf("i400 entry = %+v", entries[0])
	}
	if entries[1].Category != pace.Category1500 || math.Abs(entries[1].Value-0.8) > 1e-9 {
		t.Errorf("r200 entry = %+v", entries[1])
	}
}

func TestDistribution_IntervalDurationScaledPerKm(t *testing.T) {
	weeks := plan.BuildEmptyWeeks(1, nil)
	sess := weeks[0].Days[0].Session(plan.SlotAM)
	sess.PrimaryFocus = plan.FocusCourse
	sess.Payload = plan.BlockSet{Blocks: []plan.Block{
		// 1:24 of work at i400 pace (84s per 400m → 210 s/km) = 0.4 km.
		{Duration: "1:24", Pace: "i400"},
	}}.Normalize()

	entries := Distribution(weeks, ModeCourse, pace.Profile{"i400": 84})
	if len(entries) != 1 {
		t.Fatalf("got %+v", entries)
	}
	if math.Abs(entries[0].Value-0.4) > 1e-9 {
		t.Errorf("scaled km = %f, want 0.4", entries[0].Value)
	}
}

func TestDistribution_OtherCountsByDiscipline(t *testing.T) {
	weeks := testWeeks(t)
	entries := Distribution(weeks, ModeOther, nil)
	if len(entries) != 2 {
		t.Fatalf("got %+v", entries)
	}
	if entries[0].Category != plan.FocusVelo || entries[0].Value != 2 {
		t.Errorf("velo entry = %+v", entries[0])
	}
	if entries[1].Category != plan.FocusPiscine || entries[1].Value != 1 {
		t.Errorf("piscine entry = %+v", entries[1])
	}
	if math.Abs(entries[0].Percentage-200.0/3) > 0.01 {
		t.Errorf("velo percentage = %f", entries[0].Percentage)
	}
}

func TestDistribution_EmptyWhenNoData(t *testing.T) {
	weeks := plan.BuildEmptyWeeks(2, nil)
	if got := Distribution(weeks, ModeCourse, nil); got != nil {
		t.Errorf("empty grid course = %+v, want nil", got)
	}
	if got := Distribution(weeks, ModeOther, nil); got != nil {
		t.Errorf("empty grid other = %+v, want nil", got)
	}
}

func TestDistribution_SkipsDisabledSessions(t *testing.T) {
	weeks := testWeeks(t)
	plan.SetDisabled(weeks[0].Days[0].Session(plan.SlotAM), true)

	entries := Distribution(weeks, ModeCourse, pace.Profile{"ef": 330, "seuil": 255})
	for _, e := range entries {
		if e.Category == pace.CategoryEF {
			t.Errorf("disabled session still counted: %+v", e)
		}
	}
}
