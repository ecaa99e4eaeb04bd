// Package editor implements the plan-editing view-model: one Session per
// coach/athlete editing context, owning the in-memory grid, the week
// pointer, the copy/paste buffer, and the write-through to the backend.
// A Session is not safe for concurrent use; edits are applied sequentially
// and explicitly flushed.
package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maheo/foulee/internal/metrics"
	"github.com/maheo/foulee/internal/models"
	"github.com/maheo/foulee/internal/pace"
	"github.com/maheo/foulee/internal/plan"
	"github.com/maheo/foulee/internal/planweek"
	"github.com/maheo/foulee/internal/remote"
)

// MaxWeeks caps forward navigation: the horizon is open-ended but not
// unbounded.
const MaxWeeks = 52

// ErrSlotOutOfRange is returned for slot coordinates outside the grid.
var ErrSlotOutOfRange = errors.New("editor: slot out of range")

// ErrStaleLoad is returned when a load result is discarded because the
// selection changed while the fetch was in flight.
var ErrStaleLoad = errors.New("editor: stale load discarded")

// ErrNoCopiedWeek is returned when pasting with an empty copy buffer.
var ErrNoCopiedWeek = errors.New("editor: no copied week")

// copiedWeek is the copy-week buffer: a deep snapshot that survives week
// navigation and is only replaced by copying another week.
type copiedWeek struct {
	index int
	days  [plan.DaysPerWeek]plan.Day
}

// Session is the mutable editing state for one (group, athlete) scope.
type Session struct {
	backend   remote.Service
	cache     PlanCache
	templates TemplateStore

	GroupID   string
	AthleteID string

	Title       string
	Description string
	StartDate   string
	Weeks       []plan.Week

	Paces   pace.Profile
	Summary *remote.Summary

	CurrentWeek int
	Editing     *plan.SlotKey

	copied    *copiedWeek
	loadToken string
}

// NewSession creates an empty editing session over the given collaborators.
// cache and templates may be nil; the session then runs without the
// advisory plan cache or the template library.
func NewSession(backend remote.Service, cache PlanCache, templates TemplateStore) *Session {
	return &Session{backend: backend, cache: cache, templates: templates}
}

// StartLoad switches the session's scope and issues a fresh request token.
// Any in-flight load started before this call will be discarded at apply
// time: the token it carries no longer matches.
func (s *Session) StartLoad(groupID, athleteID string) string {
	s.GroupID = groupID
	s.AthleteID = athleteID
	s.loadToken = uuid.NewString()
	return s.loadToken
}

// Load fetches the scope's plan and pace profile and applies them. It is
// the synchronous path: StartLoad, fetch, apply in one call.
func (s *Session) Load(ctx context.Context, groupID, athleteID string) error {
	token := s.StartLoad(groupID, athleteID)
	doc, paces, err := s.fetch(ctx, groupID, athleteID)
	if err != nil {
		return err
	}
	return s.Apply(token, doc, paces)
}

// fetch performs the backend reads for a scope without touching session
// state, so a stale result can still be discarded afterwards.
func (s *Session) fetch(ctx context.Context, groupID, athleteID string) (*remote.PlanDocument, pace.Profile, error) {
	doc, err := s.backend.LoadPlan(ctx, groupID, athleteID)
	if err != nil {
		return nil, nil, err
	}

	// A transient empty response must not blank the editor: fall back to
	// the advisory cache when it has a fuller copy.
	if len(doc.Sessions) == 0 && s.cache != nil {
		if cached, cerr := s.cache.Get(groupID, athleteID); cerr == nil && len(cached.Sessions) > 0 {
			doc = cached
		}
	}

	var paces pace.Profile
	if athleteID != "" {
		paces, err = s.backend.LoadAthletePaces(ctx, groupID, athleteID)
		if err != nil && !errors.Is(err, remote.ErrNotFound) {
			return nil, nil, err
		}
	}
	return doc, paces, nil
}

// Apply installs a fetched plan document, rebuilding the grid. Results
// whose token no longer matches the current selection are discarded and
// reported as ErrStaleLoad.
func (s *Session) Apply(token string, doc *remote.PlanDocument, paces pace.Profile) error {
	if token != s.loadToken {
		return ErrStaleLoad
	}

	s.Title = doc.Title
	s.Description = doc.Description
	s.StartDate = doc.StartDate
	s.Paces = paces

	total := planweek.TotalWeeks(doc.WeekCount, plan.MaxWeekIndex(doc.Sessions), doc.StartDate, time.Now())
	if total > MaxWeeks {
		total = MaxWeeks
	}
	base := plan.BuildEmptyWeeks(total, doc.DisabledSlots)
	s.Weeks = plan.MergeSessions(doc.Sessions, base)

	s.CurrentWeek = 0
	s.Editing = nil

	if s.cache != nil && len(doc.Sessions) > 0 {
		// Cache write failures are advisory too.
		_ = s.cache.Put(s.GroupID, s.AthleteID, doc)
	}
	return nil
}

// Document flattens the whole in-memory plan back to its wire shape.
func (s *Session) Document() *remote.PlanDocument {
	return &remote.PlanDocument{
		Title:         s.Title,
		Description:   s.Description,
		StartDate:     s.StartDate,
		WeekCount:     len(s.Weeks),
		DisabledSlots: plan.DisabledSlots(s.Weeks),
		Sessions:      plan.Flatten(s.Weeks),
	}
}

// SetWeek moves the week pointer to the given index without touching the
// backend, so read-only views can browse weeks freely. The index is clamped
// to [0, MaxWeeks-1] and a target past the current horizon synthesizes
// blank weeks up to it.
func (s *Session) SetWeek(week int) int {
	if week < 0 {
		week = 0
	}
	if week > MaxWeeks-1 {
		week = MaxWeeks - 1
	}
	for len(s.Weeks) <= week {
		s.Weeks = append(s.Weeks, plan.EmptyWeek(len(s.Weeks)))
	}
	s.CurrentWeek = week
	s.Editing = nil
	return s.CurrentWeek
}

// NavigateWeek moves the week pointer by delta within the edit session.
// Navigation triggers a best-effort autosave whose failure is swallowed so
// navigation itself never blocks.
func (s *Session) NavigateWeek(ctx context.Context, delta int) int {
	target := s.CurrentWeek + delta
	if target < 0 {
		target = 0
	}
	if target > MaxWeeks-1 {
		target = MaxWeeks - 1
	}
	if target == s.CurrentWeek {
		return s.CurrentWeek
	}

	_ = s.save(ctx) // best-effort autosave

	return s.SetWeek(target)
}

// WeekRange returns the calendar label for the current week, or "" when the
// plan has no usable start date.
func (s *Session) WeekRange() string {
	return planweek.FormatWeekRange(s.StartDate, s.CurrentWeek)
}

// slot resolves grid coordinates, or nil when out of range.
func (s *Session) slot(week, day int, slot plan.Slot) *plan.Session {
	if week < 0 || week >= len(s.Weeks) || day < 0 || day >= plan.DaysPerWeek {
		return nil
	}
	return s.Weeks[week].Days[day].Session(slot)
}

// EditSlot transitions to editing one slot of the current grid.
func (s *Session) EditSlot(week, day int, slot plan.Slot) error {
	if s.slot(week, day, slot) == nil {
		return ErrSlotOutOfRange
	}
	s.Editing = &plan.SlotKey{Week: week, Day: day, Slot: slot}
	return nil
}

// UpdateSlot overwrites the edited slot's content and returns to viewing.
// The payload is normalized on the way in, and a slot that receives content
// is active.
func (s *Session) UpdateSlot(week, day int, slot plan.Slot, updated plan.Session) error {
	sess := s.slot(week, day, slot)
	if sess == nil {
		return ErrSlotOutOfRange
	}
	updated.Slot = slot
	updated.Disabled = false
	updated.Payload = updated.Payload.Normalize()
	*sess = updated
	s.Editing = nil
	return nil
}

// CancelEdit returns to viewing without touching the slot.
func (s *Session) CancelEdit() { s.Editing = nil }

// ToggleSlot disables or re-enables a slot. Disabling discards the slot's
// content immediately; re-enabling yields a blank session. There is no undo.
func (s *Session) ToggleSlot(week, day int, slot plan.Slot, disabled bool) error {
	sess := s.slot(week, day, slot)
	if sess == nil {
		return ErrSlotOutOfRange
	}
	plan.SetDisabled(sess, disabled)
	return nil
}

// CopyWeek snapshots a week into the paste buffer, replacing any previous
// snapshot.
func (s *Session) CopyWeek(week int) error {
	if week < 0 || week >= len(s.Weeks) {
		return ErrSlotOutOfRange
	}
	snapshot := plan.CloneWeeks(s.Weeks[week : week+1])
	s.copied = &copiedWeek{index: week, days: snapshot[0].Days}
	return nil
}

// CopiedWeek reports the buffered week index, or -1 when the buffer is
// empty.
func (s *Session) CopiedWeek() int {
	if s.copied == nil {
		return -1
	}
	return s.copied.index
}

// PasteWeek overwrites the target week's days with the buffered snapshot.
// The buffer survives the paste and repeated pastes are allowed.
func (s *Session) PasteWeek(week int) error {
	if s.copied == nil {
		return ErrNoCopiedWeek
	}
	if week < 0 || week >= len(s.Weeks) {
		return ErrSlotOutOfRange
	}
	snapshot := plan.Week{Index: s.copied.index, Days: s.copied.days}
	cloned := plan.CloneWeeks([]plan.Week{snapshot})
	s.Weeks[week].Days = cloned[0].Days
	return nil
}

// SaveWeek persists the plan and, on success, refreshes the cached copy and
// the distribution summary for the scope. On failure the in-memory edits
// stay untouched and the error is surfaced; there is no rollback or retry.
// The whole plan is flattened, not just the target week: the backend
// replaces the document wholesale.
func (s *Session) SaveWeek(ctx context.Context, weekIndex int) error {
	if weekIndex < 0 || weekIndex >= len(s.Weeks) {
		return ErrSlotOutOfRange
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	summary, err := s.backend.LoadSummary(ctx, s.GroupID, s.AthleteID)
	if err == nil {
		s.Summary = summary
	}
	return nil
}

func (s *Session) save(ctx context.Context) error {
	doc := s.Document()
	saved, err := s.backend.SavePlan(ctx, s.GroupID, s.AthleteID, doc)
	if err != nil {
		return fmt.Errorf("editor: save plan: %w", err)
	}
	if s.cache != nil {
		if saved == nil {
			saved = doc
		}
		_ = s.cache.Put(s.GroupID, s.AthleteID, saved)
	}
	return nil
}

// Distribution computes the pie summary over the whole grid.
func (s *Session) Distribution(mode string) []metrics.DistributionEntry {
	return metrics.Distribution(s.Weeks, mode, s.Paces)
}

// WeekDistribution computes the pie summary for a single week.
func (s *Session) WeekDistribution(week int, mode string) []metrics.DistributionEntry {
	if week < 0 || week >= len(s.Weeks) {
		return nil
	}
	return metrics.Distribution(s.Weeks[week:week+1], mode, s.Paces)
}

// LoadSeries fetches the scope's feedback and turns it into the
// training-load series.
func (s *Session) LoadSeries(ctx context.Context) ([]metrics.LoadPoint, error) {
	entries, err := s.backend.LoadFeedback(ctx, s.GroupID, s.AthleteID, -1)
	if err != nil {
		return nil, err
	}
	return metrics.LoadSeries(entries, s.StartDate), nil
}

// ImportTemplate overwrites the target slot's title, focus, and payload
// wholesale from a library template.
func (s *Session) ImportTemplate(templateID int64, week, day int, slot plan.Slot) error {
	if s.templates == nil {
		return errors.New("editor: no template store configured")
	}
	sess := s.slot(week, day, slot)
	if sess == nil {
		return ErrSlotOutOfRange
	}
	tpl, err := s.templates.Get(templateID)
	if err != nil {
		return fmt.Errorf("editor: import template %d: %w", templateID, err)
	}
	sess.Disabled = false
	sess.Title = tpl.Title
	sess.PrimaryFocus = tpl.PrimaryFocus
	sess.SecondaryFocus = tpl.SecondaryFocus
	sess.Payload = tpl.Payload.Clone().Normalize()
	return nil
}

// ExportTemplate saves a slot's content to the library under the given
// name and discipline.
func (s *Session) ExportTemplate(name, discipline string, week, day int, slot plan.Slot) error {
	if s.templates == nil {
		return errors.New("editor: no template store configured")
	}
	sess := s.slot(week, day, slot)
	if sess == nil {
		return ErrSlotOutOfRange
	}
	_, err := s.templates.Save(&models.SessionTemplate{
		Name:           name,
		Discipline:     discipline,
		Title:          sess.Title,
		PrimaryFocus:   sess.PrimaryFocus,
		SecondaryFocus: sess.SecondaryFocus,
		Payload:        sess.Payload.Clone(),
	})
	if err != nil {
		return fmt.Errorf("editor: export template %q: %w", name, err)
	}
	return nil
}
