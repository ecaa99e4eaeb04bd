package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"

	"github.com/maheo/foulee/internal/editor"
	"github.com/maheo/foulee/internal/metrics"
	"github.com/maheo/foulee/internal/plan"
	"github.com/maheo/foulee/internal/remote"
)

// Athlete holds dependencies for the read-only athlete pages: the current
// week's plan, the training-load chart, and the feedback form.
type Athlete struct {
	DB        *sql.DB
	Sessions  *scs.SessionManager
	Templates TemplateCache
	Backend   remote.Service
}

// scope resolves the group/athlete pair from query parameters, falling back
// to the login session's last opened scope.
func (h *Athlete) scope(r *http.Request) (groupID, athleteID string) {
	groupID = r.URL.Query().Get("group")
	athleteID = r.URL.Query().Get("athlete")
	if groupID == "" {
		groupID = h.Sessions.GetString(r.Context(), "groupID")
		athleteID = h.Sessions.GetString(r.Context(), "athleteID")
	}
	return groupID, athleteID
}

// View renders the read-only plan for an athlete: the requested week's
// sessions, recent feedback, and the training-load chart.
// GET /athlete
func (h *Athlete) View(w http.ResponseWriter, r *http.Request) {
	groupID, athleteID := h.scope(r)
	if groupID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	es := editor.NewSession(h.Backend, &editor.SQLPlanCache{DB: h.DB}, nil)
	if err := es.Load(r.Context(), groupID, athleteID); err != nil {
		log.Printf("handlers: athlete view load %s/%s: %v", groupID, athleteID, err)
		http.Redirect(w, r, "/?error=Could+not+load+plan", http.StatusSeeOther)
		return
	}

	// Week browsing on the read-only view must never write the plan back.
	if wk, err := strconv.Atoi(r.URL.Query().Get("week")); err == nil {
		es.SetWeek(wk)
	}

	feedback, err := h.Backend.LoadFeedback(r.Context(), groupID, athleteID, es.CurrentWeek)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		log.Printf("handlers: load feedback %s/%s: %v", groupID, athleteID, err)
	}

	var chart *metrics.ChartData
	if series, err := es.LoadSeries(r.Context()); err == nil {
		chart = metrics.LoadChart(series)
	} else {
		log.Printf("handlers: load series %s/%s: %v", groupID, athleteID, err)
	}

	data := map[string]any{
		"Editor":    es,
		"Week":      es.Weeks[es.CurrentWeek],
		"WeekRange": es.WeekRange(),
		"Feedback":  feedback,
		"LoadChart": chart,
		"GroupID":   groupID,
		"AthleteID": athleteID,
		"Error":     r.URL.Query().Get("error"),
	}
	if err := h.Templates.Render(w, r, "athlete_view.html", data); err != nil {
		log.Printf("handlers: athlete view template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// SubmitFeedback records one completed-session report.
// POST /athlete/feedback
func (h *Athlete) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	groupID := r.FormValue("group")
	if groupID == "" {
		groupID = h.Sessions.GetString(r.Context(), "groupID")
	}
	if groupID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	weekIndex, err := strconv.Atoi(r.FormValue("week"))
	if err != nil || weekIndex < 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	dayOfWeek, err := strconv.Atoi(r.FormValue("day"))
	if err != nil || dayOfWeek < 0 || dayOfWeek >= plan.DaysPerWeek {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	slot := plan.Slot(r.FormValue("slot"))
	if slot != plan.SlotAM && slot != plan.SlotPM {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	rpe, err := strconv.Atoi(r.FormValue("rpe"))
	if err != nil || rpe < 1 || rpe > 10 {
		http.Redirect(w, r, "/athlete?error=RPE+must+be+between+1+and+10", http.StatusSeeOther)
		return
	}

	entry := remote.FeedbackEntry{
		WeekIndex: weekIndex,
		DayOfWeek: dayOfWeek,
		Slot:      slot,
		Distance:  r.FormValue("distance"),
		Pace:      r.FormValue("pace"),
		RPE:       rpe,
	}
	if err := h.Backend.SubmitFeedback(r.Context(), groupID, weekIndex, []remote.FeedbackEntry{entry}); err != nil {
		log.Printf("handlers: submit feedback %s week %d: %v", groupID, weekIndex, err)
		http.Redirect(w, r, "/athlete?error=Could+not+submit+feedback", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/athlete", http.StatusSeeOther)
}
