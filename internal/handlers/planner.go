package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/maheo/foulee/internal/editor"
	"github.com/maheo/foulee/internal/metrics"
	"github.com/maheo/foulee/internal/models"
	"github.com/maheo/foulee/internal/plan"
	"github.com/maheo/foulee/internal/remote"
)

// Planner holds dependencies for the plan editor pages. Editing sessions
// are kept per login session: one coach works on one (group, athlete)
// scope at a time, and reopening a scope replaces the previous editor.
type Planner struct {
	DB        *sql.DB
	Sessions  *scs.SessionManager
	Templates TemplateCache
	Backend   remote.Service

	mu      sync.Mutex
	editors map[string]*editor.Session
}

// editorFor returns the login session's open editor, or nil.
func (h *Planner) editorFor(r *http.Request) *editor.Session {
	token := h.Sessions.Token(r.Context())
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.editors[token]
}

func (h *Planner) setEditor(r *http.Request, es *editor.Session) {
	token := h.Sessions.Token(r.Context())
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.editors == nil {
		h.editors = make(map[string]*editor.Session)
	}
	h.editors[token] = es
}

// Forget drops the editor tied to a login-session token. Login renews the
// token and logout destroys it, so without this the map would keep editors
// for tokens that can never come back.
func (h *Planner) Forget(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.editors, token)
}

// Index renders the scope chooser: pick a group and optionally an athlete,
// then open the plan editor.
func (h *Planner) Index(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"GroupID":   h.Sessions.GetString(r.Context(), "groupID"),
		"AthleteID": h.Sessions.GetString(r.Context(), "athleteID"),
		"Error":     r.URL.Query().Get("error"),
	}
	if err := h.Templates.Render(w, r, "index.html", data); err != nil {
		log.Printf("handlers: index template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Open loads the plan for the submitted scope and opens an editor on it.
// POST /plan/open
func (h *Planner) Open(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	groupID := r.FormValue("group")
	athleteID := r.FormValue("athlete")
	if groupID == "" {
		http.Redirect(w, r, "/?error=Group+is+required", http.StatusSeeOther)
		return
	}

	es := editor.NewSession(h.Backend,
		&editor.SQLPlanCache{DB: h.DB},
		&editor.SQLTemplateStore{DB: h.DB})
	if err := es.Load(r.Context(), groupID, athleteID); err != nil {
		log.Printf("handlers: open plan %s/%s: %v", groupID, athleteID, err)
		http.Redirect(w, r, "/?error=Could+not+load+plan", http.StatusSeeOther)
		return
	}

	h.setEditor(r, es)
	h.Sessions.Put(r.Context(), "groupID", groupID)
	h.Sessions.Put(r.Context(), "athleteID", athleteID)

	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// Grid renders the week grid for the open editor.
// GET /plan
func (h *Planner) Grid(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = metrics.ModeCourse
	}

	templates, err := models.ListSessionTemplates(h.DB, "")
	if err != nil {
		log.Printf("handlers: list templates for grid: %v", err)
	}

	week := es.Weeks[es.CurrentWeek]
	data := map[string]any{
		"Editor":           es,
		"Week":             week,
		"WeekRange":        es.WeekRange(),
		"WeekDistribution": es.WeekDistribution(es.CurrentWeek, mode),
		"Distribution":     es.Distribution(mode),
		"PieSegments":      metrics.PieSegments(es.Distribution(mode)),
		"Mode":             mode,
		"SessionTemplates": templates,
		"CopiedWeek":       es.CopiedWeek(),
		"Error":            r.URL.Query().Get("error"),
	}
	if err := h.Templates.Render(w, r, "plan_grid.html", data); err != nil {
		log.Printf("handlers: plan grid template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Navigate moves the week pointer one step.
// POST /plan/navigate
func (h *Planner) Navigate(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	delta := 1
	if r.FormValue("dir") == "prev" {
		delta = -1
	}
	es.NavigateWeek(r.Context(), delta)
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// slotParams parses the {week}/{day}/{slot} route parameters.
func slotParams(r *http.Request) (week, day int, slot plan.Slot, err error) {
	week, err = strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		return 0, 0, "", err
	}
	day, err = strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		return 0, 0, "", err
	}
	slot = plan.Slot(chi.URLParam(r, "slot"))
	if slot != plan.SlotAM && slot != plan.SlotPM {
		return 0, 0, "", errors.New("handlers: unknown slot")
	}
	return week, day, slot, nil
}

// EditSlotForm renders the edit form for one slot.
// GET /plan/slot/{week}/{day}/{slot}/edit
func (h *Planner) EditSlotForm(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	week, day, slot, err := slotParams(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := es.EditSlot(week, day, slot); err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	sess := es.Weeks[week].Days[day].Session(slot)
	payload, err := json.MarshalIndent(sess.Payload.Normalize(), "", "  ")
	if err != nil {
		log.Printf("handlers: marshal slot payload: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	templates, err := models.ListSessionTemplates(h.DB, "")
	if err != nil {
		log.Printf("handlers: list templates for slot form: %v", err)
	}

	data := map[string]any{
		"Editor":           es,
		"Week":             week,
		"Day":              day,
		"Slot":             slot,
		"Session":          sess,
		"Payload":          string(payload),
		"SessionTemplates": templates,
	}
	if err := h.Templates.Render(w, r, "slot_form.html", data); err != nil {
		log.Printf("handlers: slot form template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// UpdateSlot applies the edit form to the slot. The payload field is the
// block list as JSON; anything unparsable normalizes to a single default
// block rather than failing the request.
// POST /plan/slot/{week}/{day}/{slot}
func (h *Planner) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	week, day, slot, err := slotParams(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	updated := plan.Session{
		Title:          r.FormValue("title"),
		Intensity:      r.FormValue("intensity"),
		PrimaryFocus:   r.FormValue("primaryFocus"),
		SecondaryFocus: r.FormValue("secondaryFocus"),
		Notes:          r.FormValue("notes"),
		Payload:        plan.NormalizePayload([]byte(r.FormValue("payload"))),
	}
	if err := es.UpdateSlot(week, day, slot, updated); err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// CancelEdit abandons the slot edit without touching the grid.
// POST /plan/slot/cancel
func (h *Planner) CancelEdit(w http.ResponseWriter, r *http.Request) {
	if es := h.editorFor(r); es != nil {
		es.CancelEdit()
	}
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// ToggleSlot disables or re-enables a slot. Disabling discards the slot's
// content; there is no undo, so the form carries the explicit target state.
// POST /plan/slot/{week}/{day}/{slot}/toggle
func (h *Planner) ToggleSlot(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	week, day, slot, err := slotParams(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	disabled := r.FormValue("disabled") == "1"
	if err := es.ToggleSlot(week, day, slot, disabled); err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// CopyWeek snapshots the current week into the paste buffer.
// POST /plan/copy
func (h *Planner) CopyWeek(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := es.CopyWeek(es.CurrentWeek); err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// PasteWeek overwrites the current week with the paste buffer.
// POST /plan/paste
func (h *Planner) PasteWeek(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := es.PasteWeek(es.CurrentWeek); err != nil {
		if errors.Is(err, editor.ErrNoCopiedWeek) {
			http.Redirect(w, r, "/plan?error=Nothing+copied+yet", http.StatusSeeOther)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// Save persists the plan. On failure the in-memory edits are kept and the
// error is shown on the grid.
// POST /plan/save
func (h *Planner) Save(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := es.SaveWeek(r.Context(), es.CurrentWeek); err != nil {
		log.Printf("handlers: save plan %s/%s: %v", es.GroupID, es.AthleteID, err)
		http.Redirect(w, r, "/plan?error=Save+failed%2C+your+edits+are+kept", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// ImportTemplate fills a slot from a library template.
// POST /plan/slot/{week}/{day}/{slot}/import
func (h *Planner) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	week, day, slot, err := slotParams(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	templateID, err := strconv.ParseInt(r.FormValue("template"), 10, 64)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := es.ImportTemplate(templateID, week, day, slot); err != nil {
		log.Printf("handlers: import template %d: %v", templateID, err)
		http.Redirect(w, r, "/plan?error=Template+not+found", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}

// ExportTemplate saves a slot's content to the library.
// POST /plan/slot/{week}/{day}/{slot}/export
func (h *Planner) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	week, day, slot, err := slotParams(r)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	name := r.FormValue("name")
	discipline := r.FormValue("discipline")
	if name == "" || discipline == "" {
		http.Redirect(w, r, "/plan?error=Template+name+and+discipline+are+required", http.StatusSeeOther)
		return
	}
	if err := es.ExportTemplate(name, discipline, week, day, slot); err != nil {
		log.Printf("handlers: export template %q: %v", name, err)
		http.Redirect(w, r, "/plan?error=Could+not+save+template", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/plan", http.StatusSeeOther)
}
