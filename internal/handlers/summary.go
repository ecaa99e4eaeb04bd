package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/maheo/foulee/internal/editor"
	"github.com/maheo/foulee/internal/metrics"
	"github.com/maheo/foulee/internal/remote"
)

// Summary renders the server-side aggregate next to the client-side
// distribution. The two are computed independently and are not required to
// agree; showing both is the point.
// GET /summary
func (h *Planner) Summary(w http.ResponseWriter, r *http.Request) {
	es := h.editorFor(r)
	if es == nil {
		// No open editor: load the last scope transiently, read-only.
		groupID := h.Sessions.GetString(r.Context(), "groupID")
		if groupID == "" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		athleteID := h.Sessions.GetString(r.Context(), "athleteID")
		es = editor.NewSession(h.Backend, &editor.SQLPlanCache{DB: h.DB}, nil)
		if err := es.Load(r.Context(), groupID, athleteID); err != nil {
			log.Printf("handlers: summary load %s/%s: %v", groupID, athleteID, err)
			http.Redirect(w, r, "/?error=Could+not+load+plan", http.StatusSeeOther)
			return
		}
	}

	summary, err := h.Backend.LoadSummary(r.Context(), es.GroupID, es.AthleteID)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		log.Printf("handlers: load summary %s/%s: %v", es.GroupID, es.AthleteID, err)
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = metrics.ModeCourse
	}
	distribution := es.Distribution(mode)

	data := map[string]any{
		"Editor":          es,
		"Summary":         summary,
		"Mode":            mode,
		"Distribution":    distribution,
		"PieSegments":     metrics.PieSegments(distribution),
		"DescriptionHTML": Markdown(es.Description),
	}
	if err := h.Templates.Render(w, r, "summary.html", data); err != nil {
		log.Printf("handlers: summary template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
