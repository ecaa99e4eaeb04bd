package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maheo/foulee/internal/models"
	"github.com/maheo/foulee/internal/plan"
)

// Library holds dependencies for the session-template library pages.
type Library struct {
	DB        *sql.DB
	Templates TemplateCache
}

// List renders the template library, optionally filtered by discipline.
// GET /templates
func (h *Library) List(w http.ResponseWriter, r *http.Request) {
	discipline := r.URL.Query().Get("discipline")
	templates, err := models.ListSessionTemplates(h.DB, discipline)
	if err != nil {
		log.Printf("handlers: list session templates: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"SessionTemplates": templates,
		"Discipline":       discipline,
		"Error":            r.URL.Query().Get("error"),
	}
	if err := h.Templates.Render(w, r, "templates_list.html", data); err != nil {
		log.Printf("handlers: templates list template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Create saves a template straight from the library page. The payload is
// the block list as JSON; unparsable input normalizes to a default block.
// POST /templates
func (h *Library) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	discipline := r.FormValue("discipline")
	if name == "" || discipline == "" {
		http.Redirect(w, r, "/templates?error=Name+and+discipline+are+required", http.StatusSeeOther)
		return
	}

	_, err := models.SaveSessionTemplate(h.DB, &models.SessionTemplate{
		Name:           name,
		Discipline:     discipline,
		Title:          r.FormValue("title"),
		PrimaryFocus:   r.FormValue("primaryFocus"),
		SecondaryFocus: r.FormValue("secondaryFocus"),
		Payload:        plan.NormalizePayload([]byte(r.FormValue("payload"))),
	})
	if err != nil {
		log.Printf("handlers: save session template %q: %v", name, err)
		http.Redirect(w, r, "/templates?error=Could+not+save+template", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/templates", http.StatusSeeOther)
}

// Delete removes a template from the library.
// POST /templates/{id}/delete
func (h *Library) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if err := models.DeleteSessionTemplate(h.DB, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		log.Printf("handlers: delete session template %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/templates", http.StatusSeeOther)
}
