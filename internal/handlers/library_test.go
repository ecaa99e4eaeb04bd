package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/maheo/foulee/internal/models"
)

func TestLibraryCreateAndList(t *testing.T) {
	app := newTestApp(t)

	rr := app.do("POST", "/templates", url.Values{
		"name":         {"Fartlek 30/30"},
		"discipline":   {"course"},
		"title":        {"Fartlek"},
		"primaryFocus": {"course"},
		"payload":      {`{"blocks":[{"type":"interval","duration":"0:30","reps":"10","pace":"allure5k"}]}`},
	})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/templates" {
		t.Fatalf("create failed: %d %q", rr.Code, rr.Header().Get("Location"))
	}

	body := app.do("GET", "/templates", nil).Body.String()
	if !strings.Contains(body, "Fartlek 30/30 (course)") {
		t.Errorf("expected template in list, body: %s", body)
	}
}

func TestLibraryListFiltersByDiscipline(t *testing.T) {
	app := newTestApp(t)

	for _, tpl := range []*models.SessionTemplate{
		{Name: "Footing", Discipline: "course"},
		{Name: "Sortie longue velo", Discipline: "velo"},
	} {
		if _, err := models.SaveSessionTemplate(app.db, tpl); err != nil {
			t.Fatalf("seed template: %v", err)
		}
	}

	body := app.do("GET", "/templates?discipline=velo", nil).Body.String()
	if strings.Contains(body, "Footing") {
		t.Error("expected course template filtered out")
	}
	if !strings.Contains(body, "Sortie longue velo") {
		t.Error("expected velo template in filtered list")
	}
}

func TestLibraryCreateRequiresNameAndDiscipline(t *testing.T) {
	app := newTestApp(t)

	rr := app.do("POST", "/templates", url.Values{"name": {"Sans discipline"}})
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("expected error redirect, got %q", loc)
	}
}

func TestLibraryDelete(t *testing.T) {
	app := newTestApp(t)

	tpl, err := models.SaveSessionTemplate(app.db, &models.SessionTemplate{Name: "Temp", Discipline: "course"})
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}

	rr := app.do("POST", "/templates/"+itoa(tpl.ID)+"/delete", url.Values{})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}

	if _, err := models.GetSessionTemplateByID(app.db, tpl.ID); err == nil {
		t.Error("expected template deleted")
	}

	rr = app.do("POST", "/templates/"+itoa(tpl.ID)+"/delete", url.Values{})
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for repeated delete, got %d", rr.Code)
	}
}
