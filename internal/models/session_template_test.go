package models

import (
	"errors"
	"testing"

	"github.com/maheo/foulee/internal/plan"
)

func TestSaveSessionTemplate_UpsertByDisciplineAndName(t *testing.T) {
	db := testDB(t)

	tpl := &SessionTemplate{
		Name:         "Seuil 3x8",
		Discipline:   "course",
		Title:        "Seuil",
		PrimaryFocus: plan.FocusCourse,
		Payload: plan.BlockSet{Blocks: []plan.Block{
			{Type: plan.BlockInterval, Duration: "8:00", Reps: "3", Pace: "seuil"},
		}},
	}
	saved, err := SaveSessionTemplate(db, tpl)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == 0 || saved.Payload.Blocks[0].Reps != "3" {
		t.Errorf("saved = %+v", saved)
	}

	// Saving under the same discipline+name overwrites in place.
	tpl.Title = "Seuil long"
	again, err := SaveSessionTemplate(db, tpl)
	if err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if again.ID != saved.ID || again.Title != "Seuil long" {
		t.Errorf("upsert created a new row: %+v vs %+v", again, saved)
	}

	// Same name under another discipline is a separate template.
	tpl.Discipline = "velo"
	other, err := SaveSessionTemplate(db, tpl)
	if err != nil {
		t.Fatalf("save other discipline: %v", err)
	}
	if other.ID == saved.ID {
		t.Error("disciplines should not share templates")
	}
}

func TestListSessionTemplates_FiltersByDiscipline(t *testing.T) {
	db := testDB(t)

	for _, tpl := range []*SessionTemplate{
		{Name: "B footing", Discipline: "course"},
		{Name: "A fractionné", Discipline: "course"},
		{Name: "Sortie club", Discipline: "velo"},
	} {
		if _, err := SaveSessionTemplate(db, tpl); err != nil {
			t.Fatalf("save %q: %v", tpl.Name, err)
		}
	}

	course, err := ListSessionTemplates(db, "course")
	if err != nil {
		t.Fatalf("list course: %v", err)
	}
	if len(course) != 2 || course[0].Name != "A fractionné" {
		t.Errorf("course list = %+v", course)
	}

	all, err := ListSessionTemplates(db, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all list has %d entries", len(all))
	}
}

func TestDeleteSessionTemplate(t *testing.T) {
	db := testDB(t)

	saved, err := SaveSessionTemplate(db, &SessionTemplate{Name: "X", Discipline: "course"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := DeleteSessionTemplate(db, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetSessionTemplateByID(db, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if err := DeleteSessionTemplate(db, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete = %v, want ErrNotFound", err)
	}
}

func TestSessionTemplate_PayloadNormalizedOnLoad(t *testing.T) {
	db := testDB(t)

	saved, err := SaveSessionTemplate(db, &SessionTemplate{Name: "vide", Discipline: "piscine"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := GetSessionTemplateByID(db, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Payload.Blocks) != 1 {
		t.Errorf("payload should normalize to one default block: %+v", got.Payload)
	}
}
