package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maheo/foulee/internal/plan"
)

// SessionTemplate is a named, reusable session kept in the local library,
// keyed by discipline. Importing one overwrites the target slot's title,
// focus, and payload wholesale.
type SessionTemplate struct {
	ID             int64
	Name           string
	Discipline     string // course, velo, or piscine
	Title          string
	PrimaryFocus   string
	SecondaryFocus string
	Payload        plan.BlockSet
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaveSessionTemplate inserts or replaces the template with the given
// discipline+name. Saving under an existing name overwrites it.
func SaveSessionTemplate(db *sql.DB, t *SessionTemplate) (*SessionTemplate, error) {
	payload, err := json.Marshal(t.Payload.Normalize())
	if err != nil {
		return nil, fmt.Errorf("models: marshal template payload: %w", err)
	}

	var id int64
	err = db.QueryRow(
		`INSERT INTO session_templates (name, discipline, title, primary_focus, secondary_focus, payload)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (discipline, name) DO UPDATE SET
		   title = excluded.title,
		   primary_focus = excluded.primary_focus,
		   secondary_focus = excluded.secondary_focus,
		   payload = excluded.payload,
		   updated_at = CURRENT_TIMESTAMP
		 RETURNING id`,
		t.Name, t.Discipline, t.Title, t.PrimaryFocus, t.SecondaryFocus, string(payload),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: save session template %q: %w", t.Name, err)
	}
	return GetSessionTemplateByID(db, id)
}

// GetSessionTemplateByID retrieves a template by primary key.
func GetSessionTemplateByID(db *sql.DB, id int64) (*SessionTemplate, error) {
	t := &SessionTemplate{}
	var payload string
	err := db.QueryRow(
		`SELECT id, name, discipline, title, primary_focus, secondary_focus, payload, created_at, updated_at
		 FROM session_templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Discipline, &t.Title, &t.PrimaryFocus, &t.SecondaryFocus, &payload, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get session template %d: %w", id, err)
	}
	t.Payload = plan.NormalizePayload(json.RawMessage(payload))
	return t, nil
}

// ListSessionTemplates returns the templates for one discipline ordered by
// name, or all templates when discipline is empty.
func ListSessionTemplates(db *sql.DB, discipline string) ([]*SessionTemplate, error) {
	query := `SELECT id, name, discipline, title, primary_focus, secondary_focus, payload, created_at, updated_at
	          FROM session_templates`
	args := []any{}
	if discipline != "" {
		query += ` WHERE discipline = ?`
		args = append(args, discipline)
	}
	query += ` ORDER BY name COLLATE NOCASE`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list session templates: %w", err)
	}
	defer rows.Close()

	var templates []*SessionTemplate
	for rows.Next() {
		t := &SessionTemplate{}
		var payload string
		if err := rows.Scan(&t.ID, &t.Name, &t.Discipline, &t.Title, &t.PrimaryFocus, &t.SecondaryFocus, &payload, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("models: scan session template: %w", err)
		}
		t.Payload = plan.NormalizePayload(json.RawMessage(payload))
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

// DeleteSessionTemplate removes a template. Returns ErrNotFound if no row
// was deleted.
func DeleteSessionTemplate(db *sql.DB, id int64) error {
	result, err := db.Exec(`DELETE FROM session_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("models: delete session template %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
