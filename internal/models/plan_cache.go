package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maheo/foulee/internal/remote"
)

// CachePlan stores the last successfully loaded plan document for a
// (group, athlete) scope. The cache is advisory only: it is overwritten on
// every successful load or save, and read only when the backend returns an
// empty plan so a transient empty response does not blank the editor.
func CachePlan(db *sql.DB, groupID, athleteID string, doc *remote.PlanDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("models: marshal cached plan: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO plan_cache (group_id, athlete_id, document, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (group_id, athlete_id) DO UPDATE SET
		   document = excluded.document,
		   updated_at = CURRENT_TIMESTAMP`,
		groupID, athleteID, string(data),
	)
	if err != nil {
		return fmt.Errorf("models: cache plan for %s/%s: %w", groupID, athleteID, err)
	}
	return nil
}

// CachedPlan returns the cached plan for a scope, or ErrNotFound.
func CachedPlan(db *sql.DB, groupID, athleteID string) (*remote.PlanDocument, error) {
	var data string
	err := db.QueryRow(
		`SELECT document FROM plan_cache WHERE group_id = ? AND athlete_id = ?`,
		groupID, athleteID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: cached plan for %s/%s: %w", groupID, athleteID, err)
	}

	doc := &remote.PlanDocument{}
	if err := json.Unmarshal([]byte(data), doc); err != nil {
		return nil, fmt.Errorf("models: decode cached plan for %s/%s: %w", groupID, athleteID, err)
	}
	return doc, nil
}

// Scope is one (group, athlete) pair with a cached plan. The scheduler
// polls feedback for every known scope.
type Scope struct {
	GroupID   string
	AthleteID string
}

// ListCachedScopes returns every scope currently present in the plan cache.
func ListCachedScopes(db *sql.DB) ([]Scope, error) {
	rows, err := db.Query(`SELECT group_id, athlete_id FROM plan_cache ORDER BY group_id, athlete_id`)
	if err != nil {
		return nil, fmt.Errorf("models: list cached scopes: %w", err)
	}
	defer rows.Close()

	var scopes []Scope
	for rows.Next() {
		var s Scope
		if err := rows.Scan(&s.GroupID, &s.AthleteID); err != nil {
			return nil, fmt.Errorf("models: scan cached scope: %w", err)
		}
		scopes = append(scopes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("models: list cached scopes: %w", err)
	}
	return scopes, nil
}

// PrunePlanCache deletes cache rows not refreshed within maxAge and returns
// the number removed.
func PrunePlanCache(db *sql.DB, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format("2006-01-02 15:04:05")
	result, err := db.Exec(`DELETE FROM plan_cache WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("models: prune plan cache: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
