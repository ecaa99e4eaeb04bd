package editor

import (
	"database/sql"

	"github.com/maheo/foulee/internal/models"
	"github.com/maheo/foulee/internal/remote"
)

// TemplateStore is the session-template library the editor imports from and
// exports to. The library used to be a module-level mutable cache in the
// browser; here it is an explicit repository injected into the session.
type TemplateStore interface {
	Save(t *models.SessionTemplate) (*models.SessionTemplate, error)
	Get(id int64) (*models.SessionTemplate, error)
	List(discipline string) ([]*models.SessionTemplate, error)
	Delete(id int64) error
}

// PlanCache is the advisory last-known-good plan store.
type PlanCache interface {
	Put(groupID, athleteID string, doc *remote.PlanDocument) error
	Get(groupID, athleteID string) (*remote.PlanDocument, error)
}

// SQLTemplateStore is the sqlite-backed TemplateStore.
type SQLTemplateStore struct {
	DB *sql.DB
}

func (s *SQLTemplateStore) Save(t *models.SessionTemplate) (*models.SessionTemplate, error) {
	return models.SaveSessionTemplate(s.DB, t)
}

func (s *SQLTemplateStore) Get(id int64) (*models.SessionTemplate, error) {
	return models.GetSessionTemplateByID(s.DB, id)
}

func (s *SQLTemplateStore) List(discipline string) ([]*models.SessionTemplate, error) {
	return models.ListSessionTemplates(s.DB, discipline)
}

func (s *SQLTemplateStore) Delete(id int64) error {
	return models.DeleteSessionTemplate(s.DB, id)
}

// SQLPlanCache is the sqlite-backed PlanCache.
type SQLPlanCache struct {
	DB *sql.DB
}

func (c *SQLPlanCache) Put(groupID, athleteID string, doc *remote.PlanDocument) error {
	return models.CachePlan(c.DB, groupID, athleteID, doc)
}

func (c *SQLPlanCache) Get(groupID, athleteID string) (*remote.PlanDocument, error) {
	return models.CachedPlan(c.DB, groupID, athleteID)
}
