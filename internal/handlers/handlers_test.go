package handlers

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/maheo/foulee/internal/database"
	"github.com/maheo/foulee/internal/models"
	"github.com/maheo/foulee/internal/pace"
	"github.com/maheo/foulee/internal/plan"
	"github.com/maheo/foulee/internal/planweek"
	"github.com/maheo/foulee/internal/remote"
)

//go:embed testdata/templates
var testTemplateFS embed.FS

// testDB creates a fresh in-memory SQLite database with migrations applied.
func testDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testTemplateCache builds a minimal template cache for handler tests.
// It uses embedded stub templates that define the required blocks.
func testTemplateCache(t testing.TB) TemplateCache {
	t.Helper()

	// Re-root the embedded FS so it looks like the production layout.
	sub, err := fs.Sub(testTemplateFS, "testdata")
	if err != nil {
		t.Fatalf("sub testdata FS: %v", err)
	}
	tc, err := NewTemplateCache(sub)
	if err != nil {
		t.Fatalf("parse test templates: %v", err)
	}
	return tc
}

// testSessionManager creates a cookie-based in-memory session manager for tests.
func testSessionManager() *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = 30 * 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// seedCoach creates a coach user and returns it.
func seedCoach(t testing.TB, db *sql.DB) *models.User {
	t.Helper()
	user, err := models.CreateUser(db, "coach", "password123", "coach@test.com", true)
	if err != nil {
		t.Fatalf("seed coach: %v", err)
	}
	return user
}

// fakeBackend is a scriptable remote.Service for handler tests.
type fakeBackend struct {
	plan     *remote.PlanDocument
	summary  *remote.Summary
	feedback []remote.FeedbackEntry
	paces    pace.Profile

	loadErr error
	saveErr error

	lastSaved    *remote.PlanDocument
	lastFeedback []remote.FeedbackEntry
	saveCalls    int
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) error { return nil }

func (f *fakeBackend) LoadPlan(ctx context.Context, groupID, athleteID string) (*remote.PlanDocument, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.plan == nil {
		return &remote.PlanDocument{}, nil
	}
	return f.plan, nil
}

func (f *fakeBackend) SavePlan(ctx context.Context, groupID, athleteID string, doc *remote.PlanDocument) (*remote.PlanDocument, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.lastSaved = doc
	return doc, nil
}

func (f *fakeBackend) LoadSummary(ctx context.Context, groupID, athleteID string) (*remote.Summary, error) {
	if f.summary == nil {
		return nil, remote.ErrNotFound
	}
	return f.summary, nil
}

func (f *fakeBackend) LoadFeedback(ctx context.Context, groupID, athleteID string, weekIndex int) ([]remote.FeedbackEntry, error) {
	return f.feedback, nil
}

func (f *fakeBackend) SubmitFeedback(ctx context.Context, groupID string, weekIndex int, entries []remote.FeedbackEntry) error {
	f.lastFeedback = entries
	return nil
}

func (f *fakeBackend) LoadAthletePaces(ctx context.Context, groupID, athleteID string) (pace.Profile, error) {
	if f.paces == nil {
		return nil, remote.ErrNotFound
	}
	return f.paces, nil
}

// testPlanDoc returns a small two-week plan anchored at the current week so
// elapsed time never inflates the horizon under test.
func testPlanDoc() *remote.PlanDocument {
	start := planweek.StartOfWeek(time.Now()).Format(planweek.DateLayout)
	return &remote.PlanDocument{
		Title:     "Bloc hiver",
		StartDate: start,
		WeekCount: 2,
		Sessions: []plan.SessionRecord{
			{WeekIndex: 0, DayOfWeek: 2, DayIndex: 2, Slot: "am", Title: "Footing", PrimaryFocus: "course",
				Payload: []byte(`{"blocks":[{"type":"target","metric":"duration","duration":"30:00","pace":"ef"}]}`)},
		},
	}
}

// testApp wires the handler structs behind a chi router the way main does,
// minus auth, and keeps cookies between requests so the login session (and
// with it the open editor) persists.
type testApp struct {
	t       *testing.T
	router  chi.Router
	backend *fakeBackend
	db      *sql.DB
	planner *Planner
	cookies []*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testDB(t)
	sm := testSessionManager()
	tc := testTemplateCache(t)
	backend := &fakeBackend{plan: testPlanDoc()}

	planner := &Planner{DB: db, Sessions: sm, Templates: tc, Backend: backend}
	athlete := &Athlete{DB: db, Sessions: sm, Templates: tc, Backend: backend}
	library := &Library{DB: db, Templates: tc}
	auth := &Auth{DB: db, Sessions: sm, Templates: tc, OnSessionEnd: planner.Forget}

	r := chi.NewRouter()
	wrap := func(h http.HandlerFunc) http.Handler { return sm.LoadAndSave(h) }
	r.Method("POST", "/login", wrap(auth.LoginSubmit))
	r.Method("POST", "/logout", wrap(auth.Logout))
	r.Method("GET", "/", wrap(planner.Index))
	r.Method("POST", "/plan/open", wrap(planner.Open))
	r.Method("GET", "/plan", wrap(planner.Grid))
	r.Method("POST", "/plan/navigate", wrap(planner.Navigate))
	r.Method("POST", "/plan/copy", wrap(planner.CopyWeek))
	r.Method("POST", "/plan/paste", wrap(planner.PasteWeek))
	r.Method("POST", "/plan/save", wrap(planner.Save))
	r.Method("POST", "/plan/slot/cancel", wrap(planner.CancelEdit))
	r.Method("GET", "/plan/slot/{week}/{day}/{slot}/edit", wrap(planner.EditSlotForm))
	r.Method("POST", "/plan/slot/{week}/{day}/{slot}", wrap(planner.UpdateSlot))
	r.Method("POST", "/plan/slot/{week}/{day}/{slot}/toggle", wrap(planner.ToggleSlot))
	r.Method("POST", "/plan/slot/{week}/{day}/{slot}/import", wrap(planner.ImportTemplate))
	r.Method("POST", "/plan/slot/{week}/{day}/{slot}/export", wrap(planner.ExportTemplate))
	r.Method("GET", "/summary", wrap(planner.Summary))
	r.Method("GET", "/athlete", wrap(athlete.View))
	r.Method("POST", "/athlete/feedback", wrap(athlete.SubmitFeedback))
	r.Method("GET", "/templates", wrap(library.List))
	r.Method("POST", "/templates", wrap(library.Create))
	r.Method("POST", "/templates/{id}/delete", wrap(library.Delete))

	app := &testApp{t: t, router: r, backend: backend, db: db, planner: planner}

	// Log in so a committed session token exists: editors are keyed by the
	// scs token, which is empty until the session is first committed.
	seedCoach(t, db)
	rr := app.do("POST", "/login", url.Values{"username": {"coach"}, "password": {"password123"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("test login: status %d location %q", rr.Code, rr.Header().Get("Location"))
	}
	return app
}

// do performs one request, carrying session cookies across calls.
func (a *testApp) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	a.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)

	if cs := rr.Result().Cookies(); len(cs) > 0 {
		a.cookies = cs
	}
	return rr
}

// itoa is a shorthand for strconv.FormatInt used in test URLs.
func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// openPlan opens the editor on the given scope and fails the test on error.
func (a *testApp) openPlan(group, athlete string) {
	a.t.Helper()
	rr := a.do("POST", "/plan/open", url.Values{"group": {group}, "athlete": {athlete}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/plan" {
		a.t.Fatalf("open plan: status %d location %q", rr.Code, rr.Header().Get("Location"))
	}
}
