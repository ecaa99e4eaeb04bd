package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maheo/foulee/internal/plan"
)

func TestClient_LoginCapturesSessionAndCSRF(t *testing.T) {
	var sawCookie, sawCSRF bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Errorf("decode login body: %v", err)
			}
			if creds["email"] != "coach@example.com" {
				t.Errorf("email = %q", creds["email"])
			}
			http.SetCookie(w, &http.Cookie{Name: "backend_session", Value: "abc123", Path: "/"})
			json.NewEncoder(w).Encode(map[string]string{"csrfToken": "tok-1"})
		case "/api/groups/g1/plan":
			if c, err := r.Cookie("backend_session"); err == nil && c.Value == "abc123" {
				sawCookie = true
			}
			if r.Method == http.MethodPut && r.Header.Get("X-CSRF-Token") == "tok-1" {
				sawCSRF = true
			}
			json.NewEncoder(w).Encode(PlanDocument{})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Login(context.Background(), "coach@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := c.SavePlan(context.Background(), "g1", "", &PlanDocument{}); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	if !sawCookie {
		t.Error("session cookie not sent on follow-up request")
	}
	if !sawCSRF {
		t.Error("CSRF token not sent on state-changing request")
	}
}

func TestClient_LoadPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/groups/g1/plan" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("athlete"); got != "a7" {
			t.Errorf("athlete query = %q", got)
		}
		json.NewEncoder(w).Encode(PlanDocument{
			Title:     "Bloc hiver",
			StartDate: "2024-01-01",
			WeekCount: 4,
			Sessions: []plan.SessionRecord{
				{WeekIndex: 0, DayOfWeek: 2, Slot: plan.SlotAM, Title: "Seuil"},
			},
		})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	doc, err := c.LoadPlan(context.Background(), "g1", "a7")
	if err != nil {
		t.Fatalf("load plan: %v", err)
	}
	if doc.Title != "Bloc hiver" || len(doc.Sessions) != 1 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestClient_GroupWidePlanOmitsAthleteQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("athlete") {
			t.Error("group-wide load should not carry an athlete query")
		}
		json.NewEncoder(w).Encode(PlanDocument{})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	if _, err := c.LoadPlan(context.Background(), "g1", ""); err != nil {
		t.Fatalf("load plan: %v", err)
	}
}

func TestClient_LoadFeedbackWeekScope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("week"); got != "3" {
			t.Errorf("week query = %q", got)
		}
		json.NewEncoder(w).Encode([]FeedbackEntry{
			{WeekIndex: 3, DayOfWeek: 1, Slot: plan.SlotAM, Distance: "10", Pace: "5:00", RPE: 6},
		})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	entries, err := c.LoadFeedback(context.Background(), "g1", "a7", 3)
	if err != nil {
		t.Fatalf("load feedback: %v", err)
	}
	if len(entries) != 1 || entries[0].RPE != 6 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestClient_NotFoundSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	_, err := c.LoadAthletePaces(context.Background(), "g1", "a9")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClient_APIErrorCarriesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "no athlete selected"})
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL)
	_, err := c.LoadSummary(context.Background(), "g1", "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "no athlete selected" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
