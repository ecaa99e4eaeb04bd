package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/maheo/foulee/internal/pace"
)

// Client is the HTTP implementation of Service. The backend authenticates
// with a session cookie set at login and expects its CSRF token echoed in a
// header on every state-changing request.
type Client struct {
	baseURL   string
	client    *http.Client
	csrfToken string
}

// NewClient creates a backend client rooted at baseURL. The cookie jar
// holds the backend session cookie across calls.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("remote: create cookie jar: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Login establishes the backend session and captures the CSRF token the
// backend issues alongside it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		CSRFToken string `json:"csrfToken"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return err
	}
	c.csrfToken = out.CSRFToken
	return nil
}

// LoadPlan fetches the plan for a group, or for one athlete when athleteID
// is non-empty.
func (c *Client) LoadPlan(ctx context.Context, groupID, athleteID string) (*PlanDocument, error) {
	doc := &PlanDocument{}
	q := athleteQuery(athleteID)
	if err := c.do(ctx, http.MethodGet, "/api/groups/"+url.PathEscape(groupID)+"/plan", q, nil, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SavePlan persists the plan wholesale and returns the echoed document.
func (c *Client) SavePlan(ctx context.Context, groupID, athleteID string, doc *PlanDocument) (*PlanDocument, error) {
	saved := &PlanDocument{}
	q := athleteQuery(athleteID)
	if err := c.do(ctx, http.MethodPut, "/api/groups/"+url.PathEscape(groupID)+"/plan", q, doc, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// LoadSummary fetches the server-computed aggregate for the scope.
func (c *Client) LoadSummary(ctx context.Context, groupID, athleteID string) (*Summary, error) {
	s := &Summary{}
	q := athleteQuery(athleteID)
	if err := c.do(ctx, http.MethodGet, "/api/groups/"+url.PathEscape(groupID)+"/summary", q, nil, s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFeedback fetches feedback entries, optionally scoped to one week
// (weekIndex < 0 means all weeks).
func (c *Client) LoadFeedback(ctx context.Context, groupID, athleteID string, weekIndex int) ([]FeedbackEntry, error) {
	q := athleteQuery(athleteID)
	if weekIndex >= 0 {
		if q == nil {
			q = url.Values{}
		}
		q.Set("week", strconv.Itoa(weekIndex))
	}
	var entries []FeedbackEntry
	if err := c.do(ctx, http.MethodGet, "/api/groups/"+url.PathEscape(groupID)+"/feedback", q, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SubmitFeedback posts athlete feedback for one week.
func (c *Client) SubmitFeedback(ctx context.Context, groupID string, weekIndex int, entries []FeedbackEntry) error {
	body := map[string]any{"weekIndex": weekIndex, "entries": entries}
	return c.do(ctx, http.MethodPost, "/api/groups/"+url.PathEscape(groupID)+"/feedback", nil, body, nil)
}

// LoadAthletePaces fetches an athlete's pace profile. Returns ErrNotFound
// when none has been recorded.
func (c *Client) LoadAthletePaces(ctx context.Context, groupID, athleteID string) (pace.Profile, error) {
	var profile pace.Profile
	path := "/api/groups/" + url.PathEscape(groupID) + "/athletes/" + url.PathEscape(athleteID) + "/paces"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// do performs one backend call: JSON in, JSON out, CSRF header on writes,
// APIError on non-2xx, ErrNotFound on 404.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote: marshal request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("remote: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.csrfToken != "" {
		req.Header.Set("X-CSRF-Token", c.csrfToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("remote: read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			apiErr.Message = errResp.Error
			if apiErr.Message == "" {
				apiErr.Message = errResp.Message
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("remote: decode response: %w", err)
		}
	}
	return nil
}

func athleteQuery(athleteID string) url.Values {
	if athleteID == "" {
		return nil
	}
	return url.Values{"athlete": {athleteID}}
}
