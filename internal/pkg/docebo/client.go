package docebo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/certbridge/certbridge/internal/pkg/env"
)

const defaultAPIBaseURL = "https://doceboapi.docebosaas.com"

// Config carries the Docebo API connection settings. It is threaded into
// the client explicitly instead of being read from the environment deep
// inside request handling.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// ConfigFromEnv builds a Config from environment-style configuration.
func ConfigFromEnv() Config {
	return Config{
		BaseURL:      strings.TrimRight(env.GetEnv("DOCEBO_API_URL", defaultAPIBaseURL), "/"),
		ClientID:     strings.TrimSpace(env.GetEnv("DOCEBO_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("DOCEBO_CLIENT_SECRET", "")),
		Username:     strings.TrimSpace(env.GetEnv("DOCEBO_API_USERNAME", "")),
		Password:     env.GetEnv("DOCEBO_API_PASSWORD", ""),
	}
}

// Client talks to the Docebo REST API using a password-grant bearer token.
// The token is cached with its expiry and shared across calls; callers on
// different goroutines are safe, the cache is guarded by a mutex.
type Client struct {
	cfg        Config
	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Docebo client from an explicit configuration.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBaseURL
	}
	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientFromEnv creates a Docebo client from environment configuration.
func NewClientFromEnv() *Client {
	return NewClient(ConfigFromEnv())
}

// User is the normalized Docebo user profile used by the pipeline.
type User struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Username  string
	Active    bool
}

// FullName joins the name parts with sensible fallbacks so a certificate
// always carries a displayable recipient name.
func (u *User) FullName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{u.FirstName, u.LastName} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if strings.TrimSpace(u.Username) != "" {
		return strings.TrimSpace(u.Username)
	}
	return fmt.Sprintf("User %d", u.ID)
}

// Course is the normalized Docebo course profile used by the pipeline.
type Course struct {
	ID          int64
	Name        string
	Code        string
	Description string
	Language    string
	Status      string
	CourseType  string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Authenticate exchanges the configured credentials for a bearer token and
// caches it with its expiry.
func (c *Client) Authenticate(ctx context.Context, domain string) error {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return errors.New("DOCEBO_CLIENT_ID/DOCEBO_CLIENT_SECRET are not configured")
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "password")
	form.Set("scope", "api")
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Domain", domain)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("docebo token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("docebo authentication failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("docebo token response malformed: %w", err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return errors.New("docebo token exchange returned empty access_token")
	}

	c.mu.Lock()
	c.accessToken = out.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	c.mu.Unlock()
	return nil
}

func (c *Client) ensureValidToken(ctx context.Context, domain string) (string, error) {
	c.mu.Lock()
	token := c.accessToken
	valid := token != "" && time.Now().Before(c.tokenExpiry)
	c.mu.Unlock()
	if valid {
		return token, nil
	}
	if err := c.Authenticate(ctx, domain); err != nil {
		return "", err
	}
	c.mu.Lock()
	token = c.accessToken
	c.mu.Unlock()
	return token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// get performs an authenticated GET. On a 401 the cached token is dropped
// and the call is retried exactly once with a fresh token.
func (c *Client) get(ctx context.Context, domain, path string, query url.Values) (int, []byte, error) {
	status, body, err := c.getOnce(ctx, domain, path, query)
	if err != nil {
		return 0, nil, err
	}
	if status == http.StatusUnauthorized {
		c.invalidateToken()
		return c.getOnce(ctx, domain, path, query)
	}
	return status, body, nil
}

func (c *Client) getOnce(ctx context.Context, domain, path string, query url.Values) (int, []byte, error) {
	token, err := c.ensureValidToken(ctx, domain)
	if err != nil {
		return 0, nil, err
	}

	u, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return 0, nil, err
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Domain", domain)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("docebo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	return resp.StatusCode, body, nil
}

// GetUserDetails fetches a user profile by id. Unknown users return
// (nil, nil); callers treat nil as a hard stop, not as skip-and-continue.
func (c *Client) GetUserDetails(ctx context.Context, userID int64, domain string) (*User, error) {
	status, body, err := c.get(ctx, domain, fmt.Sprintf("/manage/v1/user/%d", userID), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("docebo user request failed: status=%d body=%s", status, string(body))
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("docebo user response malformed: %w", err)
	}

	// Responses nest the profile under data and sometimes under user_data.
	doc := nestedObject(raw, "data")
	if inner := nestedObject(doc, "user_data"); len(inner) > 0 {
		doc = inner
	}
	if len(doc) == 0 {
		return nil, nil
	}
	return userFromDocument(doc, userID), nil
}

// GetUserDetailsAlternative looks a user up through the list endpoint. It
// is the secondary strategy used when the primary profile carries no email.
func (c *Client) GetUserDetailsAlternative(ctx context.Context, userID int64, domain string) (*User, error) {
	query := url.Values{}
	query.Set("search_text", strconv.FormatInt(userID, 10))
	query.Set("page_size", "1")

	status, body, err := c.get(ctx, domain, "/manage/v1/users", query)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("docebo users request failed: status=%d body=%s", status, string(body))
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("docebo users response malformed: %w", err)
	}

	items, _ := nestedObject(raw, "data")["items"].([]any)
	for _, item := range items {
		doc, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if intField(doc, "id", "user_id") == userID {
			return userFromDocument(doc, userID), nil
		}
	}
	return nil, nil
}

// GetCourseDetails fetches a course profile by id. Unknown courses return
// (nil, nil).
func (c *Client) GetCourseDetails(ctx context.Context, courseID int64, domain string) (*Course, error) {
	status, body, err := c.get(ctx, domain, fmt.Sprintf("/learn/v1/courses/%d", courseID), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("docebo course request failed: status=%d body=%s", status, string(body))
	}

	var raw struct {
		Data struct {
			ID          json.Number `json:"id"`
			Name        string      `json:"name"`
			Code        string      `json:"code"`
			Description string      `json:"description"`
			Language    string      `json:"language"`
			Status      string      `json:"status"`
			CourseType  string      `json:"course_type"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("docebo course response malformed: %w", err)
	}
	if raw.Data.Name == "" && raw.Data.ID.String() == "" {
		return nil, nil
	}

	id, _ := raw.Data.ID.Int64()
	if id == 0 {
		id = courseID
	}
	return &Course{
		ID:          id,
		Name:        raw.Data.Name,
		Code:        raw.Data.Code,
		Description: raw.Data.Description,
		Language:    raw.Data.Language,
		Status:      raw.Data.Status,
		CourseType:  raw.Data.CourseType,
	}, nil
}

// ListCourses pages through the course catalog for the admin proxy.
func (c *Client) ListCourses(ctx context.Context, domain string, page, pageSize int) ([]Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	status, body, err := c.get(ctx, domain, "/learn/v1/courses", query)
	if err != nil {
		return nil, 0, err
	}
	if status < 200 || status >= 300 {
		return nil, 0, fmt.Errorf("docebo course list failed: status=%d body=%s", status, string(body))
	}

	var raw struct {
		Data struct {
			Items []struct {
				ID          json.Number `json:"id"`
				Name        string      `json:"name"`
				Code        string      `json:"code"`
				Description string      `json:"description"`
			} `json:"items"`
			TotalCount int64 `json:"total_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, fmt.Errorf("docebo course list malformed: %w", err)
	}

	courses := make([]Course, 0, len(raw.Data.Items))
	for _, item := range raw.Data.Items {
		id, _ := item.ID.Int64()
		courses = append(courses, Course{
			ID:          id,
			Name:        item.Name,
			Code:        item.Code,
			Description: item.Description,
		})
	}
	return courses, raw.Data.TotalCount, nil
}

// TestConnection verifies that the configured credentials can authenticate.
func (c *Client) TestConnection(ctx context.Context, domain string) error {
	return c.Authenticate(ctx, domain)
}

func userFromDocument(doc map[string]any, fallbackID int64) *User {
	id := intField(doc, "user_id", "id")
	if id == 0 {
		id = fallbackID
	}

	first := stringField(doc, "first_name", "firstname")
	last := stringField(doc, "last_name", "lastname")
	if first == "" && last == "" {
		// Some tenants only expose a single combined name field.
		if name := stringField(doc, "name"); name != "" {
			parts := strings.Fields(name)
			first = parts[0]
			if len(parts) > 1 {
				last = strings.Join(parts[1:], " ")
			}
		}
	}

	active := true
	if v, ok := doc["valid"]; ok {
		active = fmt.Sprintf("%v", v) == "1"
	} else if v, ok := doc["active"].(bool); ok {
		active = v
	}

	return &User{
		ID:        id,
		Email:     stringField(doc, "email", "mail", "user_email"),
		FirstName: first,
		LastName:  last,
		Username:  stringField(doc, "username", "user_name", "userid"),
		Active:    active,
	}
}

func nestedObject(doc map[string]any, key string) map[string]any {
	if doc == nil {
		return nil
	}
	if inner, ok := doc[key].(map[string]any); ok {
		return inner
	}
	return doc
}

func stringField(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := doc[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func intField(doc map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case float64:
			return int64(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}
