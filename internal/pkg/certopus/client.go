package certopus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/certbridge/certbridge/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.certopus.com/v1"

// Config carries the Certopus API connection settings.
type Config struct {
	APIKey  string
	BaseURL string
}

// ConfigFromEnv builds a Config from environment-style configuration.
func ConfigFromEnv() Config {
	return Config{
		APIKey:  strings.TrimSpace(env.GetEnv("CERTOPUS_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("CERTOPUS_API_URL", defaultAPIBaseURL), "/"),
	}
}

// Client talks to the Certopus credential API with API-key authentication.
type Client struct {
	cfg        Config
	HTTPClient *http.Client
}

// NewClient creates a Certopus client from an explicit configuration.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBaseURL
	}
	return &Client{
		cfg: cfg,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// NewClientFromEnv creates a Certopus client from environment configuration.
func NewClientFromEnv() *Client {
	return NewClient(ConfigFromEnv())
}

// ValidateConfiguration reports whether the client can make calls at all.
func (c *Client) ValidateConfiguration() error {
	if c.cfg.APIKey == "" {
		return errors.New("CERTOPUS_API_KEY is not configured")
	}
	return nil
}

// Organisation is a Certopus organisation visible to the API key.
type Organisation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Event is a certificate event inside an organisation.
type Event struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Category is a certificate category inside an event.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RecipientField describes one placeholder a certificate template accepts.
type RecipientField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Credential is the terminal result of a create-credential call.
type Credential struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	URL      string `json:"url,omitempty"`
	ShareURL string `json:"share_url,omitempty"`
}

// CredentialRequest carries everything needed to mint one certificate.
type CredentialRequest struct {
	OrganisationID string
	EventID        string
	CategoryID     string
	RecipientEmail string
	CustomFields   map[string]string
	AutoGenerate   bool
	AutoPublish    bool
}

// APIError is a non-2xx or malformed answer from the Certopus API, keyed by
// HTTP status so callers can tell auth failures from rate limits.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return fmt.Sprintf("invalid credential data: %s", e.Message)
	case http.StatusUnauthorized:
		return "certopus api authentication failed - check api key"
	case http.StatusNotFound:
		return "certopus resource not found - check organisation, event, or category id"
	case http.StatusTooManyRequests:
		return "certopus api rate limit exceeded"
	default:
		return fmt.Sprintf("certopus api error: %s", e.Message)
	}
}

// IsRateLimited reports whether err is a Certopus rate-limit answer.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

func (c *Client) headers(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
}

func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return nil, err
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.headers(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("certopus request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiMessage(body)}
	}
	return body, nil
}

// decodeList tolerates both {"data":[...]} and bare-array answers.
func decodeList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	body, err := c.getRaw(ctx, path, query)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}
	var bare []T
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("certopus list response malformed: %w", err)
	}
	return bare, nil
}

// GetOrganisations lists the organisations visible to the API key.
func (c *Client) GetOrganisations(ctx context.Context) ([]Organisation, error) {
	if err := c.ValidateConfiguration(); err != nil {
		return nil, err
	}
	return decodeList[Organisation](ctx, c, "/organisations", nil)
}

// GetEvents lists the certificate events of one organisation.
func (c *Client) GetEvents(ctx context.Context, organisationID string) ([]Event, error) {
	if err := c.ValidateConfiguration(); err != nil {
		return nil, err
	}
	return decodeList[Event](ctx, c, "/events/"+url.PathEscape(organisationID), nil)
}

// GetCategories lists the categories of one event.
func (c *Client) GetCategories(ctx context.Context, organisationID, eventID string) ([]Category, error) {
	if err := c.ValidateConfiguration(); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("organisationId", organisationID)
	query.Set("eventId", eventID)
	return decodeList[Category](ctx, c, "/categories", query)
}

// GetRecipientFields lists the template placeholders of one category.
func (c *Client) GetRecipientFields(ctx context.Context, organisationID, eventID, categoryID string) ([]RecipientField, error) {
	if err := c.ValidateConfiguration(); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("organisationId", organisationID)
	query.Set("eventId", eventID)
	query.Set("categoryId", categoryID)
	return decodeList[RecipientField](ctx, c, "/recipient_fields", query)
}

// CreateCredential mints one certificate. The custom-fields map is passed
// verbatim as the recipient data document.
func (c *Client) CreateCredential(ctx context.Context, in CredentialRequest) (*Credential, error) {
	if err := c.ValidateConfiguration(); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"categoryId":     in.CategoryID,
		"organisationId": in.OrganisationID,
		"eventId":        in.EventID,
		"generate":       in.AutoGenerate,
		"publish":        in.AutoPublish,
		"recipients": []map[string]any{
			{
				"email": in.RecipientEmail,
				"data":  in.CustomFields,
			},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/certificates", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	c.headers(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("certopus request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiMessage(body)}
	}

	var raw struct {
		ID        string `json:"id"`
		MessageID string `json:"message_id"`
		Message   string `json:"message"`
		URL       string `json:"url"`
		ShareURL  string `json:"share_url"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "malformed create-credential response"}
	}

	credential := &Credential{
		ID:       raw.ID,
		Message:  raw.Message,
		URL:      raw.URL,
		ShareURL: raw.ShareURL,
	}
	if credential.ID == "" {
		credential.ID = raw.MessageID
	}
	if credential.ID == "" {
		credential.ID = "unknown"
	}
	if credential.Message == "" {
		credential.Message = "Credential created successfully"
	}
	if credential.URL == "" {
		credential.URL = raw.ShareURL
	}
	return credential, nil
}

func apiMessage(body []byte) string {
	var doc struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &doc); err == nil {
		if doc.Message != "" {
			return doc.Message
		}
		if doc.Error != "" {
			return doc.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
