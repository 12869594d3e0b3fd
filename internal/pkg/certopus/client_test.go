package certopus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "key-1", BaseURL: srv.URL})
}

func TestGetOrganisationsEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key-1" {
			t.Errorf("missing api key header")
		}
		if r.URL.Path != "/organisations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"org-1","name":"Acme"}]}`))
	}))

	orgs, err := client.GetOrganisations(context.Background())
	if err != nil {
		t.Fatalf("GetOrganisations returned error: %v", err)
	}
	if len(orgs) != 1 || orgs[0].ID != "org-1" {
		t.Fatalf("unexpected organisations: %+v", orgs)
	}
}

func TestGetOrganisationsBareArray(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"org-1","name":"Acme"},{"id":"org-2","name":"Globex"}]`))
	}))

	orgs, err := client.GetOrganisations(context.Background())
	if err != nil {
		t.Fatalf("GetOrganisations returned error: %v", err)
	}
	if len(orgs) != 2 || orgs[1].Name != "Globex" {
		t.Fatalf("unexpected organisations: %+v", orgs)
	}
}

func TestGetOrganisationsWithoutAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.GetOrganisations(context.Background()); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestAPIErrorMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{status: http.StatusBadRequest, want: "invalid credential data: bad field"},
		{status: http.StatusUnauthorized, want: "certopus api authentication failed - check api key"},
		{status: http.StatusNotFound, want: "certopus resource not found - check organisation, event, or category id"},
		{status: http.StatusTooManyRequests, want: "certopus api rate limit exceeded"},
		{status: http.StatusInternalServerError, want: "certopus api error: bad field"},
	}

	for _, tt := range tests {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"message":"bad field"}`))
		}))

		_, err := client.GetOrganisations(context.Background())
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected APIError, got %T", tt.status, err)
		}
		if apiErr.StatusCode != tt.status {
			t.Fatalf("status code = %d, want %d", apiErr.StatusCode, tt.status)
		}
		if err.Error() != tt.want {
			t.Fatalf("status %d: message = %q, want %q", tt.status, err.Error(), tt.want)
		}
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(&APIError{StatusCode: http.StatusTooManyRequests}) {
		t.Fatalf("expected rate-limit detection")
	}
	if IsRateLimited(&APIError{StatusCode: http.StatusBadRequest}) {
		t.Fatalf("400 is not a rate limit")
	}
	if IsRateLimited(errors.New("boom")) {
		t.Fatalf("plain errors are not rate limits")
	}
}

func TestCreateCredential(t *testing.T) {
	var gotPayload map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/certificates" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotPayload); err != nil {
			t.Errorf("request body not json: %v", err)
		}
		w.Write([]byte(`{"id":"cred-1","url":"https://certs.example.com/cred-1"}`))
	}))

	credential, err := client.CreateCredential(context.Background(), CredentialRequest{
		OrganisationID: "org-1",
		EventID:        "evt-1",
		CategoryID:     "cat-1",
		RecipientEmail: "jane@example.com",
		CustomFields:   map[string]string{"{Name}": "Jane Doe"},
		AutoGenerate:   true,
		AutoPublish:    false,
	})
	if err != nil {
		t.Fatalf("CreateCredential returned error: %v", err)
	}
	if credential.ID != "cred-1" || credential.URL != "https://certs.example.com/cred-1" {
		t.Fatalf("unexpected credential: %+v", credential)
	}

	if gotPayload["organisationId"] != "org-1" || gotPayload["eventId"] != "evt-1" || gotPayload["categoryId"] != "cat-1" {
		t.Fatalf("unexpected payload ids: %+v", gotPayload)
	}
	if gotPayload["generate"] != true || gotPayload["publish"] != false {
		t.Fatalf("unexpected generate/publish flags: %+v", gotPayload)
	}
	recipients, ok := gotPayload["recipients"].([]any)
	if !ok || len(recipients) != 1 {
		t.Fatalf("unexpected recipients: %+v", gotPayload["recipients"])
	}
	recipient := recipients[0].(map[string]any)
	if recipient["email"] != "jane@example.com" {
		t.Fatalf("recipient email = %v", recipient["email"])
	}
	data := recipient["data"].(map[string]any)
	if data["{Name}"] != "Jane Doe" {
		t.Fatalf("recipient data = %+v", data)
	}
}

func TestCreateCredentialTolerantResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message_id":"mid-9","share_url":"https://certs.example.com/s/mid-9"}`))
	}))

	credential, err := client.CreateCredential(context.Background(), CredentialRequest{
		OrganisationID: "org-1",
		EventID:        "evt-1",
		RecipientEmail: "jane@example.com",
	})
	if err != nil {
		t.Fatalf("CreateCredential returned error: %v", err)
	}
	if credential.ID != "mid-9" {
		t.Fatalf("id fallback = %q", credential.ID)
	}
	if credential.URL != "https://certs.example.com/s/mid-9" {
		t.Fatalf("url fallback = %q", credential.URL)
	}
	if !strings.Contains(credential.Message, "success") {
		t.Fatalf("default message = %q", credential.Message)
	}
}

func TestCreateCredentialRateLimited(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	}))

	_, err := client.CreateCredential(context.Background(), CredentialRequest{
		OrganisationID: "org-1",
		EventID:        "evt-1",
		RecipientEmail: "jane@example.com",
	})
	if !IsRateLimited(err) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}
}
