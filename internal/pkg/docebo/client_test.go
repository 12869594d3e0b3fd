package docebo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(Config{
		BaseURL:      srv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "api-user",
		Password:     "api-pass",
	})
	return client, srv
}

func TestAuthenticate(t *testing.T) {
	var gotDomain, gotGrant string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotDomain = r.Header.Get("X-Domain")
		gotGrant = r.PostFormValue("grant_type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600,"token_type":"Bearer"}`))
	}))

	if err := client.Authenticate(context.Background(), "acme.docebosaas.com"); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if gotDomain != "acme.docebosaas.com" {
		t.Fatalf("X-Domain = %q", gotDomain)
	}
	if gotGrant != "password" {
		t.Fatalf("grant_type = %q", gotGrant)
	}
}

func TestAuthenticateEmptyToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"","expires_in":3600}`))
	}))

	if err := client.Authenticate(context.Background(), "acme"); err == nil {
		t.Fatalf("expected error for empty access_token")
	}
}

func TestGetUserDetails(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
		case "/manage/v1/user/7":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				t.Errorf("missing bearer token")
			}
			w.Write([]byte(`{"data":{"user_data":{"user_id":"7","first_name":"Jane","last_name":"Doe","email":"jane@example.com","username":"jdoe","valid":"1"}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	user, err := client.GetUserDetails(context.Background(), 7, "acme")
	if err != nil {
		t.Fatalf("GetUserDetails returned error: %v", err)
	}
	if user == nil {
		t.Fatalf("expected user")
	}
	if user.ID != 7 || user.Email != "jane@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.FullName() != "Jane Doe" {
		t.Fatalf("full name = %q", user.FullName())
	}
	if !user.Active {
		t.Fatalf("expected active user")
	}
}

func TestGetUserDetailsSplitsCombinedName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
			return
		}
		w.Write([]byte(`{"data":{"id":9,"name":"Maria de la Cruz","email":"maria@example.com"}}`))
	}))

	user, err := client.GetUserDetails(context.Background(), 9, "acme")
	if err != nil {
		t.Fatalf("GetUserDetails returned error: %v", err)
	}
	if user.FirstName != "Maria" || user.LastName != "de la Cruz" {
		t.Fatalf("name split = %q / %q", user.FirstName, user.LastName)
	}
}

func TestGetUserDetailsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	user, err := client.GetUserDetails(context.Background(), 404, "acme")
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestGetRetriesOnceOn401(t *testing.T) {
	var tokenCalls, userCalls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			n := atomic.AddInt32(&tokenCalls, 1)
			w.Write([]byte(`{"access_token":"tok-` + string(rune('0'+n)) + `","expires_in":3600}`))
		case "/manage/v1/user/7":
			if atomic.AddInt32(&userCalls, 1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"data":{"user_id":7,"first_name":"Jane","email":"jane@example.com"}}`))
		}
	}))

	user, err := client.GetUserDetails(context.Background(), 7, "acme")
	if err != nil {
		t.Fatalf("GetUserDetails returned error: %v", err)
	}
	if user == nil || user.Email != "jane@example.com" {
		t.Fatalf("unexpected user after retry: %+v", user)
	}
	if atomic.LoadInt32(&tokenCalls) != 2 {
		t.Fatalf("token calls = %d, want re-authentication after 401", tokenCalls)
	}
	if atomic.LoadInt32(&userCalls) != 2 {
		t.Fatalf("user calls = %d, want exactly one retry", userCalls)
	}
}

func TestGetUserDetailsAlternative(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
		case "/manage/v1/users":
			if r.URL.Query().Get("search_text") != "7" {
				t.Errorf("search_text = %q", r.URL.Query().Get("search_text"))
			}
			w.Write([]byte(`{"data":{"items":[{"user_id":"8","email":"other@example.com"},{"user_id":"7","first_name":"Jane","email":"jane@example.com"}]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	user, err := client.GetUserDetailsAlternative(context.Background(), 7, "acme")
	if err != nil {
		t.Fatalf("GetUserDetailsAlternative returned error: %v", err)
	}
	if user == nil || user.ID != 7 || user.Email != "jane@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestGetCourseDetails(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
		case "/learn/v1/courses/55":
			w.Write([]byte(`{"data":{"id":55,"name":"Go Fundamentals","code":"GO-101","description":"An introduction"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	course, err := client.GetCourseDetails(context.Background(), 55, "acme")
	if err != nil {
		t.Fatalf("GetCourseDetails returned error: %v", err)
	}
	if course == nil || course.Name != "Go Fundamentals" || course.ID != 55 {
		t.Fatalf("unexpected course: %+v", course)
	}
}

func TestFullNameFallbacks(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{user: User{FirstName: "Jane", LastName: "Doe"}, want: "Jane Doe"},
		{user: User{FirstName: "Jane"}, want: "Jane"},
		{user: User{Username: "jdoe"}, want: "jdoe"},
		{user: User{ID: 7}, want: "User 7"},
	}

	for _, tt := range tests {
		if got := tt.user.FullName(); got != tt.want {
			t.Fatalf("FullName(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}
