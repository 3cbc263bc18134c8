package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *Store, *[]Event) {
	t.Helper()

	var events []Event
	store := NewStore("alice", func(e Event) { events = append(events, e) })
	hub := NewHub()
	ts := httptest.NewServer(Handler(store, hub))
	t.Cleanup(func() {
		ts.Close()
		hub.Close()
	})
	return ts, store, &events
}

func patchAccount(t *testing.T, ts *httptest.Server, username, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPatch, ts.URL+accountsPrefix+username, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/merge-patch+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getAccount(t *testing.T, ts *httptest.Server, username string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Get(ts.URL + accountsPrefix + username)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var attrs map[string]any
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
			t.Fatalf("decode account: %v", err)
		}
	}
	return resp.StatusCode, attrs
}

func TestGetAccountReturnsSeededRecord(t *testing.T) {
	ts, _, _ := newTestServer(t)

	status, attrs := getAccount(t, ts, "alice")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if attrs["username"] != "alice" {
		t.Errorf("username = %v, want alice", attrs["username"])
	}
	if attrs["email"] != "alice@example.org" {
		t.Errorf("email = %v", attrs["email"])
	}
	if attrs["auth_oauth"] != true {
		t.Errorf("auth_oauth = %v, want true", attrs["auth_oauth"])
	}
}

func TestGetUnknownAccountReturns404(t *testing.T) {
	ts, _, _ := newTestServer(t)

	status, _ := getAccount(t, ts, "mallory")
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
}

func TestPatchCommitsAttribute(t *testing.T) {
	ts, _, events := newTestServer(t)

	resp := patchAccount(t, ts, "alice", `{"name": "Alex Q. Learner"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	_, attrs := getAccount(t, ts, "alice")
	if attrs["name"] != "Alex Q. Learner" {
		t.Errorf("name = %v, want committed value", attrs["name"])
	}

	if len(*events) != 1 || (*events)[0].Type != EventAccountChanged {
		t.Errorf("events = %+v, want one account.changed", *events)
	}
}

func TestPatchEmailIsAcknowledgedButNotCommitted(t *testing.T) {
	ts, _, events := newTestServer(t)

	resp := patchAccount(t, ts, "alice", `{"email": "new@example.org"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	_, attrs := getAccount(t, ts, "alice")
	if attrs["email"] != "alice@example.org" {
		t.Errorf("email = %v, want original address until confirmation", attrs["email"])
	}

	if len(*events) != 1 || (*events)[0].Type != EventEmailChangeRequested {
		t.Errorf("events = %+v, want one email_change_requested", *events)
	}
}

func TestPatchValidationFailureReturnsFieldErrors(t *testing.T) {
	ts, _, events := newTestServer(t)

	tests := []struct {
		name string
		body string
		key  string
	}{
		{"blank name", `{"name": ""}`, "name"},
		{"malformed email", `{"email": "not-an-address"}`, "email"},
		{"readonly username", `{"username": "other"}`, "username"},
		{"proficiencies not a list", `{"language_proficiencies": "en"}`, "language_proficiencies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := patchAccount(t, ts, "alice", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}

			var payload struct {
				FieldErrors map[string]struct {
					UserMessage string `json:"user_message"`
				} `json:"field_errors"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if payload.FieldErrors[tt.key].UserMessage == "" {
				t.Errorf("no user_message for %q in %+v", tt.key, payload.FieldErrors)
			}
		})
	}

	if len(*events) != 0 {
		t.Errorf("events = %+v, want none for rejected patches", *events)
	}
}

func TestPatchRejectsWrongContentType(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPatch, ts.URL+accountsPrefix+"alice", strings.NewReader(`{"name": "x"}`))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestSetLang(t *testing.T) {
	ts, store, events := newTestServer(t)

	resp, err := http.PostForm(ts.URL+"/i18n/setlang", url.Values{"language": {"fr"}})
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if store.Locale() != "fr" {
		t.Errorf("locale = %q, want fr", store.Locale())
	}
	if len(*events) != 1 || (*events)[0].Type != EventLocaleChanged {
		t.Errorf("events = %+v, want one locale_changed", *events)
	}

	resp, err = http.PostForm(ts.URL+"/i18n/setlang", url.Values{"language": {"not a code"}})
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad code", resp.StatusCode)
	}
}

func TestDisconnectProviderFlipsLinkedState(t *testing.T) {
	ts, _, events := newTestServer(t)

	resp, err := http.Post(ts.URL+"/auth/disconnect/oauth", "application/x-www-form-urlencoded", nil)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	_, attrs := getAccount(t, ts, "alice")
	if attrs["auth_oauth"] != false {
		t.Errorf("auth_oauth = %v, want false after disconnect", attrs["auth_oauth"])
	}
	if len(*events) != 1 || (*events)[0].Type != EventProviderDisconnected {
		t.Errorf("events = %+v, want one provider_disconnected", *events)
	}

	resp, err = http.Post(ts.URL+"/auth/disconnect/myspace", "application/x-www-form-urlencoded", nil)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown provider", resp.StatusCode)
	}
}

func TestPasswordReset(t *testing.T) {
	ts, _, events := newTestServer(t)

	resp, err := http.PostForm(ts.URL+"/password/reset", url.Values{"email": {"alice@example.org"}})
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if len(*events) != 1 || (*events)[0].Type != EventPasswordResetSent {
		t.Errorf("events = %+v, want one password_reset_sent", *events)
	}

	resp, err = http.PostForm(ts.URL+"/password/reset", url.Values{"email": {"nope"}})
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad address", resp.StatusCode)
	}
}
