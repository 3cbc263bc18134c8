package account

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSaveAttributeSendsSingleMergePatch(t *testing.T) {
	var requests int
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice")
	if err := client.SaveAttribute(context.Background(), "name", "Bob"); err != nil {
		t.Fatalf("SaveAttribute() error = %v", err)
	}

	if requests != 1 {
		t.Errorf("requests = %d, want exactly 1", requests)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("method = %q, want PATCH", gotMethod)
	}
	if gotPath != "/api/user/v1/accounts/alice" {
		t.Errorf("path = %q, want account record path", gotPath)
	}
	if gotContentType != "application/merge-patch+json" {
		t.Errorf("content type = %q, want merge-patch", gotContentType)
	}
	if len(gotBody) != 1 || gotBody["name"] != "Bob" {
		t.Errorf("body = %v, want single-attribute patch", gotBody)
	}
}

func TestSaveAttributeSurfacesFieldError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"field_errors": {"year_of_birth": {"user_message": "Enter a valid year."}}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice")
	err := client.SaveAttribute(context.Background(), "year_of_birth", "not-a-year")
	if err == nil {
		t.Fatalf("SaveAttribute() error = nil, want validation error")
	}

	reqErr := AsRequestError(err)
	if reqErr == nil {
		t.Fatalf("error %v is not a *RequestError", err)
	}
	if reqErr.Kind != ErrKindValidation {
		t.Errorf("kind = %v, want validation", reqErr.Kind)
	}
	if reqErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", reqErr.StatusCode)
	}
	if reqErr.FieldMessage != "Enter a valid year." {
		t.Errorf("field message = %q, want server user message", reqErr.FieldMessage)
	}
}

func TestSaveAttributeClassifiesAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice")
	err := client.SaveAttribute(context.Background(), "name", "Bob")

	reqErr := AsRequestError(err)
	if reqErr == nil {
		t.Fatalf("error %v is not a *RequestError", err)
	}
	if reqErr.Kind != ErrKindAuth {
		t.Errorf("kind = %v, want auth", reqErr.Kind)
	}
	if StatusCode(err) != http.StatusUnauthorized {
		t.Errorf("StatusCode(err) = %d, want 401", StatusCode(err))
	}
}

func TestSaveAttributeRejectsBadKeyLocally(t *testing.T) {
	// No server: a bad key must never reach the network.
	client := NewClient("http://127.0.0.1:0", "alice")
	err := client.SaveAttribute(context.Background(), "Not A Key", "x")

	reqErr := AsRequestError(err)
	if reqErr == nil || reqErr.Kind != ErrKindValidation {
		t.Fatalf("error = %v, want local validation error", err)
	}
}

func TestLoadAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/v1/accounts/alice" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username": "alice", "name": "Alice", "auth_oauth": true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice")
	model, err := client.LoadAccount(context.Background())
	if err != nil {
		t.Fatalf("LoadAccount() error = %v", err)
	}
	if model.GetString("name") != "Alice" {
		t.Errorf("name = %q, want Alice", model.GetString("name"))
	}
	if !model.GetBool("auth_oauth") {
		t.Errorf("auth_oauth = false, want true")
	}

	unknown := NewClient(srv.URL, "nobody")
	if _, err := unknown.LoadAccount(context.Background()); err == nil {
		t.Errorf("LoadAccount() for unknown user succeeded, want error")
	}
}

func TestSetLocalePostsForm(t *testing.T) {
	var gotPath, gotLanguage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotLanguage = r.PostFormValue("language")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice")
	if err := client.SetLocale(context.Background(), "es-419"); err != nil {
		t.Fatalf("SetLocale() error = %v", err)
	}
	if gotPath != "/i18n/setlang" {
		t.Errorf("path = %q, want locale endpoint", gotPath)
	}
	if gotLanguage != "es-419" {
		t.Errorf("language = %q, want es-419", gotLanguage)
	}

	if err := client.SetLocale(context.Background(), "not a code"); err == nil {
		t.Errorf("SetLocale() accepted malformed code")
	}
}

func TestDisconnectProviderAndResetPassword(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice")
	if err := client.DisconnectProvider(context.Background(), "oauth"); err != nil {
		t.Fatalf("DisconnectProvider() error = %v", err)
	}
	if err := client.ResetPassword(context.Background(), "alice@example.org"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	want := []string{"/auth/disconnect/oauth", "/password/reset"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestTransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, "alice")
	err := client.SaveAttribute(context.Background(), "name", "Bob")

	reqErr := AsRequestError(err)
	if reqErr == nil {
		t.Fatalf("error %v is not a *RequestError", err)
	}
	if reqErr.Kind != ErrKindNetwork {
		t.Errorf("kind = %v, want network", reqErr.Kind)
	}
	if !reqErr.Retryable {
		t.Errorf("Retryable = false, want true for refused connection")
	}
}
