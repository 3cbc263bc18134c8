package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/campusctl/campusctl/internal/logging"
)

const accountsPrefix = "/api/user/v1/accounts/"

// Handler builds the stub platform's HTTP routes over the given store and
// event hub.
func Handler(store *Store, hub *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(accountsPrefix, handleAccount(store))
	mux.HandleFunc("/i18n/setlang", handleSetLang(store))
	mux.HandleFunc("/auth/disconnect/", handleDisconnect(store))
	mux.HandleFunc("/password/reset", handlePasswordReset(store))
	mux.Handle("/ws/events", hub)
	return logRequests(mux)
}

// logRequests wraps a handler with request/response logging.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logging.LogHTTPResponse(r.RemoteAddr, recorder.status, r.URL.Path)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleAccount serves the account record: GET returns the full record,
// PATCH applies a JSON merge patch. Only the seeded learner exists.
func handleAccount(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimPrefix(r.URL.Path, accountsPrefix)
		if username != store.Username() {
			writeJSONError(w, http.StatusNotFound, "account not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, store.Account())

		case http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/merge-patch+json") {
				writeJSONError(w, http.StatusUnsupportedMediaType, "expected application/merge-patch+json")
				return
			}

			var patch map[string]any
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeJSONError(w, http.StatusBadRequest, "malformed merge patch")
				return
			}

			if fieldErrors := store.ApplyMergePatch(patch); len(fieldErrors) > 0 {
				writeFieldErrors(w, fieldErrors)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.Header().Set("Allow", "GET, PATCH")
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// handleSetLang switches the session locale from a form-encoded POST.
func handleSetLang(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "malformed form body")
			return
		}
		if err := store.SetLocale(r.PostFormValue("language")); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleDisconnect unlinks a social auth provider named in the path.
func handleDisconnect(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		provider := strings.TrimPrefix(r.URL.Path, "/auth/disconnect/")
		if provider == "" || strings.Contains(provider, "/") {
			writeJSONError(w, http.StatusNotFound, "unknown provider")
			return
		}
		if err := store.DisconnectProvider(provider); err != nil {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePasswordReset records a password reset request for the posted email.
func handlePasswordReset(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "malformed form body")
			return
		}
		if err := store.RequestPasswordReset(r.PostFormValue("email")); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("Failed to encode response body", zap.Error(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"developer_message": message})
}

// writeFieldErrors renders validation failures in the platform's 400 shape:
//
//	{"field_errors": {"name": {"user_message": "..."}}}
func writeFieldErrors(w http.ResponseWriter, fieldErrors FieldErrors) {
	body := map[string]map[string]map[string]string{"field_errors": {}}
	for key, message := range fieldErrors {
		body["field_errors"][key] = map[string]string{"user_message": message}
	}
	writeJSON(w, http.StatusBadRequest, body)
}
