package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/campusctl/campusctl/internal/account"
)

// Event is a state-change notification broadcast on the event feed.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// Event types broadcast by the store.
const (
	EventAccountChanged       = "account.changed"
	EventEmailChangeRequested = "account.email_change_requested"
	EventLocaleChanged        = "session.locale_changed"
	EventProviderDisconnected = "auth.provider_disconnected"
	EventPasswordResetSent    = "auth.password_reset_sent"
)

// FieldErrors maps attribute keys to user-facing validation messages.
// A non-empty map renders as the platform's 400 response body.
type FieldErrors map[string]string

// readOnlyAttributes cannot be modified through the account endpoint.
var readOnlyAttributes = map[string]bool{
	"username":    true,
	"date_joined": true,
}

// Store holds the in-memory account state for one learner.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	username string
	attrs    map[string]any
	locale   string
	notify   func(Event)
}

// NewStore creates a store seeded with a realistic account record.
// The notify callback receives one event per state change; nil disables
// notifications.
func NewStore(username string, notify func(Event)) *Store {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Store{
		username: username,
		attrs:    seedAccount(username),
		locale:   "en",
		notify:   notify,
	}
}

// seedAccount returns the initial attribute set for a stub learner.
func seedAccount(username string) map[string]any {
	return map[string]any{
		"username":               username,
		"name":                   "Alex Learner",
		"email":                  username + "@example.org",
		"date_joined":            "2024-09-01",
		"pref_lang":              "en",
		"country":                "us",
		"level_of_education":     "b",
		"gender":                 "",
		"year_of_birth":          "1994",
		"language_proficiencies": []any{map[string]any{"code": "en"}},
		"auth_oauth":             true,
		"auth_saml":              false,
	}
}

// Username returns the learner this store serves.
func (s *Store) Username() string {
	return s.username
}

// Account returns a copy of the account record.
func (s *Store) Account() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.attrs))
	for k, v := range s.attrs {
		out[k] = v
	}
	return out
}

// ApplyMergePatch applies a JSON merge patch to the account record.
// Invalid values are reported per key in FieldErrors and nothing is
// committed; a valid patch commits all keys atomically. A requested email
// change is acknowledged but never committed: the platform only updates the
// address after the confirmation round trip, which the stub does not model.
func (s *Store) ApplyMergePatch(patch map[string]any) FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()

	fieldErrors := make(FieldErrors)
	for key, value := range patch {
		if msg := validateAttribute(key, value); msg != "" {
			fieldErrors[key] = msg
		}
	}
	if len(fieldErrors) > 0 {
		return fieldErrors
	}

	var events []Event
	for key, value := range patch {
		if key == "email" {
			events = append(events, Event{
				Type:    EventEmailChangeRequested,
				Payload: map[string]any{"username": s.username, "pending_email": value},
			})
			continue
		}
		s.attrs[key] = value
		events = append(events, Event{
			Type:    EventAccountChanged,
			Payload: map[string]any{"username": s.username, "key": key, "value": value},
		})
	}

	s.emit(events)
	return nil
}

// SetLocale records the session locale.
func (s *Store) SetLocale(code string) error {
	if err := account.ValidateLanguageCode(code); err != nil {
		return fmt.Errorf("unsupported language code %q", code)
	}

	s.mu.Lock()
	s.locale = code
	s.mu.Unlock()

	s.emit([]Event{{
		Type:    EventLocaleChanged,
		Payload: map[string]any{"username": s.username, "language": code},
	}})
	return nil
}

// Locale returns the current session locale.
func (s *Store) Locale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// DisconnectProvider unlinks a social auth provider. The linked state lives
// in the account record under "auth_<provider>".
func (s *Store) DisconnectProvider(provider string) error {
	key := "auth_" + provider

	s.mu.Lock()
	if _, ok := s.attrs[key]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown provider %q", provider)
	}
	s.attrs[key] = false
	s.mu.Unlock()

	s.emit([]Event{{
		Type:    EventProviderDisconnected,
		Payload: map[string]any{"username": s.username, "provider": provider},
	}})
	return nil
}

// RequestPasswordReset records a password reset request for the address.
// The stub sends no mail; it only validates and broadcasts the event.
func (s *Store) RequestPasswordReset(email string) error {
	if err := account.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email address %q", email)
	}

	s.emit([]Event{{
		Type:    EventPasswordResetSent,
		Payload: map[string]any{"email": email},
	}})
	return nil
}

// emit stamps and delivers events outside the store lock.
func (s *Store) emit(events []Event) {
	now := time.Now().UTC()
	for _, event := range events {
		event.Timestamp = now
		s.notify(event)
	}
}

// validateAttribute returns a user-facing message for an invalid value,
// or "" when the value is acceptable.
func validateAttribute(key string, value any) string {
	if err := account.ValidateAttributeKey(key); err != nil {
		return "This field name is not valid."
	}
	if readOnlyAttributes[key] {
		return "This field is not editable."
	}

	switch key {
	case "name":
		text, ok := value.(string)
		if !ok || text == "" {
			return "Full name cannot be blank."
		}
		if len(text) > 255 {
			return "Full name must be 255 characters or fewer."
		}
	case "email":
		text, ok := value.(string)
		if !ok {
			return "Enter a valid email address."
		}
		if err := account.ValidateEmail(text); err != nil {
			return "Enter a valid email address."
		}
	case "language_proficiencies":
		items, ok := value.([]any)
		if !ok {
			return "Language proficiencies must be a list."
		}
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				return "Language proficiencies must be a list of language codes."
			}
			if _, ok := entry["code"].(string); !ok {
				return "Language proficiencies must be a list of language codes."
			}
		}
	}
	return ""
}
