package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campusctl/campusctl/internal/logging"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	// The panel enforces no timeout of its own; this is the only deadline
	// a save ever gets.
	DefaultTimeout = 10 * time.Second

	// accountsPath is the REST path for the account record, relative to the
	// platform base URL. The username is appended.
	accountsPath = "/api/user/v1/accounts/"

	// setLangPath is the locale-switch endpoint. It is separate from the
	// account record: changing the UI language does not modify account
	// attributes.
	setLangPath = "/i18n/setlang"

	// disconnectPathFormat is the social-auth unlink endpoint.
	disconnectPathFormat = "/auth/disconnect/%s"

	// passwordResetPath triggers a password reset email.
	passwordResetPath = "/password/reset"

	mergePatchContentType = "application/merge-patch+json"
)

// Client performs account persistence calls against the platform.
// It is the single collaborator the settings panel uses for writes.
type Client struct {
	// BaseURL is the platform base URL (e.g. "https://learn.example.org")
	BaseURL string

	// Username identifies the account being edited
	Username string

	// HTTPClient is the underlying HTTP client. Its Timeout is the only
	// deadline applied to requests.
	HTTPClient *http.Client
}

// NewClient creates a persistence client for one learner account.
func NewClient(baseURL, username string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Username:   username,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// accountURL returns the account record URL for the client's username.
func (c *Client) accountURL() string {
	return c.BaseURL + accountsPath + url.PathEscape(c.Username)
}

// LoadAccount fetches the full account record. A failure here is fatal for
// the settings panel (there is nothing to render without the record).
func (c *Client) LoadAccount(ctx context.Context) (*Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.accountURL(), nil)
	if err != nil {
		return nil, &RequestError{Kind: ErrKindUnknown, Message: "failed to create account request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, ClassifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("failed to load account for %q", c.Username))
	}

	var attrs map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, NewParseError("malformed account record", err)
	}
	return NewModel(attrs), nil
}

// SaveAttribute persists a single account attribute via JSON merge patch.
// Exactly one request goes on the wire per call.
func (c *Client) SaveAttribute(ctx context.Context, key string, value any) error {
	if err := ValidateAttributeKey(key); err != nil {
		return err
	}

	logging.LogSaveAttempt(c.Username, key)

	body, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return &RequestError{Kind: ErrKindUnknown, Message: "failed to encode attribute", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.accountURL(), bytes.NewReader(body))
	if err != nil {
		return &RequestError{Kind: ErrKindUnknown, Message: "failed to create save request", Err: err}
	}
	req.Header.Set("Content-Type", mergePatchContentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		saveErr := ClassifyTransportError(err)
		logging.LogSaveResult(c.Username, key, saveErr)
		return saveErr
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		logging.LogSaveResult(c.Username, key, nil)
		return nil
	}

	saveErr := NewHTTPError(resp.StatusCode, fmt.Sprintf("failed to save %q", key))
	if resp.StatusCode == http.StatusBadRequest {
		saveErr.FieldMessage = fieldErrorMessage(resp.Body, key)
	}
	logging.LogSaveResult(c.Username, key, saveErr)
	return saveErr
}

// SetLocale switches the UI language via the locale endpoint.
// This is fire-and-forget relative to the account model: the attribute
// mapping is not updated and a failed switch is not rolled back.
func (c *Client) SetLocale(ctx context.Context, code string) error {
	if err := ValidateLanguageCode(code); err != nil {
		return err
	}
	return c.postForm(ctx, setLangPath, url.Values{"language": {code}})
}

// DisconnectProvider unlinks a social auth provider from the account.
func (c *Client) DisconnectProvider(ctx context.Context, provider string) error {
	if provider == "" {
		return &RequestError{Kind: ErrKindValidation, Message: "provider cannot be empty"}
	}
	return c.postForm(ctx, fmt.Sprintf(disconnectPathFormat, url.PathEscape(provider)), url.Values{})
}

// ResetPassword asks the platform to send a password reset message to the
// given address.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return c.postForm(ctx, passwordResetPath, url.Values{"email": {email}})
}

// postForm issues a form-encoded POST and maps the response to the error
// taxonomy. 2xx is success; everything else is a RequestError.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return &RequestError{Kind: ErrKindUnknown, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ClassifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return NewHTTPError(resp.StatusCode, fmt.Sprintf("request to %s failed", path))
}

// fieldErrorMessage extracts the per-field user message from a 400 response
// body of the form:
//
//	{"field_errors": {"name": {"user_message": "..."}}}
//
// Returns "" when the body has a different shape.
func fieldErrorMessage(body io.Reader, key string) string {
	var payload struct {
		FieldErrors map[string]struct {
			UserMessage string `json:"user_message"`
		} `json:"field_errors"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.FieldErrors[key].UserMessage
}
