// Package account holds the learner account model and the HTTP client used
// to persist account changes to the platform.
//
// The Model is a key/value mapping mirroring the remote account record. It
// is shared by every field on the settings panel: any field may read it, but
// a field writes only its own attribute, and only after the platform has
// acknowledged the save.
//
// The Client speaks four endpoints:
//
//   - GET/PATCH /api/user/v1/accounts/{username} - read and merge-patch the
//     account record (one attribute per save)
//   - POST /i18n/setlang - switch the UI locale (distinct from the account
//     record; a locale save does not touch the attribute mapping)
//   - POST /auth/disconnect/{provider} - unlink a social auth provider
//   - POST /password/reset - trigger a password reset email
//
// Failures are reported as *RequestError with a classified kind and, for
// HTTP 400 responses carrying field_errors, the server's per-field user
// message.
package account
