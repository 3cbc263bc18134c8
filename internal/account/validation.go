package account

import (
	"fmt"
	"regexp"
	"strings"
)

// attributeKeyPattern matches valid account attribute keys (e.g. "name",
// "year_of_birth", "language_proficiencies").
var attributeKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// languageCodePattern matches locale codes (e.g. "en", "es-419", "pt-br").
var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-zA-Z0-9]{2,8})*$`)

// ValidateAttributeKey validates an account attribute key.
func ValidateAttributeKey(key string) error {
	if key == "" {
		return &RequestError{Kind: ErrKindValidation, Message: "attribute key cannot be empty"}
	}
	if !attributeKeyPattern.MatchString(key) {
		return &RequestError{
			Kind:    ErrKindValidation,
			Message: fmt.Sprintf("invalid attribute key %q (lowercase letters, digits and underscores only)", key),
		}
	}
	return nil
}

// ValidateLanguageCode validates a UI locale code.
func ValidateLanguageCode(code string) error {
	if code == "" {
		return &RequestError{Kind: ErrKindValidation, Message: "language code cannot be empty"}
	}
	if !languageCodePattern.MatchString(code) {
		return &RequestError{
			Kind:    ErrKindValidation,
			Message: fmt.Sprintf("invalid language code %q", code),
		}
	}
	return nil
}

// ValidateEmail performs the same shallow shape check the settings form does:
// something before and after a single "@", with a dot in the domain part.
// Real validation is the platform's job (it sends a confirmation message).
func ValidateEmail(address string) error {
	at := strings.Index(address, "@")
	if at <= 0 || at != strings.LastIndex(address, "@") {
		return &RequestError{Kind: ErrKindValidation, Message: fmt.Sprintf("invalid email address %q", address)}
	}
	domain := address[at+1:]
	if domain == "" || !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return &RequestError{Kind: ErrKindValidation, Message: fmt.Sprintf("invalid email address %q", address)}
	}
	return nil
}
