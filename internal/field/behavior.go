package field

import (
	"context"
	"fmt"

	"github.com/campusctl/campusctl/internal/account"
)

// Kind tags the behavioral variant of a field.
type Kind string

const (
	KindReadonly              Kind = "readonly"
	KindText                  Kind = "text"
	KindDropdown              Kind = "dropdown"
	KindEmail                 Kind = "email"
	KindLanguagePreference    Kind = "language_preference"
	KindLanguageProficiencies Kind = "language_proficiencies"
	KindLink                  Kind = "link"
	KindSocialAuth            Kind = "social_auth"
)

// Option is one enumerated choice of a dropdown-style field.
type Option struct {
	Code  string
	Label string
}

// behaviorActivation is what a link-style behavior does on click: either a
// persist call or a navigation transfer.
type behaviorActivation struct {
	run        persistFunc
	inProgress string
	redirect   string
}

// Behavior supplies the per-kind pieces of the edit/save cycle: validation
// rule, persist call, commit rule, and message templates. The shared state
// machine in Field is identical across kinds.
type Behavior struct {
	Kind     Kind
	Required bool
	Options  []Option

	editable   bool
	invalidMsg string

	validate    func(f *Field, pending string) error
	persist     func(f *Field, pending string) persistFunc
	commit      func(f *Field, saved string)
	successText func(f *Field, saved string) string
	failureText func(f *Field, err error) string
	valueOf     func(f *Field) string
	display     func(f *Field) string
	activate    func(f *Field) behaviorActivation
}

func (b Behavior) invalidText() string {
	if b.invalidMsg != "" {
		return b.invalidMsg
	}
	return InvalidInputText
}

// defaultFailureText prefers the platform's per-field user message from a
// 400 body, then falls back to the generic text.
func defaultFailureText(_ *Field, err error) string {
	if msg := account.FieldMessage(err); msg != "" {
		return msg
	}
	return GenericFailureText
}

func genericSuccessText(_ *Field, _ string) string {
	return GenericSuccessText
}

// saveAttribute builds the default persist call: one merge-patch of the
// field's own attribute.
func saveAttribute(f *Field, pending string) persistFunc {
	key := f.key
	return func(ctx context.Context, p Persister) error {
		return p.SaveAttribute(ctx, key, pending)
	}
}

// commitScalar is the default commit rule: the acknowledged pending value
// becomes the committed value.
func commitScalar(f *Field, saved string) {
	f.model.Set(f.key, saved)
}

// Readonly returns the behavior for display-only fields. They never leave
// the viewing state.
func Readonly() Behavior {
	return Behavior{Kind: KindReadonly}
}

// Text returns the behavior for free-text fields.
func Text(required bool) Behavior {
	return Behavior{
		Kind:     KindText,
		Required: required,
		editable: true,
		validate: func(_ *Field, pending string) error {
			if required && pending == "" {
				return &account.RequestError{Kind: account.ErrKindValidation, Message: "value is required"}
			}
			return nil
		},
		persist:     saveAttribute,
		commit:      commitScalar,
		successText: genericSuccessText,
		failureText: defaultFailureText,
	}
}

// Dropdown returns the behavior for fields whose value is one of a fixed
// set of option codes.
func Dropdown(options []Option, required bool) Behavior {
	return Behavior{
		Kind:        KindDropdown,
		Required:    required,
		Options:     options,
		editable:    true,
		validate:    optionValidator(options, required),
		persist:     saveAttribute,
		commit:      commitScalar,
		successText: genericSuccessText,
		failureText: defaultFailureText,
		display:     optionLabel,
	}
}

// Email returns the behavior for the account email field. A successful
// save only requests the change: the platform sends a confirmation
// message, and the committed value stays at the old address until the
// learner confirms out-of-band.
func Email() Behavior {
	return Behavior{
		Kind:       KindEmail,
		Required:   true,
		editable:   true,
		invalidMsg: InvalidEmailText,
		validate: func(_ *Field, pending string) error {
			return account.ValidateEmail(pending)
		},
		persist: saveAttribute,
		// No commit: the old address stays until confirmation.
		successText: func(_ *Field, saved string) string {
			return fmt.Sprintf(EmailConfirmationTextFormat, saved)
		},
		failureText: defaultFailureText,
	}
}

// LanguagePreference returns the behavior for the UI language field. It
// posts to the locale-switch endpoint rather than the account record, and
// a failure instructs the learner to log back in; the already-changed UI
// locale is not rolled back.
func LanguagePreference(options []Option) Behavior {
	return Behavior{
		Kind:     KindLanguagePreference,
		Required: true,
		Options:  options,
		editable: true,
		validate: optionValidator(options, true),
		persist: func(_ *Field, pending string) persistFunc {
			return func(ctx context.Context, p Persister) error {
				return p.SetLocale(ctx, pending)
			}
		},
		commit:      commitScalar,
		successText: genericSuccessText,
		failureText: func(_ *Field, _ error) string {
			return ReloginRequiredText
		},
		display: optionLabel,
	}
}

// LanguageProficiencies returns the behavior for the spoken-language field.
// Storage is list-shaped ([{"code": "es"}]) but exactly one proficiency is
// supported: the scalar is wrapped into a single-element list on save and
// the first element is unwrapped on read. An empty selection stores an
// empty list and reads back as "".
func LanguageProficiencies(options []Option) Behavior {
	return Behavior{
		Kind:     KindLanguageProficiencies,
		Options:  options,
		editable: true,
		validate: optionValidator(options, false),
		persist: func(f *Field, pending string) persistFunc {
			key := f.key
			value := wrapProficiencies(pending)
			return func(ctx context.Context, p Persister) error {
				return p.SaveAttribute(ctx, key, value)
			}
		},
		commit: func(f *Field, saved string) {
			f.model.Set(f.key, wrapProficiencies(saved))
		},
		successText: genericSuccessText,
		failureText: defaultFailureText,
		valueOf:     unwrapProficiencies,
		display:     optionLabel,
	}
}

// PasswordResetLink returns the behavior for the password reset action. It
// has no editable value: a single activation posts the account's email to
// the reset endpoint.
func PasswordResetLink(emailAttribute string) Behavior {
	if emailAttribute == "" {
		emailAttribute = "email"
	}
	return Behavior{
		Kind: KindLink,
		activate: func(f *Field) behaviorActivation {
			email := f.model.GetString(emailAttribute)
			return behaviorActivation{
				run: func(ctx context.Context, p Persister) error {
					return p.ResetPassword(ctx, email)
				},
				inProgress: SavingText,
			}
		},
		successText: func(f *Field, _ string) string {
			return fmt.Sprintf(PasswordResetTextFormat, f.model.GetString(emailAttribute))
		},
		failureText: defaultFailureText,
		display: func(_ *Field) string {
			return "Reset Password"
		},
	}
}

// SocialAuth returns the behavior for a social auth link. The field's value
// is the boolean linked/unlinked status stored under its key. Activating a
// linked field disconnects the provider; activating an unlinked one yields
// a navigation transfer to the provider's authorization URL.
func SocialAuth(provider, connectURL string) Behavior {
	return Behavior{
		Kind: KindSocialAuth,
		activate: func(f *Field) behaviorActivation {
			if !f.model.GetBool(f.key) {
				return behaviorActivation{redirect: connectURL}
			}
			return behaviorActivation{
				run: func(ctx context.Context, p Persister) error {
					return p.DisconnectProvider(ctx, provider)
				},
				inProgress: UnlinkingText,
			}
		},
		commit: func(f *Field, _ string) {
			f.model.Set(f.key, false)
		},
		successText: func(_ *Field, _ string) string {
			return UnlinkedText
		},
		failureText: defaultFailureText,
		display: func(f *Field) string {
			if f.model.GetBool(f.key) {
				return "Linked"
			}
			return "Not linked"
		},
	}
}

// optionValidator checks membership in the option set. An empty value is
// allowed for optional fields (it clears the selection).
func optionValidator(options []Option, required bool) func(*Field, string) error {
	return func(_ *Field, pending string) error {
		if pending == "" {
			if required {
				return &account.RequestError{Kind: account.ErrKindValidation, Message: "a selection is required"}
			}
			return nil
		}
		for _, opt := range options {
			if opt.Code == pending {
				return nil
			}
		}
		return &account.RequestError{
			Kind:    account.ErrKindValidation,
			Message: fmt.Sprintf("%q is not an available option", pending),
		}
	}
}

// optionLabel renders the committed code as its option label, falling back
// to the raw code for values the option set no longer contains.
func optionLabel(f *Field) string {
	code := f.ModelValue()
	if code == "" {
		return ""
	}
	for _, opt := range f.behavior.Options {
		if opt.Code == code {
			return opt.Label
		}
	}
	return code
}

// wrapProficiencies converts the edit-layer scalar into the list shape the
// account record stores.
func wrapProficiencies(code string) []any {
	if code == "" {
		return []any{}
	}
	return []any{map[string]any{"code": code}}
}

// unwrapProficiencies reads the first proficiency code out of the
// list-valued attribute. Anything else (absent, empty list, wrong shape)
// reads as "".
func unwrapProficiencies(f *Field) string {
	list := f.model.GetList(f.key)
	if len(list) == 0 {
		return ""
	}
	entry, ok := list[0].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := entry["code"].(string)
	return code
}
