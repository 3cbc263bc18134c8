package field

import (
	"context"
	"errors"

	"github.com/campusctl/campusctl/internal/account"
)

// State is the position of a field in its edit/save lifecycle.
type State int

const (
	// StateViewing is the rest state: the committed value is displayed.
	StateViewing State = iota
	// StateEditing means a pending value is being composed locally.
	StateEditing
	// StateSaving means exactly one persist call is in flight.
	StateSaving
	// StateSuccess means the last save was acknowledged; the success
	// message stays visible until superseded.
	StateSuccess
	// StateError means the last save failed or was rejected locally.
	StateError
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MessageKind classifies a transient status message.
type MessageKind int

const (
	MessageSuccess MessageKind = iota
	MessageError
	MessageInProgress
)

// Message is the transient status text attached to a field. A field holds
// at most one; a new message always replaces the prior one.
type Message struct {
	Kind MessageKind
	Text string
}

// Persister is the remote collaborator performing account writes.
// *account.Client satisfies it.
type Persister interface {
	SaveAttribute(ctx context.Context, key string, value any) error
	SetLocale(ctx context.Context, code string) error
	DisconnectProvider(ctx context.Context, provider string) error
	ResetPassword(ctx context.Context, email string) error
}

// persistFunc performs the single network call for one save. It is built
// synchronously (while the update loop owns the field) and captures only
// immutable data, so it is safe to run from a background command.
type persistFunc func(ctx context.Context, p Persister) error

// Save describes the single outbound persist call produced by a transition
// into the saving state. Run performs the call; its outcome must be fed
// back through Resolve with the same token.
type Save struct {
	Key   string
	Token uint64
	run   persistFunc
}

// Run performs the persist call.
func (s *Save) Run(ctx context.Context, p Persister) error {
	return s.run(ctx, p)
}

// Activation is the result of activating a link-style field: either a
// single outbound save or a transfer of control to an external URL.
// Exactly one of the two is set.
type Activation struct {
	Save        *Save
	RedirectURL string
}

// Operation errors. These signal caller mistakes or guarded transitions;
// they never appear in the field's message slot.
var (
	// ErrSaveInFlight is returned while a save is outstanding. At most one
	// persist call may be in flight per field.
	ErrSaveInFlight = errors.New("field: save already in flight")
	// ErrNotEditable is returned by BeginEdit on readonly and link fields.
	ErrNotEditable = errors.New("field: not editable")
	// ErrNotActivatable is returned by Activate on non-link fields.
	ErrNotActivatable = errors.New("field: not activatable")
	// ErrNoPendingEdit is returned by Save outside the editing state.
	ErrNoPendingEdit = errors.New("field: no edit in progress")
)

// Field is one editable or actionable account attribute plus its transient
// UI state. The committed value lives in the shared account model; the
// field only writes it after an acknowledged save.
type Field struct {
	key   string
	title string
	help  string

	behavior Behavior
	model    *account.Model

	state   State
	pending string
	message *Message

	// saveSeq increments for every issued save; a resolve carrying an
	// older token is stale and ignored.
	saveSeq uint64
}

// New creates a field bound to one attribute of the shared account model.
func New(key, title, help string, b Behavior, model *account.Model) *Field {
	return &Field{
		key:      key,
		title:    title,
		help:     help,
		behavior: b,
		model:    model,
		state:    StateViewing,
	}
}

// Key returns the attribute key the field owns.
func (f *Field) Key() string { return f.key }

// Title returns the field's display title.
func (f *Field) Title() string { return f.title }

// Help returns the field's help text.
func (f *Field) Help() string { return f.help }

// Kind returns the field's behavioral kind.
func (f *Field) Kind() Kind { return f.behavior.Kind }

// State returns the current lifecycle state.
func (f *Field) State() State { return f.state }

// Message returns the current status message, or nil when there is none.
func (f *Field) Message() *Message { return f.message }

// Pending returns the value being composed. It is meaningful only in the
// editing and saving states.
func (f *Field) Pending() string { return f.pending }

// Editable reports whether the field has an editing state.
func (f *Field) Editable() bool { return f.behavior.editable }

// Activatable reports whether the field responds to Activate.
func (f *Field) Activatable() bool { return f.behavior.activate != nil }

// Options returns the enumerated choices for dropdown-style fields.
func (f *Field) Options() []Option { return f.behavior.Options }

// Model returns the shared account model the field reads from.
func (f *Field) Model() *account.Model { return f.model }

// ModelValue returns the field's committed value as the scalar the edit
// layer works with. List-shaped storage (language proficiencies) is
// unwrapped; an empty selection reads back as "".
func (f *Field) ModelValue() string {
	if f.behavior.valueOf != nil {
		return f.behavior.valueOf(f)
	}
	return f.model.GetString(f.key)
}

// Display returns the committed value formatted for the viewing state
// (option labels for dropdowns, link status for social auth).
func (f *Field) Display() string {
	if f.behavior.display != nil {
		return f.behavior.display(f)
	}
	return f.ModelValue()
}

// BeginEdit captures the committed value into the pending slot and clears
// any prior message. Disallowed while a save is in flight.
func (f *Field) BeginEdit() error {
	if f.state == StateSaving {
		return ErrSaveInFlight
	}
	if !f.behavior.editable {
		return ErrNotEditable
	}
	f.message = nil
	f.pending = f.ModelValue()
	f.state = StateEditing
	return nil
}

// SetPending replaces the value being composed. A no-op outside the
// editing state.
func (f *Field) SetPending(value string) {
	if f.state == StateEditing {
		f.pending = value
	}
}

// Cancel discards the pending value without contacting the persistence
// collaborator. The committed value and message are untouched.
func (f *Field) Cancel() {
	if f.state != StateEditing {
		return
	}
	f.pending = ""
	f.state = StateViewing
}

// Save validates the pending value and, on success, transitions into the
// saving state and returns the single outbound persist call. On local
// validation failure the field transitions directly to the error state
// with an invalid-input message, no request is produced, and the
// validation error is returned for logging.
func (f *Field) Save() (*Save, error) {
	if f.state == StateSaving {
		return nil, ErrSaveInFlight
	}
	if f.state != StateEditing {
		return nil, ErrNoPendingEdit
	}

	pending := f.pending
	if err := f.behavior.validate(f, pending); err != nil {
		f.pending = ""
		f.state = StateError
		f.message = &Message{Kind: MessageError, Text: f.behavior.invalidText()}
		return nil, err
	}

	run := f.behavior.persist(f, pending)
	f.saveSeq++
	f.state = StateSaving
	f.message = &Message{Kind: MessageInProgress, Text: SavingText}
	return &Save{Key: f.key, Token: f.saveSeq, run: run}, nil
}

// Activate triggers a link-style field's click action. It either produces
// a save (password reset, social disconnect) or a redirect URL (social
// connect); a redirect transfers control out of the application and is not
// tracked as a save.
func (f *Field) Activate() (*Activation, error) {
	if f.behavior.activate == nil {
		return nil, ErrNotActivatable
	}
	if f.state == StateSaving {
		return nil, ErrSaveInFlight
	}

	act := f.behavior.activate(f)
	if act.redirect != "" {
		return &Activation{RedirectURL: act.redirect}, nil
	}

	f.saveSeq++
	f.state = StateSaving
	f.message = &Message{Kind: MessageInProgress, Text: act.inProgress}
	return &Activation{Save: &Save{Key: f.key, Token: f.saveSeq, run: act.run}}, nil
}

// Resolve applies the outcome of an in-flight save. Outcomes carrying a
// token that no longer matches (a newer save was issued, or the field's
// view was torn down and rebuilt) are dropped silently.
func (f *Field) Resolve(token uint64, err error) {
	if f.state != StateSaving || token != f.saveSeq {
		return
	}

	pending := f.pending
	f.pending = ""

	if err != nil {
		f.state = StateError
		f.message = &Message{Kind: MessageError, Text: f.behavior.failureText(f, err)}
		return
	}

	if f.behavior.commit != nil {
		f.behavior.commit(f, pending)
	}
	f.state = StateSuccess
	f.message = &Message{Kind: MessageSuccess, Text: f.behavior.successText(f, pending)}
}

// Snapshot is an immutable view of a field for rendering.
type Snapshot struct {
	Key      string
	Title    string
	Help     string
	Kind     Kind
	State    State
	Display  string
	Pending  string
	Message  *Message
	Editable bool
	Options  []Option
}

// Snapshot captures the field's current render inputs.
func (f *Field) Snapshot() Snapshot {
	return Snapshot{
		Key:      f.key,
		Title:    f.title,
		Help:     f.help,
		Kind:     f.behavior.Kind,
		State:    f.state,
		Display:  f.Display(),
		Pending:  f.pending,
		Message:  f.message,
		Editable: f.behavior.editable,
		Options:  f.behavior.Options,
	}
}
