package account

// Model is the local mirror of the remote account record: a mapping from
// attribute key to its committed value.
//
// Values are JSON-shaped: string, bool, float64, []any, map[string]any, or
// nil. The settings panel is single-threaded (bubbletea delivers completions
// as messages into one update loop), so Model carries no lock; it must not
// be shared across goroutines.
type Model struct {
	attrs map[string]any
}

// NewModel creates a model from a decoded account record.
// A nil map is treated as empty.
func NewModel(attrs map[string]any) *Model {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return &Model{attrs: attrs}
}

// Get returns the committed value for key, or nil if the attribute is absent.
func (m *Model) Get(key string) any {
	return m.attrs[key]
}

// GetString returns the committed value for key coerced to a string.
// Absent, nil, and non-string values yield "".
func (m *Model) GetString(key string) string {
	s, _ := m.attrs[key].(string)
	return s
}

// GetBool returns the committed value for key coerced to a bool.
func (m *Model) GetBool(key string) bool {
	b, _ := m.attrs[key].(bool)
	return b
}

// GetList returns the committed value for key as a list, or nil when the
// attribute is absent or not list-valued.
func (m *Model) GetList(key string) []any {
	l, _ := m.attrs[key].([]any)
	return l
}

// Set commits a value for key. Callers must only write attributes they own,
// and only after the platform has acknowledged the save.
func (m *Model) Set(key string, value any) {
	m.attrs[key] = value
}

// Keys returns the attribute keys present in the model.
func (m *Model) Keys() []string {
	keys := make([]string, 0, len(m.attrs))
	for k := range m.attrs {
		keys = append(keys, k)
	}
	return keys
}

// Attributes returns the underlying attribute map. The map is shared, not
// copied; treat it as read-only.
func (m *Model) Attributes() map[string]any {
	return m.attrs
}
