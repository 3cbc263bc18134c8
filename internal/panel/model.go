package panel

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/campusctl/campusctl/internal/account"
	"github.com/campusctl/campusctl/internal/config"
	"github.com/campusctl/campusctl/internal/field"
	"github.com/campusctl/campusctl/internal/logging"
	"github.com/campusctl/campusctl/internal/telemetry"
)

// Platform is what the panel needs from the remote side: the account read
// plus the per-field persistence calls. *account.Client satisfies it.
type Platform interface {
	field.Persister
	LoadAccount(ctx context.Context) (*account.Model, error)
}

// Messages for async operations
type accountLoadedMsg struct {
	model *account.Model
	err   error
}

type saveDoneMsg struct {
	key   string
	token uint64
	err   error
}

// keyMap defines key bindings for the settings panel
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Enter   key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Up, k.Down, k.Enter, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab},
		{k.Enter, k.Cancel, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit/apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the settings panel's Bubble Tea model.
type Model struct {
	platform Platform
	layout   *config.Layout
	tracker  *telemetry.ClickTracker
	region   *telemetry.Region

	// Built after the account loads
	tabs    []Tab
	account *account.Model

	// Navigation
	activeTab int
	cursor    int

	// Load state
	loading bool
	loadErr error

	// Inline editor state
	editing      bool
	editor       textinput.Model
	optionCursor int

	// RedirectURL is set when a social connect transfers navigation out of
	// the panel; the program quits and the caller hands the URL over.
	RedirectURL string

	Spinner spinner.Model
	Help    help.Model
	Keys    keyMap
	Width   int
	Height  int
}

// New creates a settings panel over the given platform and layout.
// The tracker may be nil to disable click telemetry.
func New(platform Platform, layout *config.Layout, tracker *telemetry.ClickTracker) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	editor := textinput.New()
	editor.CharLimit = 255
	editor.Width = 40

	return Model{
		platform: platform,
		layout:   layout,
		tracker:  tracker,
		region:   telemetry.NewRegion("account-settings", telemetry.RoleNone),
		loading:  true,
		editor:   editor,
		Spinner:  s,
		Help:     help.New(),
		Keys:     newKeyMap(),
	}
}

// Init starts the account load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadAccountCmd(m.platform), m.Spinner.Tick)
}

// loadAccountCmd fetches the account record in the background.
func loadAccountCmd(p Platform) tea.Cmd {
	return func() tea.Msg {
		model, err := p.LoadAccount(context.Background())
		return accountLoadedMsg{model: model, err: err}
	}
}

// saveCmd runs one field save in the background. The returned message
// carries the save token so stale completions can be dropped.
func saveCmd(p Platform, save *field.Save) tea.Cmd {
	return func() tea.Msg {
		err := save.Run(context.Background(), p)
		return saveDoneMsg{key: save.Key, token: save.Token, err: err}
	}
}

// ActiveTab returns the name of the currently selected tab, or "" before
// the panel has loaded.
func (m Model) ActiveTab() string {
	if len(m.tabs) == 0 {
		return ""
	}
	return m.tabs[m.activeTab].Name
}

// SelectTab switches to the named tab. Selecting the already-active tab is
// a no-op; the report value says whether a switch happened.
func (m *Model) SelectTab(name string) bool {
	for i, tab := range m.tabs {
		if tab.Name != name {
			continue
		}
		if i == m.activeTab {
			return false
		}
		m.cancelEditor()
		m.activeTab = i
		m.cursor = 0
		return true
	}
	return false
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case accountLoadedMsg:
		return m.handleAccountLoaded(msg)

	case saveDoneMsg:
		// Route the completion to the owning field. Resolve drops stale
		// tokens itself, so a completion for a torn-down save is harmless.
		if f := m.findField(msg.key); f != nil {
			f.Resolve(msg.token, msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}
		if m.loadErr != nil {
			return m.updateLoadErrorScreen(msg)
		}
		if m.editing {
			return m.updateEditor(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

// handleAccountLoaded builds the tabs from the layout once the record is in.
func (m Model) handleAccountLoaded(msg accountLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.loadErr = msg.err
		logging.Error("Failed to load account", zap.Error(msg.err))
		return m, nil
	}

	m.loadErr = nil
	m.account = msg.model

	tabs, err := Build(m.layout, m.account)
	if err != nil {
		m.loadErr = err
		return m, nil
	}
	m.tabs = tabs
	m.activeTab = 0
	m.cursor = 0
	return m, nil
}

// updateLoadErrorScreen handles input on the panel-wide load failure screen.
func (m Model) updateLoadErrorScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.loading = true
		m.loadErr = nil
		return m, tea.Batch(loadAccountCmd(m.platform), m.Spinner.Tick)
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

// updateBrowsing handles navigation between tabs and fields.
func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.NextTab):
		if len(m.tabs) > 1 {
			m.SelectTab(m.tabs[(m.activeTab+1)%len(m.tabs)].Name)
		}

	case key.Matches(msg, m.Keys.PrevTab):
		if len(m.tabs) > 1 {
			m.SelectTab(m.tabs[(m.activeTab+len(m.tabs)-1)%len(m.tabs)].Name)
		}

	case key.Matches(msg, m.Keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.Keys.Down):
		if m.cursor < m.currentTab().FieldCount()-1 {
			m.cursor++
		}

	case key.Matches(msg, m.Keys.Enter):
		return m.handleEnter()
	}

	return m, nil
}

// handleEnter begins an edit or activates the focused field.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	f := m.focusedField()
	if f == nil {
		return m, nil
	}

	if f.Activatable() {
		return m.activateField(f)
	}
	if !f.Editable() {
		return m, nil
	}

	if err := f.BeginEdit(); err != nil {
		// Save in flight; leave the row as is.
		return m, nil
	}

	m.editing = true
	switch {
	case len(f.Options()) > 0:
		m.optionCursor = optionIndex(f.Options(), f.Pending())
	default:
		m.editor.SetValue(f.Pending())
		m.editor.CursorEnd()
		return m, m.editor.Focus()
	}
	return m, nil
}

// activateField handles link-style clicks: password reset, social
// disconnect, or a navigation transfer to the provider's authorize URL.
func (m Model) activateField(f *field.Field) (tea.Model, tea.Cmd) {
	act, err := f.Activate()
	if err != nil {
		return m, nil
	}

	if act.RedirectURL != "" {
		m.emitClick(f, act.RedirectURL)
		m.RedirectURL = act.RedirectURL
		return m, tea.Quit
	}

	m.emitClick(f, "")
	return m, tea.Batch(saveCmd(m.platform, act.Save), m.Spinner.Tick)
}

// updateEditor handles input while a field's inline editor is open.
func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.focusedField()
	if f == nil || f.State() != field.StateEditing {
		m.editing = false
		return m, nil
	}

	if len(f.Options()) > 0 {
		return m.updateOptionEditor(msg, f)
	}
	return m.updateTextEditor(msg, f)
}

// updateOptionEditor moves the option cursor and applies the selection.
func (m Model) updateOptionEditor(msg tea.KeyMsg, f *field.Field) (tea.Model, tea.Cmd) {
	options := f.Options()

	switch msg.String() {
	case "esc":
		f.Cancel()
		m.editing = false

	case "up", "k":
		if m.optionCursor > 0 {
			m.optionCursor--
		}

	case "down", "j":
		if m.optionCursor < len(options)-1 {
			m.optionCursor++
		}

	case "enter":
		f.SetPending(options[m.optionCursor].Code)
		return m.submit(f)
	}

	return m, nil
}

// updateTextEditor routes keystrokes into the text input.
func (m Model) updateTextEditor(msg tea.KeyMsg, f *field.Field) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		f.Cancel()
		m.editing = false
		m.editor.Blur()
		return m, nil

	case "enter":
		f.SetPending(m.editor.Value())
		m.editor.Blur()
		return m.submit(f)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	f.SetPending(m.editor.Value())
	return m, cmd
}

// submit closes the editor and issues the save. A local validation failure
// already moved the field to its error state and produced no request.
func (m Model) submit(f *field.Field) (tea.Model, tea.Cmd) {
	m.editing = false

	save, err := f.Save()
	if err != nil {
		logging.Debug("Field save rejected locally",
			zap.String("key", f.Key()),
			zap.Error(err),
		)
		return m, nil
	}
	return m, tea.Batch(saveCmd(m.platform, save), m.Spinner.Tick)
}

// cancelEditor abandons any open inline editor.
func (m *Model) cancelEditor() {
	if !m.editing {
		return
	}
	if f := m.focusedField(); f != nil && f.State() == field.StateEditing {
		f.Cancel()
	}
	m.editor.Blur()
	m.editing = false
}

// emitClick reports a link activation to the telemetry tracker.
func (m Model) emitClick(f *field.Field, targetURL string) {
	if m.tracker == nil {
		return
	}
	m.tracker.LinkClicked(m.region.NewChild(f.Key(), telemetry.RoleNone), targetURL)
}

func (m Model) currentTab() Tab {
	if len(m.tabs) == 0 {
		return Tab{}
	}
	return m.tabs[m.activeTab]
}

func (m Model) focusedField() *field.Field {
	return m.currentTab().FieldAt(m.cursor)
}

// findField locates a field by key across all tabs.
func (m Model) findField(key string) *field.Field {
	for _, tab := range m.tabs {
		for _, section := range tab.Sections {
			for _, f := range section.Fields {
				if f.Key() == key {
					return f
				}
			}
		}
	}
	return nil
}

// optionIndex returns the cursor position of a code in the option set.
func optionIndex(options []field.Option, code string) int {
	for i, opt := range options {
		if opt.Code == code {
			return i
		}
	}
	return 0
}

// View renders the panel
func (m Model) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Loading account settings...\n", m.Spinner.View())
	}
	if m.loadErr != nil {
		return m.viewLoadError()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Account Settings"))
	b.WriteString("\n")
	b.WriteString(m.renderTabBar())
	b.WriteString("\n")

	fieldIndex := 0
	for _, section := range m.currentTab().Sections {
		b.WriteString(sectionTitleStyle.Render(section.Title))
		b.WriteString("\n")
		for _, f := range section.Fields {
			b.WriteString(m.renderFieldRow(f, fieldIndex == m.cursor))
			fieldIndex++
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.Help.View(m.Keys)))
	return b.String()
}

// viewLoadError renders the panel-wide load failure screen. Field state is
// untouched by a load failure; there simply are no fields to show.
func (m Model) viewLoadError() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(errorScreenStyle.Render(fmt.Sprintf(
		"✗ Could not load your account settings\n\n%v", m.loadErr)))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("r retry • q quit"))
	return b.String()
}

// renderTabBar renders the navigation labels; exactly one carries the
// active style.
func (m Model) renderTabBar() string {
	labels := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			labels = append(labels, activeTabStyle.Render(tab.Label))
		} else {
			labels = append(labels, inactiveTabStyle.Render(tab.Label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, labels...)
}

// renderFieldRow renders one field: marker, title, value or inline editor,
// and the message line when one is set.
func (m Model) renderFieldRow(f *field.Field, selected bool) string {
	snap := f.Snapshot()

	marker := noMarker
	titleStyleFor := fieldTitleStyle
	if selected {
		marker = cursorMarker
		titleStyleFor = selectedFieldTitleStyle
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString(titleStyleFor.Render(snap.Title))

	switch {
	case selected && m.editing && snap.State == field.StateEditing && len(snap.Options) > 0:
		b.WriteString("\n")
		b.WriteString(m.renderOptionList(snap.Options))
	case selected && m.editing && snap.State == field.StateEditing:
		b.WriteString(m.editor.View())
	case snap.State == field.StateSaving:
		b.WriteString(m.Spinner.View())
		b.WriteString(" ")
		b.WriteString(fieldValueStyle.Render(snap.Display))
	default:
		b.WriteString(fieldValueStyle.Render(snap.Display))
	}
	b.WriteString("\n")

	if snap.Message != nil {
		b.WriteString("    ")
		b.WriteString(renderMessage(snap.Message))
		b.WriteString("\n")
	}
	if selected && !m.editing && snap.Help != "" {
		b.WriteString("    ")
		b.WriteString(fieldHelpStyle.Render(snap.Help))
		b.WriteString("\n")
	}

	return b.String()
}

// renderOptionList renders the dropdown editor's choices.
func (m Model) renderOptionList(options []field.Option) string {
	var b strings.Builder
	for i, opt := range options {
		label := opt.Label
		if label == "" {
			label = "(none)"
		}
		if i == m.optionCursor {
			b.WriteString(selectedOptionStyle.Render("→ " + label))
		} else {
			b.WriteString(optionStyle.Render(label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage styles the field's transient status line.
func renderMessage(msg *field.Message) string {
	switch msg.Kind {
	case field.MessageSuccess:
		return successMessageStyle.Render("✓ " + msg.Text)
	case field.MessageError:
		return errorMessageStyle.Render("✗ " + msg.Text)
	case field.MessageInProgress:
		return progressMessageStyle.Render(msg.Text)
	default:
		return msg.Text
	}
}

// Run starts the panel program and blocks until it exits. When the learner
// followed a social connect link, the authorize URL is printed so the flow
// can continue in a browser.
func Run(platform Platform, layout *config.Layout, tracker *telemetry.ClickTracker) error {
	program := tea.NewProgram(New(platform, layout, tracker), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("settings panel failed: %w", err)
	}

	if model, ok := final.(Model); ok && model.RedirectURL != "" {
		fmt.Printf("Continue connecting your account in a browser:\n  %s\n", model.RedirectURL)
	}
	return nil
}
