package panel

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/campusctl/campusctl/internal/account"
	"github.com/campusctl/campusctl/internal/config"
	"github.com/campusctl/campusctl/internal/field"
)

// fakePlatform records persistence calls and serves a canned account.
type fakePlatform struct {
	attrs   map[string]any
	loadErr error
	saved   []string
}

func (p *fakePlatform) LoadAccount(context.Context) (*account.Model, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return account.NewModel(p.attrs), nil
}

func (p *fakePlatform) SaveAttribute(_ context.Context, key string, _ any) error {
	p.saved = append(p.saved, key)
	return nil
}

func (p *fakePlatform) SetLocale(context.Context, string) error          { return nil }
func (p *fakePlatform) DisconnectProvider(context.Context, string) error { return nil }
func (p *fakePlatform) ResetPassword(context.Context, string) error      { return nil }

func testAttrs() map[string]any {
	return map[string]any{
		"username":               "alice",
		"name":                   "Alex Learner",
		"email":                  "alice@example.org",
		"pref_lang":              "en",
		"country":                "us",
		"language_proficiencies": []any{map[string]any{"code": "en"}},
		"auth_oauth":             false,
		"auth_saml":              true,
	}
}

// newLoadedModel builds a panel and feeds it a completed account load.
func newLoadedModel(t *testing.T, platform *fakePlatform) Model {
	t.Helper()

	m := New(platform, config.DefaultLayout("https://learn.example.org"), nil)
	model, err := platform.LoadAccount(context.Background())
	if err != nil {
		t.Fatalf("LoadAccount() error = %v", err)
	}
	updated, _ := m.Update(accountLoadedMsg{model: model})
	return updated.(Model)
}

func TestSelectTabIsIdempotent(t *testing.T) {
	m := newLoadedModel(t, &fakePlatform{attrs: testAttrs()})

	if got := m.ActiveTab(); got != "aboutTabSections" {
		t.Fatalf("initial tab = %q, want aboutTabSections", got)
	}

	m.cursor = 2
	if m.SelectTab("aboutTabSections") {
		t.Errorf("SelectTab(active) = true, want no-op")
	}
	if m.cursor != 2 {
		t.Errorf("cursor = %d after no-op selection, want 2", m.cursor)
	}

	if !m.SelectTab("accountsTabSections") {
		t.Fatalf("SelectTab(other) = false, want switch")
	}
	if m.ActiveTab() != "accountsTabSections" {
		t.Errorf("active tab = %q, want accountsTabSections", m.ActiveTab())
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d after switch, want 0", m.cursor)
	}

	if m.SelectTab("noSuchTab") {
		t.Errorf("SelectTab(unknown) = true, want false")
	}
}

func TestSwitchingTabsRendersThatTabsSections(t *testing.T) {
	m := newLoadedModel(t, &fakePlatform{attrs: testAttrs()})

	view := m.View()
	if !strings.Contains(view, "Basic Account Information") {
		t.Errorf("about tab view missing its section title")
	}
	if strings.Contains(view, "Campus ID") {
		t.Errorf("about tab view leaked connected-accounts fields")
	}

	m.SelectTab("accountsTabSections")
	view = m.View()
	if !strings.Contains(view, "Campus ID") {
		t.Errorf("connected-accounts view missing its fields")
	}
	if strings.Contains(view, "Basic Account Information") {
		t.Errorf("connected-accounts view still shows about sections")
	}
}

func TestTabBarMarksExactlyOneActive(t *testing.T) {
	m := newLoadedModel(t, &fakePlatform{attrs: testAttrs()})

	active := 0
	for i := range m.tabs {
		if i == m.activeTab {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("active tab count = %d, want 1", active)
	}

	bar := m.renderTabBar()
	for _, tab := range m.tabs {
		if !strings.Contains(bar, tab.Label) {
			t.Errorf("tab bar missing label %q", tab.Label)
		}
	}
}

func TestBuildMapsLayoutKinds(t *testing.T) {
	model := account.NewModel(testAttrs())
	tabs, err := Build(config.DefaultLayout("https://learn.example.org"), model)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	kinds := map[string]field.Kind{}
	for _, tab := range tabs {
		for _, section := range tab.Sections {
			for _, f := range section.Fields {
				kinds[f.Key()] = f.Kind()
			}
		}
	}

	want := map[string]field.Kind{
		"username":               field.KindReadonly,
		"name":                   field.KindText,
		"email":                  field.KindEmail,
		"password":               field.KindLink,
		"pref_lang":              field.KindLanguagePreference,
		"language_proficiencies": field.KindLanguageProficiencies,
		"auth_oauth":             field.KindSocialAuth,
	}
	for key, kind := range want {
		if kinds[key] != kind {
			t.Errorf("field %q kind = %q, want %q", key, kinds[key], kind)
		}
	}
}

func TestSaveCompletionRoutesToOwningField(t *testing.T) {
	m := newLoadedModel(t, &fakePlatform{attrs: testAttrs()})

	f := m.findField("name")
	if err := f.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit() error = %v", err)
	}
	f.SetPending("Alex Q. Learner")
	save, err := f.Save()
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	updated, _ := m.Update(saveDoneMsg{key: "name", token: save.Token, err: nil})
	m = updated.(Model)

	if f.State() != field.StateSuccess {
		t.Errorf("state = %v, want success", f.State())
	}
	if got := f.ModelValue(); got != "Alex Q. Learner" {
		t.Errorf("committed value = %q", got)
	}
}

func TestStaleCompletionLeavesFieldUntouched(t *testing.T) {
	m := newLoadedModel(t, &fakePlatform{attrs: testAttrs()})

	f := m.findField("name")
	if err := f.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit() error = %v", err)
	}
	f.SetPending("Changed")
	save, err := f.Save()
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	updated, _ := m.Update(saveDoneMsg{key: "name", token: save.Token + 40, err: errors.New("boom")})
	m = updated.(Model)

	if f.State() != field.StateSaving {
		t.Errorf("state = %v, want still saving after stale completion", f.State())
	}
	if f.Message() == nil || f.Message().Kind != field.MessageInProgress {
		t.Errorf("message = %+v, want in-progress preserved", f.Message())
	}
}

func TestLoadFailureShowsRetryScreen(t *testing.T) {
	platform := &fakePlatform{loadErr: errors.New("connection refused")}
	m := New(platform, config.DefaultLayout("https://learn.example.org"), nil)

	updated, _ := m.Update(accountLoadedMsg{err: platform.loadErr})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "Could not load") {
		t.Errorf("load error view = %q, want failure text", view)
	}

	// Retry re-enters loading and issues a command.
	platform.loadErr = nil
	platform.attrs = testAttrs()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(Model)
	if !m.loading {
		t.Errorf("loading = false after retry, want true")
	}
	if cmd == nil {
		t.Errorf("retry produced no command")
	}
}

func TestSocialConnectTransfersNavigation(t *testing.T) {
	m := newLoadedModel(t, &fakePlatform{attrs: testAttrs()})
	m.SelectTab("accountsTabSections")

	// auth_oauth is unlinked in the fixture; activating it must transfer
	// navigation instead of issuing a save.
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if m.RedirectURL != "https://learn.example.org/auth/connect/oauth" {
		t.Errorf("redirect = %q, want authorize URL", m.RedirectURL)
	}
	if cmd == nil {
		t.Fatalf("expected quit command after navigation transfer")
	}
	if f := m.findField("auth_oauth"); f.State() != field.StateViewing {
		t.Errorf("state = %v, want viewing (no save issued)", f.State())
	}
}

func TestEnterOnDropdownOpensOptionEditor(t *testing.T) {
	m := newLoadedModel(t, &fakePlatform{attrs: testAttrs()})

	// Move the cursor to the country dropdown.
	for i := 0; i < m.currentTab().FieldCount(); i++ {
		if m.currentTab().FieldAt(i).Key() == "country" {
			m.cursor = i
			break
		}
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if !m.editing {
		t.Fatalf("editing = false after enter on dropdown")
	}
	f := m.findField("country")
	if f.State() != field.StateEditing {
		t.Fatalf("state = %v, want editing", f.State())
	}
	// Cursor starts on the committed value (us).
	if got := f.Options()[m.optionCursor].Code; got != "us" {
		t.Errorf("option cursor on %q, want us", got)
	}

	// Escape discards the edit.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.editing || f.State() != field.StateViewing {
		t.Errorf("editing = %v state = %v after esc, want viewing", m.editing, f.State())
	}
}
