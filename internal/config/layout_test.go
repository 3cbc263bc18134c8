package config

import (
	"strings"
	"testing"
)

func TestDefaultLayoutIsValid(t *testing.T) {
	layout := DefaultLayout("https://learn.example.org")
	if err := layout.Validate(); err != nil {
		t.Fatalf("DefaultLayout().Validate() = %v", err)
	}

	if len(layout.Tabs) != 2 {
		t.Fatalf("tabs = %d, want 2", len(layout.Tabs))
	}
	if layout.Tabs[0].Name != "aboutTabSections" {
		t.Errorf("first tab = %q, want aboutTabSections", layout.Tabs[0].Name)
	}
	if layout.Tabs[1].Name != "accountsTabSections" {
		t.Errorf("second tab = %q, want accountsTabSections", layout.Tabs[1].Name)
	}

	// Social fields must carry a connect URL on the configured platform.
	for _, section := range layout.Tabs[1].Sections {
		for _, f := range section.Fields {
			if f.Kind != "social_auth" {
				continue
			}
			if !strings.HasPrefix(f.ConnectURL, "https://learn.example.org/") {
				t.Errorf("field %q connect URL = %q, want platform-prefixed", f.Key, f.ConnectURL)
			}
		}
	}
}

func TestParseLayout(t *testing.T) {
	doc := `
tabs:
  - name: mainTab
    label: Main
    sections:
      - title: Profile
        fields:
          - key: name
            kind: text
            title: Full Name
            required: true
          - key: country
            kind: dropdown
            title: Country
            options:
              - code: us
                label: United States
`
	layout, err := ParseLayout([]byte(doc))
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	if len(layout.Tabs) != 1 || len(layout.Tabs[0].Sections) != 1 {
		t.Fatalf("unexpected structure: %+v", layout)
	}
	fields := layout.Tabs[0].Sections[0].Fields
	if len(fields) != 2 || fields[1].Options[0].Code != "us" {
		t.Errorf("fields parsed incorrectly: %+v", fields)
	}
}

func TestLayoutValidation(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr string
	}{
		{
			name:    "no tabs",
			layout:  Layout{},
			wantErr: "no tabs",
		},
		{
			name: "duplicate tab name",
			layout: Layout{Tabs: []TabConfig{
				{Name: "a", Label: "A"},
				{Name: "a", Label: "B"},
			}},
			wantErr: "duplicate tab name",
		},
		{
			name: "unknown kind",
			layout: Layout{Tabs: []TabConfig{
				{Name: "a", Label: "A", Sections: []SectionConfig{
					{Title: "S", Fields: []FieldConfig{{Key: "x", Kind: "slider", Title: "X"}}},
				}},
			}},
			wantErr: "unknown kind",
		},
		{
			name: "duplicate field key",
			layout: Layout{Tabs: []TabConfig{
				{Name: "a", Label: "A", Sections: []SectionConfig{
					{Title: "S", Fields: []FieldConfig{
						{Key: "x", Kind: "text", Title: "X"},
						{Key: "x", Kind: "text", Title: "X2"},
					}},
				}},
			}},
			wantErr: "duplicate field key",
		},
		{
			name: "social auth without provider",
			layout: Layout{Tabs: []TabConfig{
				{Name: "a", Label: "A", Sections: []SectionConfig{
					{Title: "S", Fields: []FieldConfig{{Key: "x", Kind: "social_auth", Title: "X"}}},
				}},
			}},
			wantErr: "no provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if !strings.Contains(configDir, "campusctl") {
		t.Errorf("config dir = %q, should contain campusctl", configDir)
	}

	reg := NewRegistry()
	reg.Platform = Platform{BaseURL: "https://learn.example.org", Username: "alice"}
	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := loadRegistryFromDisk()
	if err != nil {
		t.Fatalf("loadRegistryFromDisk() error = %v", err)
	}
	if loaded.Platform.BaseURL != "https://learn.example.org" || loaded.Platform.Username != "alice" {
		t.Errorf("loaded platform = %+v", loaded.Platform)
	}
	if loaded.Preferences == nil || loaded.Preferences.DiscoverTimeout != 5 {
		t.Errorf("loaded preferences = %+v, want defaults", loaded.Preferences)
	}
}
