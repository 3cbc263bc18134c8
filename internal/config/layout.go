package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field kinds understood by the panel. These must stay in sync with the
// behaviors the field package provides.
var knownFieldKinds = map[string]bool{
	"readonly":               true,
	"text":                   true,
	"dropdown":               true,
	"email":                  true,
	"language_preference":    true,
	"language_proficiencies": true,
	"link":                   true,
	"social_auth":            true,
}

// Layout is the full tab/section/field structure of the settings panel.
type Layout struct {
	Tabs []TabConfig `yaml:"tabs"`
}

// TabConfig is one top-level tab. Name is the stable identifier used for
// tab selection; Label is what the navigation renders.
type TabConfig struct {
	Name     string          `yaml:"name"`
	Label    string          `yaml:"label"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig is a titled group of fields within a tab.
type SectionConfig struct {
	Title  string        `yaml:"title"`
	Fields []FieldConfig `yaml:"fields"`
}

// OptionConfig is one enumerated choice for dropdown-style fields.
type OptionConfig struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// FieldConfig describes one field of the panel.
type FieldConfig struct {
	Key      string         `yaml:"key"`
	Kind     string         `yaml:"kind"`
	Title    string         `yaml:"title"`
	Help     string         `yaml:"help,omitempty"`
	Required bool           `yaml:"required,omitempty"`
	Options  []OptionConfig `yaml:"options,omitempty"`

	// EmailAttribute names the account attribute holding the address a
	// link field posts (password reset). Defaults to "email".
	EmailAttribute string `yaml:"email_attribute,omitempty"`

	// Provider and ConnectURL configure social_auth fields.
	Provider   string `yaml:"provider,omitempty"`
	ConnectURL string `yaml:"connect_url,omitempty"`
}

// ParseLayout decodes and validates a YAML layout document.
func ParseLayout(data []byte) (*Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &layout, nil
}

// LoadLayoutFile reads a layout from disk.
func LoadLayoutFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return ParseLayout(data)
}

// Validate checks the structural invariants: at least one tab, unique tab
// names, unique field keys, and known field kinds.
func (l *Layout) Validate() error {
	if len(l.Tabs) == 0 {
		return fmt.Errorf("layout has no tabs")
	}

	tabNames := make(map[string]bool)
	fieldKeys := make(map[string]bool)

	for _, tab := range l.Tabs {
		if tab.Name == "" {
			return fmt.Errorf("tab with label %q has no name", tab.Label)
		}
		if tabNames[tab.Name] {
			return fmt.Errorf("duplicate tab name %q", tab.Name)
		}
		tabNames[tab.Name] = true

		for _, section := range tab.Sections {
			for _, f := range section.Fields {
				if f.Key == "" {
					return fmt.Errorf("field in section %q has no key", section.Title)
				}
				if fieldKeys[f.Key] {
					return fmt.Errorf("duplicate field key %q", f.Key)
				}
				fieldKeys[f.Key] = true

				if !knownFieldKinds[f.Kind] {
					return fmt.Errorf("field %q has unknown kind %q", f.Key, f.Kind)
				}
				if f.Kind == "social_auth" && f.Provider == "" {
					return fmt.Errorf("social_auth field %q has no provider", f.Key)
				}
			}
		}
	}
	return nil
}

// languageOptions is the default locale choice set. Platforms with more
// translations override this via a layout file.
var languageOptions = []OptionConfig{
	{Code: "en", Label: "English"},
	{Code: "es-419", Label: "Español (Latinoamérica)"},
	{Code: "fr", Label: "Français"},
	{Code: "pt-br", Label: "Português (Brasil)"},
	{Code: "zh-cn", Label: "中文 (简体)"},
}

// DefaultLayout returns the compiled-in panel structure mirroring the
// platform's account settings page: an About tab with the editable account
// attributes and a Connected Accounts tab with the social auth links.
func DefaultLayout(platformURL string) *Layout {
	return &Layout{
		Tabs: []TabConfig{
			{
				Name:  "aboutTabSections",
				Label: "About",
				Sections: []SectionConfig{
					{
						Title: "Basic Account Information",
						Fields: []FieldConfig{
							{Key: "username", Kind: "readonly", Title: "Username",
								Help: "The name that identifies you on the platform. You cannot change your username."},
							{Key: "name", Kind: "text", Title: "Full Name", Required: true,
								Help: "The name that appears on your certificates."},
							{Key: "email", Kind: "email", Title: "Email Address", Required: true,
								Help: "You receive messages from courses at this address."},
							{Key: "password", Kind: "link", Title: "Password", EmailAttribute: "email",
								Help: "Reset your password by email."},
							{Key: "pref_lang", Kind: "language_preference", Title: "Language", Required: true,
								Help: "The language used throughout this site.", Options: languageOptions},
							{Key: "country", Kind: "dropdown", Title: "Country or Region",
								Options: []OptionConfig{
									{Code: "br", Label: "Brazil"},
									{Code: "ca", Label: "Canada"},
									{Code: "fr", Label: "France"},
									{Code: "in", Label: "India"},
									{Code: "us", Label: "United States"},
								}},
						},
					},
					{
						Title: "Additional Information",
						Fields: []FieldConfig{
							{Key: "level_of_education", Kind: "dropdown", Title: "Education Completed",
								Options: []OptionConfig{
									{Code: "p", Label: "Doctorate"},
									{Code: "m", Label: "Master's or professional degree"},
									{Code: "b", Label: "Bachelor's degree"},
									{Code: "hs", Label: "Secondary/high school"},
								}},
							{Key: "gender", Kind: "dropdown", Title: "Gender",
								Options: []OptionConfig{
									{Code: "f", Label: "Female"},
									{Code: "m", Label: "Male"},
									{Code: "o", Label: "Other"},
								}},
							{Key: "year_of_birth", Kind: "dropdown", Title: "Year of Birth",
								Options: birthYearOptions()},
							{Key: "language_proficiencies", Kind: "language_proficiencies", Title: "Preferred Language",
								Help: "The language you speak most comfortably.", Options: languageOptions},
						},
					},
				},
			},
			{
				Name:  "accountsTabSections",
				Label: "Connected Accounts",
				Sections: []SectionConfig{
					{
						Title: "Connected Accounts",
						Fields: []FieldConfig{
							{Key: "auth_oauth", Kind: "social_auth", Title: "Campus ID", Provider: "oauth",
								ConnectURL: platformURL + "/auth/connect/oauth",
								Help:       "Use your Campus ID account to sign in."},
							{Key: "auth_saml", Kind: "social_auth", Title: "Institution Login", Provider: "saml",
								ConnectURL: platformURL + "/auth/connect/saml",
								Help:       "Use your institution's single sign-on."},
						},
					},
				},
			},
		},
	}
}

// birthYearOptions enumerates plausible birth years, newest first.
func birthYearOptions() []OptionConfig {
	const newest, oldest = 2012, 1930
	options := make([]OptionConfig, 0, newest-oldest+1)
	for year := newest; year >= oldest; year-- {
		code := fmt.Sprintf("%d", year)
		options = append(options, OptionConfig{Code: code, Label: code})
	}
	return options
}
