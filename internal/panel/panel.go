package panel

import (
	"fmt"

	"github.com/campusctl/campusctl/internal/account"
	"github.com/campusctl/campusctl/internal/config"
	"github.com/campusctl/campusctl/internal/field"
)

// Tab is one top-level tab of the settings panel. The structure is fixed at
// build time; only the fields' lifecycle state changes afterwards.
type Tab struct {
	Name     string
	Label    string
	Sections []Section
}

// Section is a titled group of fields within a tab.
type Section struct {
	Title  string
	Fields []*field.Field
}

// FieldCount returns the number of fields across the tab's sections.
func (t Tab) FieldCount() int {
	n := 0
	for _, section := range t.Sections {
		n += len(section.Fields)
	}
	return n
}

// FieldAt returns the field at the given flat index across the tab's
// sections, or nil when the index is out of range.
func (t Tab) FieldAt(index int) *field.Field {
	for _, section := range t.Sections {
		if index < len(section.Fields) {
			return section.Fields[index]
		}
		index -= len(section.Fields)
	}
	return nil
}

// Build constructs the panel's tabs from a layout, binding every field to
// the shared account model. The layout must already be validated.
func Build(layout *config.Layout, model *account.Model) ([]Tab, error) {
	tabs := make([]Tab, 0, len(layout.Tabs))
	for _, tabCfg := range layout.Tabs {
		tab := Tab{Name: tabCfg.Name, Label: tabCfg.Label}
		for _, sectionCfg := range tabCfg.Sections {
			section := Section{Title: sectionCfg.Title}
			for _, fieldCfg := range sectionCfg.Fields {
				behavior, err := behaviorFor(fieldCfg)
				if err != nil {
					return nil, err
				}
				section.Fields = append(section.Fields,
					field.New(fieldCfg.Key, fieldCfg.Title, fieldCfg.Help, behavior, model))
			}
			tab.Sections = append(tab.Sections, section)
		}
		tabs = append(tabs, tab)
	}
	return tabs, nil
}

// behaviorFor maps a layout field definition to its behavior.
func behaviorFor(cfg config.FieldConfig) (field.Behavior, error) {
	switch cfg.Kind {
	case "readonly":
		return field.Readonly(), nil
	case "text":
		return field.Text(cfg.Required), nil
	case "dropdown":
		return field.Dropdown(options(cfg), cfg.Required), nil
	case "email":
		return field.Email(), nil
	case "language_preference":
		return field.LanguagePreference(options(cfg)), nil
	case "language_proficiencies":
		return field.LanguageProficiencies(options(cfg)), nil
	case "link":
		return field.PasswordResetLink(cfg.EmailAttribute), nil
	case "social_auth":
		return field.SocialAuth(cfg.Provider, cfg.ConnectURL), nil
	default:
		return field.Behavior{}, fmt.Errorf("field %q has unknown kind %q", cfg.Key, cfg.Kind)
	}
}

func options(cfg config.FieldConfig) []field.Option {
	opts := make([]field.Option, 0, len(cfg.Options))
	for _, o := range cfg.Options {
		opts = append(opts, field.Option{Code: o.Code, Label: o.Label})
	}
	return opts
}
