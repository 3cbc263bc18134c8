// Package config provides the settings panel layout and user preferences.
//
// Two kinds of configuration live here:
//
//   - Layout: the tab -> section -> field structure of the settings panel.
//     This is immutable structural configuration: it is parsed once when the
//     panel initializes and never mutated at runtime. A compiled-in default
//     mirrors the platform's account settings page; a YAML file can replace
//     it for platforms with custom attribute sets.
//
//   - Registry: user preferences (platform URL, username, discovery timeout)
//     stored as YAML in the platform-appropriate config directory:
//     Linux: $XDG_CONFIG_HOME/campusctl or $HOME/.config/campusctl,
//     macOS: $HOME/.config/campusctl, Windows: %LOCALAPPDATA%\campusctl.
//
// The registry never stores credentials; authentication is the session's
// business, not this file's.
package config
