// Package panel implements the interactive account settings panel.
//
// The panel is a Bubble Tea program: a tab bar, the active tab's sections,
// and one row per field. Rows expand into inline editors (a text input for
// free-text kinds, an option cursor for dropdown kinds); there are no modal
// dialogs. Saves run as background commands and resolve back into the owning
// field through its save token, so a completion that arrives after the
// editor moved on is dropped silently.
//
// The tab/section/field structure comes from a config.Layout and is
// immutable once built. Field lifecycle rules (one in-flight save, commit on
// acknowledgment, message handling) live in the field package; the panel
// only translates key presses into field operations and renders snapshots.
package panel
