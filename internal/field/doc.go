// Package field implements the editing state machine shared by every field
// on the settings panel.
//
// A field moves through a fixed lifecycle:
//
//	Viewing -> Editing -> Saving -> Success or Error -> Viewing
//
// Entering the saving state produces exactly one outbound persist call,
// described by a Save value. The caller runs the call (typically inside a
// bubbletea command) and feeds the outcome back through Resolve together
// with the Save's token. A token that no longer matches the field's current
// save is dropped silently, which makes late completions for torn-down
// views harmless.
//
// Per-kind behavior (validation rule, persist call, commit rule, message
// templates) is supplied by a Behavior value; the state machine itself is
// identical for every kind. Link-style fields (password reset, social auth)
// have no editing state: Activate moves them straight from viewing to
// saving, or hands back a redirect URL when the action is a navigation
// transfer rather than a save.
package field
