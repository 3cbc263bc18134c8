// Package ui provides shared terminal output helpers for the campusctl CLI.
//
// The interactive settings panel lives in internal/panel; this package
// covers the "run once and exit" commands (show, set, scan, serve) that
// print styled results rather than entering a Bubble Tea program. It holds
// the shared Lipgloss palette and the success/failure result boxes.
//
// Logging is controlled via the CAMPUSCTL_LOG_LEVEL environment variable.
// When unset, zap is silent so curated output stays clean.
package ui
