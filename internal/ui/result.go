package ui

import (
	"fmt"
	"sort"
	"strings"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
)

// Result represents a styled result box printed by run-once commands.
type Result struct {
	Type    ResultType
	Title   string            // e.g., "Attribute saved"
	Details map[string]string // Key-value details to display
	Error   error             // Error (for failure results)
	Hints   []string          // Follow-up hints (for failure results)
	Width   int               // Terminal width
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details map[string]string) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, hints []string) *Result {
	return &Result{
		Type:  ResultFailure,
		Title: title,
		Error: err,
		Hints: hints,
		Width: GetTerminalWidth(),
	}
}

// AddDetail adds a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	if r.Details == nil {
		r.Details = make(map[string]string)
	}
	r.Details[key] = value
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	if r.Type == ResultFailure {
		return r.renderFailure(width)
	}
	return r.renderSuccess(width)
}

func (r *Result) renderSuccess(width int) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, SuccessTitleStyle.Render(fmt.Sprintf("   %s  %s", SuccessMarker, r.Title)))
	lines = append(lines, "")
	lines = append(lines, r.renderDetails()...)
	lines = append(lines, "")

	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

func (r *Result) renderFailure(width int) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, ErrorTitleStyle.Render(fmt.Sprintf("   %s  %s", FailureMarker, r.Title)))
	lines = append(lines, "")

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   "+r.Error.Error()))
		lines = append(lines, "")
	}

	for _, hint := range r.Hints {
		lines = append(lines, HintStyle.Render("   • "+hint))
	}
	if len(r.Hints) > 0 {
		lines = append(lines, "")
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// renderDetails renders detail rows in stable key order.
func (r *Result) renderDetails() []string {
	keys := make([]string, 0, len(r.Details))
	for key := range r.Details {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		keyStyled := ResultKeyStyle.Render(fmt.Sprintf("   %s:", key))
		lines = append(lines, keyStyled+" "+ResultValueStyle.Render(r.Details[key]))
	}
	return lines
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// RenderSuccess renders a success box with the given title and details
func RenderSuccess(title string, details map[string]string) string {
	return NewSuccessResult(title, details).Render()
}

// RenderFailure renders a failure box with the given title, error, and hints
func RenderFailure(title string, err error, hints []string) string {
	return NewFailureResult(title, err, hints).Render()
}
