package telemetry

import (
	"testing"
)

// captureEmitter records emitted events for assertions.
type captureEmitter struct {
	events []Event
}

func (e *captureEmitter) Emit(event Event) {
	e.events = append(e.events, event)
}

func TestContainingElement(t *testing.T) {
	page := NewRegion("page", RoleNone)
	nav := page.NewChild("course-nav", RoleCourseNav)
	navItem := nav.NewChild("nav-item", RoleNone)
	unit := page.NewChild("unit-7", RoleContentUnit)
	unitLink := unit.NewChild("unit-link", RoleNone)
	unitInsideNav := nav.NewChild("unit-9", RoleContentUnit)
	orphan := page.NewChild("footer", RoleNone)

	tests := []struct {
		name   string
		region *Region
		want   string
	}{
		{"inside content unit", unitLink, "unit-7"},
		{"region is itself a content unit", unit, "unit-7"},
		{"inside navigation but no content unit", navItem, "course-nav"},
		{"content unit wins over enclosing navigation", unitInsideNav, "unit-9"},
		{"no structural ancestor", orphan, ""},
		{"nil region", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainingElement(tt.region); got != tt.want {
				t.Errorf("ContainingElement() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinkClickedPayload(t *testing.T) {
	page := NewRegion("page", RoleNone)
	nav := page.NewChild("course-nav", RoleCourseNav)
	anchor := nav.NewChild("anchor", RoleNone)

	emitter := &captureEmitter{}
	tracker := NewClickTracker(func() string { return "https://learn.example.org/settings" }, emitter)

	tracker.LinkClicked(anchor, "https://learn.example.org/courses/cs101")

	if len(emitter.events) != 1 {
		t.Fatalf("events = %d, want 1", len(emitter.events))
	}
	event := emitter.events[0]
	if event.Name != LinkClickedEvent {
		t.Errorf("name = %q, want %q", event.Name, LinkClickedEvent)
	}
	if event.Payload["current_url"] != "https://learn.example.org/settings" {
		t.Errorf("current_url = %v", event.Payload["current_url"])
	}
	if event.Payload["target_url"] != "https://learn.example.org/courses/cs101" {
		t.Errorf("target_url = %v", event.Payload["target_url"])
	}
	// A correctly nested navigation fixture must resolve the region, never
	// leave the element undefined.
	if event.Payload["containing_element"] != "course-nav" {
		t.Errorf("containing_element = %v, want course-nav", event.Payload["containing_element"])
	}
}
