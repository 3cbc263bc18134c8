// Package telemetry builds and emits UI interaction events.
//
// The panel's rendered output is modeled as a tree of regions, each with an
// optional structural role. When a link is activated, the event's
// containing_element is the nearest enclosing content unit ("xblock"); if
// the link sits outside any content unit, the nearest course navigation
// region is used instead, and only when neither exists is the value empty.
//
// The current URL comes from an injected location provider so event
// construction is testable without a real session.
package telemetry

import (
	"go.uber.org/zap"

	"github.com/campusctl/campusctl/internal/logging"
)

// Role is the structural role of a rendered region.
type Role string

const (
	// RoleNone marks plain structural regions.
	RoleNone Role = ""
	// RoleContentUnit marks an xblock content unit.
	RoleContentUnit Role = "xblock"
	// RoleCourseNav marks a course navigation region.
	RoleCourseNav Role = "course-navigation"
)

// LinkClickedEvent is the event name for anchor activations.
const LinkClickedEvent = "campus.ui.link_clicked"

// Region is a node of the rendered region tree.
type Region struct {
	ID     string
	Role   Role
	parent *Region
}

// NewRegion creates a root region.
func NewRegion(id string, role Role) *Region {
	return &Region{ID: id, Role: role}
}

// NewChild creates a region nested inside r.
func (r *Region) NewChild(id string, role Role) *Region {
	return &Region{ID: id, Role: role, parent: r}
}

// nearestAncestor returns the closest enclosing region (including r itself)
// with the given role, or nil.
func (r *Region) nearestAncestor(role Role) *Region {
	for node := r; node != nil; node = node.parent {
		if node.Role == role {
			return node
		}
	}
	return nil
}

// ContainingElement resolves the two-tier ancestor lookup for a link
// activated inside r: content unit first, course navigation as fallback,
// "" when neither encloses the link.
func ContainingElement(r *Region) string {
	if r == nil {
		return ""
	}
	if unit := r.nearestAncestor(RoleContentUnit); unit != nil {
		return unit.ID
	}
	if nav := r.nearestAncestor(RoleCourseNav); nav != nil {
		return nav.ID
	}
	return ""
}

// Event is one telemetry event: a name plus a flat payload.
type Event struct {
	Name    string
	Payload map[string]any
}

// Emitter delivers telemetry events. Transport is the surrounding
// application's concern; the panel only builds events and hands them over.
type Emitter interface {
	Emit(event Event)
}

// LocationProvider supplies the current URL for event payloads.
type LocationProvider func() string

// ClickTracker builds link_clicked events from anchor activations.
type ClickTracker struct {
	location LocationProvider
	emitter  Emitter
}

// NewClickTracker creates a tracker with an injected location provider and
// emitter.
func NewClickTracker(location LocationProvider, emitter Emitter) *ClickTracker {
	return &ClickTracker{location: location, emitter: emitter}
}

// LinkClicked emits an event for a link activated inside the given region.
func (t *ClickTracker) LinkClicked(region *Region, targetURL string) {
	current := ""
	if t.location != nil {
		current = t.location()
	}
	t.emitter.Emit(Event{
		Name: LinkClickedEvent,
		Payload: map[string]any{
			"current_url":        current,
			"target_url":         targetURL,
			"containing_element": ContainingElement(region),
		},
	})
}

// ZapEmitter logs events through the application logger.
type ZapEmitter struct{}

// Emit implements Emitter.
func (ZapEmitter) Emit(event Event) {
	logging.Info("Telemetry event",
		zap.String("name", event.Name),
		zap.Any("payload", event.Payload),
	)
}
