package widget

import "github.com/Vasu1712/sceneitem-widget/internal/models"

// State is the selection state machine's position.
type State string

const (
	StateIdle         State = "idle"         // No selection
	StateResolving    State = "resolving"    // Visibility request in flight for the selection
	StateResolved     State = "resolved"     // Visibility known for the selection
	StateUnresolvable State = "unresolvable" // Selection unknown to the directory, or the resolve failed
)

// Status is a point-in-time copy of the widget's state for observers.
type Status struct {
	State     State               `json:"state"`
	Selection string              `json:"selection"`
	Visible   *bool               `json:"visible,omitempty"`
	Display   models.DisplayState `json:"display"`
}
