// Package props defines the per-instance configuration surface the host
// persists for a widget, and the change feed the widget listens to.
package props

import "context"

// SceneItem is the only option the widget recognises: the selected scene item key.
const SceneItem = "sceneItem"

// Change is one delivery on a props subscription. The first delivery of each
// stored prop after subscribing carries Initial=true; later deliveries are
// genuine edits.
type Change struct {
	InstanceID string `json:"instanceId"`
	Name       string `json:"name"`
	Value      string `json:"value"` // "" means null
	Initial    bool   `json:"initial"`
}

// Store persists props per widget instance.
type Store interface {
	// Get returns the stored value, "" when unset.
	Get(ctx context.Context, instanceID, name string) (string, error)
	// Set stores value; "" clears the prop.
	Set(ctx context.Context, instanceID, name, value string) error
	// Subscribe delivers the stored props once with Initial=true and then every
	// change. The channel is closed when ctx is done.
	Subscribe(ctx context.Context, instanceID string) (<-chan Change, error)
}
