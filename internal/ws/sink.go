package ws

import (
	"encoding/json"

	"github.com/Vasu1712/sceneitem-widget/internal/models"
)

// Frame is what dashboards receive for every render.
type Frame struct {
	Type       string              `json:"type"`
	InstanceID string              `json:"instanceId"`
	Display    models.DisplayState `json:"display"`
}

const FrameTypeDisplay = "display"

// Sink broadcasts a widget's renders to its dashboards.
type Sink struct {
	hub        *Hub
	instanceID string
}

func NewSink(hub *Hub, instanceID string) *Sink {
	return &Sink{hub: hub, instanceID: instanceID}
}

func (s *Sink) Render(state models.DisplayState) {
	data, err := json.Marshal(Frame{Type: FrameTypeDisplay, InstanceID: s.instanceID, Display: state})
	if err != nil {
		s.hub.logger.WithError(err).Error("Failed to encode display frame")
		return
	}
	s.hub.Broadcast(s.instanceID, data)
}
