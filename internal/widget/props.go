package widget

import (
	"github.com/Vasu1712/sceneitem-widget/internal/props"
	"github.com/Vasu1712/sceneitem-widget/internal/storage/memory"
)

// OptionIcon is the icon shown next to every scene item option.
const OptionIcon = "widgets"

// PropOption is one choice of a select prop.
type PropOption struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

// PropSchema describes one configurable prop for the host's form renderer.
type PropSchema struct {
	Type     string                `json:"type"`
	Required bool                  `json:"required"`
	Default  *string               `json:"default"`
	Label    string                `json:"label"`
	Help     string                `json:"help"`
	Options  map[string]PropOption `json:"options"`
}

// PrepareProps builds the props form from the directory's current snapshot.
func PrepareProps(dir *memory.Directory) map[string]PropSchema {
	snapshot := dir.Snapshot()

	options := make(map[string]PropOption, len(snapshot))
	for key, record := range snapshot {
		options[key] = PropOption{
			Text: record.Label(),
			Icon: OptionIcon,
		}
	}

	return map[string]PropSchema{
		props.SceneItem: {
			Type:     "select",
			Required: true,
			Default:  nil,
			Label:    "Source",
			Help:     "Select a source to toggle",
			Options:  options,
		},
	}
}
