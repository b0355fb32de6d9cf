package widget

import "github.com/Vasu1712/sceneitem-widget/internal/props"

// selectionFeed turns the props change stream into selection deltas. Initial
// deliveries only seed the current value; a non-initial change is delivered
// when it differs from the value seen last.
type selectionFeed struct {
	current string
}

func newSelectionFeed(seed string) *selectionFeed {
	return &selectionFeed{current: seed}
}

// accept reports whether change is a genuine selection change to deliver.
func (f *selectionFeed) accept(change props.Change) (string, bool) {
	if change.Name != props.SceneItem {
		return "", false
	}
	if change.Initial {
		f.current = change.Value
		return "", false
	}
	if change.Value == f.current {
		return "", false
	}
	f.current = change.Value
	return change.Value, true
}
