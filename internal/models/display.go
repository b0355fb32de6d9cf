package models

// Indicator is the visual mode of the widget's status glyph.
type Indicator string

const (
	IndicatorNoSelection Indicator = "no_selection" // Nothing selected
	IndicatorVisible     Indicator = "visible"      // Selected item is visible
	IndicatorHidden      Indicator = "hidden"       // Selected item is hidden
	IndicatorUnknown     Indicator = "unknown"      // Not resolved yet, unresolvable, or resolution failed
)

// NoSourceLabel is shown whenever there is nothing valid to display.
const NoSourceLabel = "No Source Selected!"

// DisplayState is one complete render of the widget. Every render replaces
// the previous state entirely.
type DisplayState struct {
	Label     string    `json:"label"`
	Indicator Indicator `json:"indicator"`
}

// Neutral reports whether the indicator carries no visibility information.
func (s DisplayState) Neutral() bool {
	return s.Indicator != IndicatorVisible && s.Indicator != IndicatorHidden
}

// InitialDisplayState is the state before any resolution has completed.
func InitialDisplayState() DisplayState {
	return DisplayState{Label: NoSourceLabel, Indicator: IndicatorUnknown}
}
