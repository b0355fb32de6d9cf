package widget

import (
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/models"
)

// DisplaySink renders display states. Render is called from the widget's
// loop and must not block for long.
type DisplaySink interface {
	Render(state models.DisplayState)
}

// SinkFunc adapts a function to DisplaySink.
type SinkFunc func(state models.DisplayState)

// Render calls f.
func (f SinkFunc) Render(state models.DisplayState) { f(state) }

// MultiSink renders to every sink in order.
type MultiSink []DisplaySink

// Render forwards state to each sink.
func (m MultiSink) Render(state models.DisplayState) {
	for _, sink := range m {
		sink.Render(state)
	}
}

// LogSink logs every render.
type LogSink struct {
	logger *logrus.Entry
}

// NewLogSink creates a LogSink.
func NewLogSink() *LogSink {
	return &LogSink{logger: logging.NewLogger("display")}
}

// Render logs state.
func (s *LogSink) Render(state models.DisplayState) {
	s.logger.WithFields(logrus.Fields{
		"label":     state.Label,
		"indicator": state.Indicator,
	}).Info("Display updated")
}
