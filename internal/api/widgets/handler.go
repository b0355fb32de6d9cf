package widgets

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/itemkey"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/middleware"
	"github.com/Vasu1712/sceneitem-widget/internal/props"
	"github.com/Vasu1712/sceneitem-widget/internal/widget"
	"github.com/Vasu1712/sceneitem-widget/internal/ws"
)

// Handler serves the dashboard API for one mounted widget.
type Handler struct {
	Widget   *widget.Widget
	Props    props.Store
	Hub      *ws.Hub
	Upgrader *websocket.Upgrader

	logger *logrus.Entry
}

func NewHandler(w *widget.Widget, store props.Store, hub *ws.Hub, upgrader *websocket.Upgrader) *Handler {
	return &Handler{
		Widget:   w,
		Props:    store,
		Hub:      hub,
		Upgrader: upgrader,
		logger:   logging.NewLogger("api"),
	}
}

// GetState returns the widget's current state and display.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Widget.Status())
}

// GetProps returns the props form built from the current scene directory.
func (h *Handler) GetProps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Widget.PrepareProps())
}

// SetSelection writes the sceneItem prop. A null or empty sceneItem clears
// the selection.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SceneItem *string `json:"sceneItem"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, werrors.InvalidInput("invalid request body"))
		return
	}

	key := ""
	if req.SceneItem != nil {
		key = *req.SceneItem
	}
	if key != "" {
		if _, err := itemkey.Decode(key); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	if err := h.Props.Set(r.Context(), h.Widget.InstanceID(), props.SceneItem, key); err != nil {
		h.logger.WithError(err).Error("Failed to store selection")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"selection": key,
		"subject":   middleware.Subject(r.Context()),
	}).Info("Selection updated")
	writeJSON(w, http.StatusOK, map[string]interface{}{"sceneItem": req.SceneItem})
}

// Refresh triggers a directory re-fetch followed by re-evaluation.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Widget.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Refresh scheduled"})
}

// ServeWS streams every render of the widget.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.Hub.ServeWS(h.Upgrader, w, r, h.Widget.InstanceID())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]interface{}{
		"code":    string(werrors.GetCode(err)),
		"message": err.Error(),
	}
	writeJSON(w, status, body)
}
