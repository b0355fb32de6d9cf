package obs

import (
	"encoding/json"
	"fmt"
)

// Request types used by the widget.
const (
	RequestGetAuthRequired        = "GetAuthRequired"
	RequestAuthenticate           = "Authenticate"
	RequestGetSceneList           = "GetSceneList"
	RequestGetSceneItemProperties = "GetSceneItemProperties"
)

// Event types used by the widget.
const (
	EventSceneItemVisibilityChanged = "SceneItemVisibilityChanged"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// envelope holds the routing fields shared by responses and events.
type envelope struct {
	MessageID  string `json:"message-id"`
	UpdateType string `json:"update-type"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

type authRequiredResponse struct {
	AuthRequired bool   `json:"authRequired"`
	Challenge    string `json:"challenge"`
	Salt         string `json:"salt"`
}

type sceneListResponse struct {
	CurrentScene string `json:"current-scene"`
	Scenes       []struct {
		Name    string `json:"name"`
		Sources []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"sources"`
	} `json:"scenes"`
}

type sceneItemPropertiesResponse struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

type visibilityChangedEvent struct {
	SceneName   string `json:"scene-name"`
	ItemName    string `json:"item-name"`
	ItemVisible *bool  `json:"item-visible"`
}

// StatusError is a request the control service answered with status "error".
type StatusError struct {
	RequestType string
	Message     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.RequestType, e.Message)
}

func encodeRequest(requestType, messageID string, args map[string]interface{}) ([]byte, error) {
	payload := make(map[string]interface{}, len(args)+2)
	for k, v := range args {
		payload[k] = v
	}
	payload["request-type"] = requestType
	payload["message-id"] = messageID
	return json.Marshal(payload)
}
