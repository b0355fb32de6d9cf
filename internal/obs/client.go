package obs

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/models"
)

// Client exposes the control service operations the widget consumes.
type Client struct {
	session *Session
	logger  *logrus.Entry
}

// NewClient creates a Client on top of a shared session.
func NewClient(session *Session) *Client {
	return &Client{
		session: session,
		logger:  logging.NewLogger("obs-client"),
	}
}

// ListScenes returns the full scene list snapshot.
func (c *Client) ListScenes(ctx context.Context) ([]models.Scene, error) {
	var resp sceneListResponse
	if err := c.session.Call(ctx, RequestGetSceneList, nil, &resp); err != nil {
		if statusErr, ok := err.(*StatusError); ok {
			return nil, werrors.Transport(RequestGetSceneList, statusErr)
		}
		return nil, err
	}

	scenes := make([]models.Scene, 0, len(resp.Scenes))
	for _, s := range resp.Scenes {
		scene := models.Scene{Name: s.Name, Sources: make([]models.Source, 0, len(s.Sources))}
		for _, src := range s.Sources {
			scene.Sources = append(scene.Sources, models.Source{Name: src.Name})
		}
		scenes = append(scenes, scene)
	}
	return scenes, nil
}

// GetVisibility returns whether sourceName is visible in sceneName.
func (c *Client) GetVisibility(ctx context.Context, sceneName, sourceName string) (bool, error) {
	args := map[string]interface{}{
		"scene-name": sceneName,
		"item":       sourceName,
	}

	var resp sceneItemPropertiesResponse
	if err := c.session.Call(ctx, RequestGetSceneItemProperties, args, &resp); err != nil {
		if statusErr, ok := err.(*StatusError); ok {
			if isMissingItem(statusErr.Message) {
				return false, werrors.SourceNotFound(sceneName, sourceName, statusErr.Message)
			}
			return false, werrors.Transport(RequestGetSceneItemProperties, statusErr)
		}
		return false, err
	}
	return resp.Visible, nil
}

// SubscribeVisibility registers fn for scene item visibility notifications
// and returns the function that unregisters it.
func (c *Client) SubscribeVisibility(fn func(models.VisibilityChange)) func() {
	return c.session.Hub().Register(EventSceneItemVisibilityChanged, func(data json.RawMessage) {
		var event visibilityChangedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.WithError(err).Debug("Ignoring malformed visibility event")
			return
		}
		fn(models.VisibilityChange{
			SceneName:  event.SceneName,
			SourceName: event.ItemName,
			Visible:    event.ItemVisible,
		})
	})
}

// isMissingItem recognises the server's "no such scene/item" replies.
func isMissingItem(message string) bool {
	msg := strings.ToLower(message)
	return strings.Contains(msg, "doesn't exist") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "not found")
}
