// Package itemkey builds and parses the stable string keys that address a
// (scene, source) pair.
//
// A key is the percent-encoded scene name and the percent-encoded source name
// joined by Separator. Both components are escaped as URI path segments, so
// neither can contain an unescaped Separator and the first Separator in a key
// always splits it.
package itemkey

import (
	"fmt"
	"net/url"
	"strings"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/models"
)

// Separator joins the two escaped components of a key.
const Separator = "|"

// Key addresses one scene item.
type Key = string

// Encode returns the key for sourceName within sceneName.
func Encode(sceneName, sourceName string) Key {
	return url.PathEscape(sceneName) + Separator + url.PathEscape(sourceName)
}

// EncodeRecord returns the key for a record.
func EncodeRecord(r models.SceneItemRecord) Key {
	return Encode(r.SceneName, r.SourceName)
}

// Decode parses a key back into its scene item record.
func Decode(key Key) (models.SceneItemRecord, error) {
	scenePart, sourcePart, ok := strings.Cut(key, Separator)
	if !ok {
		return models.SceneItemRecord{}, werrors.MalformedKey(key, fmt.Errorf("missing separator %q", Separator))
	}

	sceneName, err := url.PathUnescape(scenePart)
	if err != nil {
		return models.SceneItemRecord{}, werrors.MalformedKey(key, err)
	}
	sourceName, err := url.PathUnescape(sourcePart)
	if err != nil {
		return models.SceneItemRecord{}, werrors.MalformedKey(key, err)
	}

	return models.SceneItemRecord{SceneName: sceneName, SourceName: sourceName}, nil
}
