package models

import "fmt"

// Scene is one entry of the control service's scene list snapshot.
type Scene struct {
	Name    string   `json:"name"`    // Scene name, unique within the control service
	Sources []Source `json:"sources"` // Sources placed in the scene, in scene order
}

// Source is a visual/audio element placed inside a scene.
type Source struct {
	Name string `json:"name"` // Source name; the same source may appear in several scenes
}

// SceneItemRecord identifies one source within one specific scene.
// Records are immutable once stored in the directory.
type SceneItemRecord struct {
	SceneName  string `json:"sceneName"`
	SourceName string `json:"sourceName"`
}

// Label is the user-facing text for the scene item, "<scene> - <source>".
func (r SceneItemRecord) Label() string {
	return fmt.Sprintf("%s - %s", r.SceneName, r.SourceName)
}

// Matches reports whether a notification for (sceneName, sourceName) concerns this record.
// Both fields must be equal.
func (r SceneItemRecord) Matches(sceneName, sourceName string) bool {
	return r.SceneName == sceneName && r.SourceName == sourceName
}

// VisibilityChange is the payload of a scene item visibility notification.
type VisibilityChange struct {
	SceneName  string `json:"sceneName"`
	SourceName string `json:"sourceName"`
	Visible    *bool  `json:"visible,omitempty"` // Reported by some servers; never trusted, the item is re-resolved
}
