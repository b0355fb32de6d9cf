package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/itemkey"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/models"
)

// SceneLister fetches the full scene list snapshot from the control service.
type SceneLister interface {
	ListScenes(ctx context.Context) ([]models.Scene, error)
}

// Directory holds every known scene item, keyed by its itemkey.
// The mapping is replaced wholesale on each rebuild and never mutated in place.
type Directory struct {
	mu        sync.RWMutex                      // Guards items and fetchedAt
	items     map[string]models.SceneItemRecord // key -> record of the current snapshot
	fetchedAt time.Time                         // When the current snapshot was built
	logger    *logrus.Entry
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		items:  make(map[string]models.SceneItemRecord),
		logger: logging.NewLogger("directory"),
	}
}

// Rebuild fetches the scene list and swaps in a fresh snapshot.
// On failure the previous snapshot stays in place.
func (d *Directory) Rebuild(ctx context.Context, lister SceneLister) error {
	scenes, err := lister.ListScenes(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("Scene list fetch failed, keeping previous directory")
		return werrors.DirectoryFetchFailed(err)
	}

	items := make(map[string]models.SceneItemRecord)
	for _, scene := range scenes {
		for _, source := range scene.Sources {
			key := itemkey.Encode(scene.Name, source.Name)
			if _, dup := items[key]; dup {
				d.logger.Debugf("Source %q appears more than once in scene %q", source.Name, scene.Name)
				continue
			}
			items[key] = models.SceneItemRecord{
				SceneName:  scene.Name,
				SourceName: source.Name,
			}
		}
	}

	d.mu.Lock()
	d.items = items
	d.fetchedAt = time.Now()
	d.mu.Unlock()

	d.logger.WithFields(logrus.Fields{
		"scenes": len(scenes),
		"items":  len(items),
	}).Info("Scene directory rebuilt")
	return nil
}

// Lookup returns the record stored under key in the current snapshot.
func (d *Directory) Lookup(key string) (models.SceneItemRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	record, ok := d.items[key]
	if !ok {
		return models.SceneItemRecord{}, werrors.NotFound(key)
	}
	return record, nil
}

// Keys returns the keys of the current snapshot in sorted order.
func (d *Directory) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.items))
	for key := range d.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the current key -> record mapping.
func (d *Directory) Snapshot() map[string]models.SceneItemRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]models.SceneItemRecord, len(d.items))
	for key, record := range d.items {
		out[key] = record
	}
	return out
}

// Len returns the number of known scene items.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}

// FetchedAt returns when the current snapshot was built; zero before the first rebuild.
func (d *Directory) FetchedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fetchedAt
}
