// Package file persists widget props in a YAML file and picks up edits made
// to that file by other processes.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/props"
)

type document struct {
	Instances map[string]map[string]string `yaml:"instances"`
}

// PropsStore keeps props in a YAML file watched with fsnotify.
type PropsStore struct {
	path    string
	mu      sync.RWMutex
	values  map[string]map[string]string // instanceID -> prop name -> value
	broker  *props.Broker
	watcher *fsnotify.Watcher
	logger  *logrus.Entry
}

// NewPropsStore loads path (a missing file is an empty store) and starts
// watching its directory. Call Start to process file events.
func NewPropsStore(path string) (*PropsStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve props file: %w", err)
	}

	values, err := readDocument(abs)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors and our own writes replace the file.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &PropsStore{
		path:    abs,
		values:  values,
		broker:  props.NewBroker(),
		watcher: watcher,
		logger:  logging.NewLogger("props-file"),
	}, nil
}

// Start processes file events until ctx is cancelled.
func (s *PropsStore) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			s.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				s.reload()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the watcher and closes every subscription.
func (s *PropsStore) Close() error {
	s.broker.Close()
	return s.watcher.Close()
}

// Get returns the stored value, "" when unset.
func (s *PropsStore) Get(ctx context.Context, instanceID, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[instanceID][name], nil
}

// Set stores value, rewrites the file, and notifies subscribers.
func (s *PropsStore) Set(ctx context.Context, instanceID, name, value string) error {
	s.mu.Lock()
	next := cloneValues(s.values)
	if next[instanceID] == nil {
		next[instanceID] = make(map[string]string)
	}
	previous := next[instanceID][name]
	if value == "" {
		delete(next[instanceID], name)
	} else {
		next[instanceID][name] = value
	}
	if err := writeDocument(s.path, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.values = next
	s.mu.Unlock()

	if previous != value {
		s.broker.Publish(instanceID, name, value)
	}
	return nil
}

// Subscribe delivers the stored props, then every change.
func (s *PropsStore) Subscribe(ctx context.Context, instanceID string) (<-chan props.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	initial := make(map[string]string, len(s.values[instanceID]))
	for name, value := range s.values[instanceID] {
		initial[name] = value
	}
	return s.broker.Subscribe(ctx, instanceID, initial), nil
}

// reload re-reads the file and publishes every prop that differs from memory.
func (s *PropsStore) reload() {
	// A truncated file is a write in progress; the final write raises another event.
	if info, err := os.Stat(s.path); err == nil && info.Size() == 0 {
		return
	}

	next, err := readDocument(s.path)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to reload props file, keeping previous values")
		return
	}

	s.mu.Lock()
	previous := s.values
	s.values = next
	s.mu.Unlock()

	for instanceID, changed := range diff(previous, next) {
		for name, value := range changed {
			s.logger.WithFields(logrus.Fields{
				"instance": instanceID,
				"prop":     name,
			}).Info("Prop changed on disk")
			s.broker.Publish(instanceID, name, value)
		}
	}
}

func readDocument(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read props file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse props file %s: %w", path, err)
	}
	if doc.Instances == nil {
		doc.Instances = make(map[string]map[string]string)
	}
	return doc.Instances, nil
}

func writeDocument(path string, values map[string]map[string]string) error {
	data, err := yaml.Marshal(document{Instances: values})
	if err != nil {
		return fmt.Errorf("encode props file: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write props file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace props file: %w", err)
	}
	return nil
}

// diff returns, per instance, the props whose value differs between a and b.
// Props missing from b are reported with "".
func diff(a, b map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string)
	record := func(instanceID, name, value string) {
		if out[instanceID] == nil {
			out[instanceID] = make(map[string]string)
		}
		out[instanceID][name] = value
	}

	for instanceID, props := range b {
		for name, value := range props {
			if a[instanceID][name] != value {
				record(instanceID, name, value)
			}
		}
	}
	for instanceID, props := range a {
		for name := range props {
			if _, ok := b[instanceID][name]; !ok {
				record(instanceID, name, "")
			}
		}
	}
	return out
}

func cloneValues(values map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(values))
	for instanceID, props := range values {
		inner := make(map[string]string, len(props))
		for name, value := range props {
			inner[name] = value
		}
		out[instanceID] = inner
	}
	return out
}
