// Package widget keeps one scene item's visibility display in sync with the
// control service.
//
// A Widget owns its state in a single goroutine (Run). Directory rebuilds and
// visibility resolves run on their own goroutines and post their results
// back to that loop, so selection changes and notifications are handled
// while a round trip is outstanding. Every resolve is tagged with the key it
// was issued for and a sequence number; a result whose tag is no longer the
// latest is dropped.
package widget

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/models"
	"github.com/Vasu1712/sceneitem-widget/internal/props"
	"github.com/Vasu1712/sceneitem-widget/internal/storage/memory"
)

const notificationBuffer = 64

// Resolver reports the current visibility of a scene item.
type Resolver interface {
	Resolve(ctx context.Context, sceneName, sourceName string) (bool, error)
}

// Notifier delivers visibility change notifications until unsubscribed.
type Notifier interface {
	SubscribeVisibility(fn func(models.VisibilityChange)) (unsubscribe func())
}

// Config holds the widget's collaborators.
type Config struct {
	InstanceID string
	Lister     memory.SceneLister
	Resolver   Resolver
	Notifier   Notifier
	Props      props.Store
	Sink       DisplaySink
	Directory  *memory.Directory // optional, a fresh one is created when nil
}

type resolveTag struct {
	key string
	seq uint64
}

type resolveResult struct {
	tag     resolveTag
	record  models.SceneItemRecord
	visible bool
	err     error
}

type rebuildResult struct {
	mount bool
	err   error
}

// Widget is one mounted scene item visibility tile.
type Widget struct {
	instanceID string
	directory  *memory.Directory
	lister     memory.SceneLister
	resolver   Resolver
	notifier   Notifier
	props      props.Store
	sink       DisplaySink
	logger     *logrus.Entry

	// Owned by the Run goroutine.
	selection      string
	state          State
	record         models.SceneItemRecord
	visible        bool
	seq            uint64
	mounted        bool
	rebuilding     bool
	refreshPending bool

	notifications chan models.VisibilityChange
	resolved      chan resolveResult
	rebuilt       chan rebuildResult
	refresh       chan struct{}

	mu     sync.RWMutex
	status Status
}

// New creates a Widget. Nothing happens until Run is called.
func New(cfg Config) (*Widget, error) {
	switch {
	case cfg.InstanceID == "":
		return nil, werrors.InvalidInput("widget instance id is required")
	case cfg.Lister == nil:
		return nil, werrors.InvalidInput("widget scene lister is required")
	case cfg.Resolver == nil:
		return nil, werrors.InvalidInput("widget resolver is required")
	case cfg.Notifier == nil:
		return nil, werrors.InvalidInput("widget notifier is required")
	case cfg.Props == nil:
		return nil, werrors.InvalidInput("widget props store is required")
	case cfg.Sink == nil:
		return nil, werrors.InvalidInput("widget display sink is required")
	}

	dir := cfg.Directory
	if dir == nil {
		dir = memory.NewDirectory()
	}

	initial := models.InitialDisplayState()
	return &Widget{
		instanceID:    cfg.InstanceID,
		directory:     dir,
		lister:        cfg.Lister,
		resolver:      cfg.Resolver,
		notifier:      cfg.Notifier,
		props:         cfg.Props,
		sink:          cfg.Sink,
		logger:        logging.NewLogger("widget").WithField("instance", cfg.InstanceID),
		state:         StateIdle,
		notifications: make(chan models.VisibilityChange, notificationBuffer),
		resolved:      make(chan resolveResult),
		rebuilt:       make(chan rebuildResult),
		refresh:       make(chan struct{}, 1),
		status:        Status{State: StateIdle, Display: initial},
	}, nil
}

// Directory returns the widget's scene directory.
func (w *Widget) Directory() *memory.Directory {
	return w.directory
}

// InstanceID returns the id the widget's props are stored under.
func (w *Widget) InstanceID() string {
	return w.instanceID
}

// PrepareProps builds the props form from the current directory.
func (w *Widget) PrepareProps() map[string]PropSchema {
	return PrepareProps(w.directory)
}

// Status returns a copy of the widget's current state.
func (w *Widget) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Refresh asks the widget to re-fetch the scene list and re-evaluate the
// selection. Requests made while a fetch is running are coalesced.
func (w *Widget) Refresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

// Run mounts the widget and processes stimuli until ctx is cancelled.
// The notification and props subscriptions are released before it returns.
func (w *Widget) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := w.props.Subscribe(ctx, w.instanceID)
	if err != nil {
		return fmt.Errorf("subscribe to props: %w", err)
	}

	unsubscribe := w.notifier.SubscribeVisibility(func(change models.VisibilityChange) {
		select {
		case w.notifications <- change:
		case <-ctx.Done():
		}
	})
	defer unsubscribe()

	selection, err := w.props.Get(ctx, w.instanceID, props.SceneItem)
	if err != nil {
		w.logger.WithError(err).Warn("Failed to read selection, starting with none")
		selection = ""
	}
	w.selection = selection
	feed := newSelectionFeed(selection)

	w.render(models.InitialDisplayState())
	w.logger.WithField("selection", selection).Info("Mounting widget")
	w.startRebuild(ctx, true)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Widget unmounted")
			return nil

		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if key, deliver := feed.accept(change); deliver {
				w.onSelectionChanged(ctx, key)
			} else if change.Initial && change.Name == props.SceneItem && change.Value != w.selection {
				w.onSelectionSeeded(ctx, change.Value)
			}

		case change := <-w.notifications:
			w.onNotification(ctx, change)

		case res := <-w.resolved:
			w.onResolved(res)

		case res := <-w.rebuilt:
			w.onRebuilt(ctx, res)

		case <-w.refresh:
			if w.rebuilding {
				w.refreshPending = true
				continue
			}
			w.startRebuild(ctx, false)
		}
	}
}

func (w *Widget) startRebuild(ctx context.Context, mount bool) {
	w.rebuilding = true
	go func() {
		err := w.directory.Rebuild(ctx, w.lister)
		select {
		case w.rebuilt <- rebuildResult{mount: mount, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (w *Widget) onRebuilt(ctx context.Context, res rebuildResult) {
	w.rebuilding = false

	switch {
	case res.mount:
		// The first evaluation always runs, even when the fetch failed.
		w.mounted = true
		w.evaluate(ctx)
	case res.err == nil:
		w.evaluate(ctx)
	default:
		w.logger.WithError(res.err).Warn("Refresh failed, display left unchanged")
	}

	if w.refreshPending {
		w.refreshPending = false
		w.startRebuild(ctx, false)
	}
}

func (w *Widget) onSelectionChanged(ctx context.Context, key string) {
	w.logger.WithField("selection", key).Info("Selection changed")
	w.selection = key
	if !w.mounted {
		// Evaluated once the mount rebuild completes.
		return
	}
	w.evaluate(ctx)
}

// onSelectionSeeded adopts a stored selection that the mount-time read
// missed. It is evaluated only if mounting already evaluated the stale one.
func (w *Widget) onSelectionSeeded(ctx context.Context, key string) {
	w.logger.WithField("selection", key).Info("Adopting stored selection")
	w.selection = key
	if w.mounted {
		w.evaluate(ctx)
	}
}

// evaluate maps the current selection to a state and renders it, starting a
// resolve when the selection is known to the directory.
func (w *Widget) evaluate(ctx context.Context) {
	key := w.selection
	w.seq++

	if key == "" {
		w.transition(StateIdle, models.SceneItemRecord{})
		w.render(models.DisplayState{Label: models.NoSourceLabel, Indicator: models.IndicatorNoSelection})
		return
	}

	record, err := w.directory.Lookup(key)
	if err != nil {
		w.logger.WithField("selection", key).Debug("Selection not in directory")
		w.transition(StateUnresolvable, models.SceneItemRecord{})
		w.render(models.DisplayState{Label: models.NoSourceLabel, Indicator: models.IndicatorUnknown})
		return
	}

	w.startResolve(ctx, key, record)
}

func (w *Widget) startResolve(ctx context.Context, key string, record models.SceneItemRecord) {
	tag := resolveTag{key: key, seq: w.seq}
	w.transition(StateResolving, record)

	go func() {
		visible, err := w.resolver.Resolve(ctx, record.SceneName, record.SourceName)
		select {
		case w.resolved <- resolveResult{tag: tag, record: record, visible: visible, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (w *Widget) onResolved(res resolveResult) {
	if res.tag.seq != w.seq || res.tag.key != w.selection {
		w.logger.WithFields(logrus.Fields{
			"key":     res.tag.key,
			"current": w.selection,
		}).Debug("Discarding superseded visibility result")
		return
	}

	if res.err != nil {
		w.logger.WithError(res.err).WithField("selection", res.tag.key).Warn("Falling back to neutral display")
		w.transition(StateUnresolvable, res.record)
		w.render(models.DisplayState{Label: res.record.Label(), Indicator: models.IndicatorUnknown})
		return
	}

	w.visible = res.visible
	w.transition(StateResolved, res.record)

	indicator := models.IndicatorHidden
	if res.visible {
		indicator = models.IndicatorVisible
	}
	w.render(models.DisplayState{Label: res.record.Label(), Indicator: indicator})
}

func (w *Widget) onNotification(ctx context.Context, change models.VisibilityChange) {
	switch w.state {
	case StateResolving, StateResolved:
	case StateUnresolvable:
		// A failed resolve keeps its record and is retried; a selection
		// missing from the directory has none.
		if w.record == (models.SceneItemRecord{}) {
			return
		}
	default:
		return
	}
	if !w.record.Matches(change.SceneName, change.SourceName) {
		return
	}

	w.logger.WithFields(logrus.Fields{
		"scene":  change.SceneName,
		"source": change.SourceName,
	}).Debug("Visibility changed, re-resolving")
	w.seq++
	w.startResolve(ctx, w.selection, w.record)
}

func (w *Widget) transition(state State, record models.SceneItemRecord) {
	w.state = state
	w.record = record

	w.mu.Lock()
	w.status.State = state
	w.status.Selection = w.selection
	w.status.Visible = nil
	if state == StateResolved {
		visible := w.visible
		w.status.Visible = &visible
	}
	w.mu.Unlock()
}

func (w *Widget) render(state models.DisplayState) {
	w.mu.Lock()
	w.status.Display = state
	w.mu.Unlock()

	w.sink.Render(state)
}
