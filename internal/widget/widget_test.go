package widget

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/models"
	"github.com/Vasu1712/sceneitem-widget/internal/props"
	"github.com/Vasu1712/sceneitem-widget/internal/storage/memory"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeLister serves a mutable scene list.
type fakeLister struct {
	mu     sync.Mutex
	scenes []models.Scene
	err    error
	calls  int
}

func (f *fakeLister) ListScenes(ctx context.Context) ([]models.Scene, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.scenes, f.err
}

func (f *fakeLister) set(scenes []models.Scene, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scenes = scenes
	f.err = err
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeResolver answers from a map; gated items block until released.
type fakeResolver struct {
	mu      sync.Mutex
	visible map[string]bool
	errs    map[string]error
	gates   map[string]chan struct{}
	calls   []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		visible: make(map[string]bool),
		errs:    make(map[string]error),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *fakeResolver) Resolve(ctx context.Context, sceneName, sourceName string) (bool, error) {
	id := sceneName + "/" + sourceName

	f.mu.Lock()
	f.calls = append(f.calls, id)
	gate := f.gates[id]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return false, err
	}
	return f.visible[id], nil
}

func (f *fakeResolver) setVisible(id string, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible[id] = visible
}

func (f *fakeResolver) setErr(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[id] = err
}

func (f *fakeResolver) gate(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[id] = ch
	return ch
}

func (f *fakeResolver) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == id {
			n++
		}
	}
	return n
}

// fakeNotifier lets tests push visibility notifications.
type fakeNotifier struct {
	mu       sync.Mutex
	handlers map[int]func(models.VisibilityChange)
	next     int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{handlers: make(map[int]func(models.VisibilityChange))}
}

func (f *fakeNotifier) SubscribeVisibility(fn func(models.VisibilityChange)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.handlers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
	}
}

func (f *fakeNotifier) emit(scene, source string) {
	f.mu.Lock()
	handlers := make([]func(models.VisibilityChange), 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(models.VisibilityChange{SceneName: scene, SourceName: source})
	}
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// recordingSink keeps every render.
type recordingSink struct {
	mu     sync.Mutex
	states []models.DisplayState
}

func (s *recordingSink) Render(state models.DisplayState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
}

func (s *recordingSink) all() []models.DisplayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DisplayState(nil), s.states...)
}

func (s *recordingSink) last() models.DisplayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return models.DisplayState{}
	}
	return s.states[len(s.states)-1]
}

type harness struct {
	t        *testing.T
	lister   *fakeLister
	resolver *fakeResolver
	notifier *fakeNotifier
	props    *memory.PropsStore
	sink     *recordingSink
	widget   *Widget
	cancel   context.CancelFunc
	done     chan error
}

const instance = "tile-1"

func newHarness(t *testing.T, selection string) *harness {
	t.Helper()
	h := &harness{
		t: t,
		lister: &fakeLister{scenes: []models.Scene{
			{Name: "Scene1", Sources: []models.Source{{Name: "CamA"}, {Name: "Mic"}}},
			{Name: "Scene2", Sources: []models.Source{{Name: "CamA"}, {Name: "CamB"}}},
		}},
		resolver: newFakeResolver(),
		notifier: newFakeNotifier(),
		props:    memory.NewPropsStore(),
		sink:     &recordingSink{},
	}
	if selection != "" {
		require.NoError(t, h.props.Set(context.Background(), instance, props.SceneItem, selection))
	}

	w, err := New(Config{
		InstanceID: instance,
		Lister:     h.lister,
		Resolver:   h.resolver,
		Notifier:   h.notifier,
		Props:      h.props,
		Sink:       h.sink,
	})
	require.NoError(t, err)
	h.widget = w
	return h
}

func (h *harness) start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.widget.Run(ctx) }()
	h.t.Cleanup(h.stop)
}

func (h *harness) stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	h.cancel = nil
	select {
	case <-h.done:
	case <-time.After(waitFor):
		h.t.Error("widget did not stop")
	}
}

func (h *harness) selectKey(key string) {
	require.NoError(h.t, h.props.Set(context.Background(), instance, props.SceneItem, key))
}

func (h *harness) waitFor(want models.DisplayState) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		return h.sink.last() == want
	}, waitFor, tick, "last render %+v, want %+v", h.sink.last(), want)
}

func visible(label string) models.DisplayState {
	return models.DisplayState{Label: label, Indicator: models.IndicatorVisible}
}

func hidden(label string) models.DisplayState {
	return models.DisplayState{Label: label, Indicator: models.IndicatorHidden}
}

func TestScenarioVisibleSelection(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.start()

	h.waitFor(visible("Scene1 - CamA"))
	assert.Equal(t, models.InitialDisplayState(), h.sink.all()[0])

	status := h.widget.Status()
	assert.Equal(t, StateResolved, status.State)
	assert.Equal(t, "Scene1|CamA", status.Selection)
	require.NotNil(t, status.Visible)
	assert.True(t, *status.Visible)
}

func TestScenarioSelectionMissingFromDirectory(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.lister.set([]models.Scene{{Name: "Scene1 renamed", Sources: []models.Source{{Name: "CamA"}}}}, nil)
	h.start()

	h.waitFor(models.DisplayState{Label: models.NoSourceLabel, Indicator: models.IndicatorUnknown})
	require.Eventually(t, func() bool { return h.widget.Status().State == StateUnresolvable }, waitFor, tick)
	assert.Equal(t, 0, h.resolver.callCount("Scene1/CamA"))
}

func TestScenarioNotificationFlipsVisibility(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.start()
	h.waitFor(visible("Scene1 - CamA"))

	h.resolver.setVisible("Scene1/CamA", false)
	h.notifier.emit("Scene1", "CamA")

	h.waitFor(hidden("Scene1 - CamA"))
	assert.Equal(t, 2, h.resolver.callCount("Scene1/CamA"))
}

func TestScenarioNoSelection(t *testing.T) {
	h := newHarness(t, "")
	h.start()

	h.waitFor(models.DisplayState{Label: models.NoSourceLabel, Indicator: models.IndicatorNoSelection})
	assert.Equal(t, StateIdle, h.widget.Status().State)
}

func TestInitialPropsDeliveryDoesNotResolveAgain(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.start()
	h.waitFor(visible("Scene1 - CamA"))

	assert.Never(t, func() bool {
		return h.resolver.callCount("Scene1/CamA") > 1
	}, 100*time.Millisecond, tick)
}

func TestSelectionChangeResolvesNewKey(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.resolver.setVisible("Scene2/CamB", false)
	h.start()
	h.waitFor(visible("Scene1 - CamA"))

	h.selectKey("Scene2|CamB")
	h.waitFor(hidden("Scene2 - CamB"))

	h.selectKey("")
	h.waitFor(models.DisplayState{Label: models.NoSourceLabel, Indicator: models.IndicatorNoSelection})
}

func TestStaleResolveIsDiscarded(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.resolver.setVisible("Scene2/CamB", false)
	release := h.resolver.gate("Scene1/CamA")
	h.start()

	require.Eventually(t, func() bool { return h.resolver.callCount("Scene1/CamA") == 1 }, waitFor, tick)

	h.selectKey("Scene2|CamB")
	h.waitFor(hidden("Scene2 - CamB"))

	close(release)
	assert.Never(t, func() bool {
		return h.sink.last() != hidden("Scene2 - CamB")
	}, 150*time.Millisecond, tick)

	for _, state := range h.sink.all() {
		assert.NotEqual(t, "Scene1 - CamA", state.Label)
	}
}

func TestStaleResolveForSameKeyIsDiscarded(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.start()
	h.waitFor(visible("Scene1 - CamA"))

	// A notification re-resolve is held back, a second one supersedes it.
	release := h.resolver.gate("Scene1/CamA")
	h.notifier.emit("Scene1", "CamA")
	require.Eventually(t, func() bool { return h.resolver.callCount("Scene1/CamA") == 2 }, waitFor, tick)

	h.resolver.mu.Lock()
	delete(h.resolver.gates, "Scene1/CamA")
	h.resolver.mu.Unlock()
	h.resolver.setVisible("Scene1/CamA", false)
	h.notifier.emit("Scene1", "CamA")
	h.waitFor(hidden("Scene1 - CamA"))

	rendersBefore := len(h.sink.all())
	close(release)
	assert.Never(t, func() bool {
		return len(h.sink.all()) != rendersBefore
	}, 150*time.Millisecond, tick)
}

func TestNotificationFiltering(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.start()
	h.waitFor(visible("Scene1 - CamA"))
	renders := len(h.sink.all())

	h.notifier.emit("Scene1", "Mic")  // same scene, different source
	h.notifier.emit("Scene2", "CamA") // same source, different scene
	h.notifier.emit("Other", "Thing")

	assert.Never(t, func() bool {
		return h.resolver.callCount("Scene1/CamA") > 1 || len(h.sink.all()) != renders
	}, 100*time.Millisecond, tick)
}

func TestNotificationIgnoredWithoutResolvedSelection(t *testing.T) {
	h := newHarness(t, "")
	h.start()
	h.waitFor(models.DisplayState{Label: models.NoSourceLabel, Indicator: models.IndicatorNoSelection})
	renders := len(h.sink.all())

	h.notifier.emit("Scene1", "CamA")
	assert.Never(t, func() bool {
		return len(h.sink.all()) != renders
	}, 100*time.Millisecond, tick)
}

func TestResolverFailureDegradesToNeutral(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setErr("Scene1/CamA", werrors.SourceNotFound("Scene1", "CamA", "specified scene item doesn't exist"))
	h.start()

	h.waitFor(models.DisplayState{Label: "Scene1 - CamA", Indicator: models.IndicatorUnknown})
	assert.Equal(t, StateUnresolvable, h.widget.Status().State)
}

func TestMatchingNotificationRetriesFailedResolve(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setErr("Scene1/CamA", werrors.Transport("GetSceneItemProperties", fmt.Errorf("timeout")))
	h.start()
	h.waitFor(models.DisplayState{Label: "Scene1 - CamA", Indicator: models.IndicatorUnknown})

	// Only a notification for the selected pair triggers the retry.
	h.notifier.emit("Scene1", "Mic")
	assert.Never(t, func() bool {
		return h.resolver.callCount("Scene1/CamA") > 1
	}, 100*time.Millisecond, tick)

	h.resolver.setErr("Scene1/CamA", nil)
	h.resolver.setVisible("Scene1/CamA", true)
	h.notifier.emit("Scene1", "CamA")

	h.waitFor(visible("Scene1 - CamA"))
	assert.Equal(t, 2, h.resolver.callCount("Scene1/CamA"))
	assert.Equal(t, StateResolved, h.widget.Status().State)
}

func TestNotificationIgnoredForSelectionMissingFromDirectory(t *testing.T) {
	h := newHarness(t, "Scene9|Gone")
	h.start()
	require.Eventually(t, func() bool { return h.widget.Status().State == StateUnresolvable }, waitFor, tick)
	renders := len(h.sink.all())

	h.notifier.emit("Scene9", "Gone")
	assert.Never(t, func() bool {
		return h.resolver.callCount("Scene9/Gone") > 0 || len(h.sink.all()) != renders
	}, 100*time.Millisecond, tick)
}

// flakyGetStore fails every Get but still delivers stored values on Subscribe.
type flakyGetStore struct {
	*memory.PropsStore
}

func (s flakyGetStore) Get(ctx context.Context, instanceID, name string) (string, error) {
	return "", fmt.Errorf("props backend unavailable")
}

func TestStoredSelectionAdoptedWhenReadFails(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)

	w, err := New(Config{
		InstanceID: instance,
		Lister:     h.lister,
		Resolver:   h.resolver,
		Notifier:   h.notifier,
		Props:      flakyGetStore{h.props},
		Sink:       h.sink,
	})
	require.NoError(t, err)
	h.widget = w
	h.start()

	h.waitFor(visible("Scene1 - CamA"))
	assert.Equal(t, "Scene1|CamA", h.widget.Status().Selection)

	h.selectKey("Scene2|CamB")
	h.waitFor(hidden("Scene2 - CamB"))
}

func TestMountWithUnreachableService(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.lister.set(nil, fmt.Errorf("connection refused"))
	h.start()

	h.waitFor(models.DisplayState{Label: models.NoSourceLabel, Indicator: models.IndicatorUnknown})
	require.Eventually(t, func() bool { return h.widget.Status().State == StateUnresolvable }, waitFor, tick)
}

func TestRefreshReEvaluatesSelection(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.start()
	h.waitFor(visible("Scene1 - CamA"))

	h.lister.set([]models.Scene{{Name: "Renamed", Sources: []models.Source{{Name: "CamA"}}}}, nil)
	h.widget.Refresh()

	h.waitFor(models.DisplayState{Label: models.NoSourceLabel, Indicator: models.IndicatorUnknown})
	assert.Equal(t, []string{"Renamed|CamA"}, h.widget.Directory().Keys())
}

func TestFailedRefreshLeavesDisplayUnchanged(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.start()
	h.waitFor(visible("Scene1 - CamA"))
	renders := len(h.sink.all())

	h.lister.set(nil, fmt.Errorf("connection refused"))
	h.widget.Refresh()

	require.Eventually(t, func() bool { return h.lister.callCount() == 2 }, waitFor, tick)
	assert.Never(t, func() bool {
		return len(h.sink.all()) != renders
	}, 100*time.Millisecond, tick)
	assert.Equal(t, 4, h.widget.Directory().Len())
}

func TestUnmountReleasesSubscription(t *testing.T) {
	h := newHarness(t, "Scene1|CamA")
	h.resolver.setVisible("Scene1/CamA", true)
	h.start()
	h.waitFor(visible("Scene1 - CamA"))
	assert.Equal(t, 1, h.notifier.count())

	h.stop()
	assert.Equal(t, 0, h.notifier.count())
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{InstanceID: instance})
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.ErrCodeInvalidInput))
}

func TestSelectionFeed(t *testing.T) {
	feed := newSelectionFeed("A")

	_, deliver := feed.accept(props.Change{Name: props.SceneItem, Value: "A", Initial: true})
	assert.False(t, deliver, "initial delivery is suppressed")

	_, deliver = feed.accept(props.Change{Name: "other", Value: "B"})
	assert.False(t, deliver, "other props are ignored")

	_, deliver = feed.accept(props.Change{Name: props.SceneItem, Value: "A"})
	assert.False(t, deliver, "unchanged value is not a delta")

	key, deliver := feed.accept(props.Change{Name: props.SceneItem, Value: "B"})
	assert.True(t, deliver)
	assert.Equal(t, "B", key)

	key, deliver = feed.accept(props.Change{Name: props.SceneItem, Value: ""})
	assert.True(t, deliver)
	assert.Empty(t, key)
}

func TestPrepareProps(t *testing.T) {
	dir := memory.NewDirectory()
	require.NoError(t, dir.Rebuild(context.Background(), &fakeLister{scenes: []models.Scene{
		{Name: "Scene1", Sources: []models.Source{{Name: "CamA"}}},
		{Name: "Scene 2", Sources: []models.Source{{Name: "Cam|B"}}},
	}}))

	schema := PrepareProps(dir)
	require.Contains(t, schema, props.SceneItem)

	prop := schema[props.SceneItem]
	assert.Equal(t, "select", prop.Type)
	assert.True(t, prop.Required)
	assert.Nil(t, prop.Default)
	assert.Equal(t, map[string]PropOption{
		"Scene1|CamA":       {Text: "Scene1 - CamA", Icon: OptionIcon},
		"Scene%202|Cam%7CB": {Text: "Scene 2 - Cam|B", Icon: OptionIcon},
	}, prop.Options)
}
