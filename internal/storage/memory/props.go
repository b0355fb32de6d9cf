package memory

import (
	"context"
	"sync"

	"github.com/Vasu1712/sceneitem-widget/internal/props"
)

// PropsStore keeps widget props in memory.
type PropsStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string // instanceID -> prop name -> value
	broker *props.Broker
}

// NewPropsStore creates an empty PropsStore.
func NewPropsStore() *PropsStore {
	return &PropsStore{
		values: make(map[string]map[string]string),
		broker: props.NewBroker(),
	}
}

// Get returns the stored value, "" when unset.
func (s *PropsStore) Get(ctx context.Context, instanceID, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[instanceID][name], nil
}

// Set stores value and notifies subscribers when it changed.
func (s *PropsStore) Set(ctx context.Context, instanceID, name, value string) error {
	s.mu.Lock()
	instance, ok := s.values[instanceID]
	if !ok {
		instance = make(map[string]string)
		s.values[instanceID] = instance
	}
	previous, existed := instance[name]
	if value == "" {
		delete(instance, name)
	} else {
		instance[name] = value
	}
	s.mu.Unlock()

	if (existed && previous == value) || (!existed && value == "") {
		return nil
	}
	s.broker.Publish(instanceID, name, value)
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
