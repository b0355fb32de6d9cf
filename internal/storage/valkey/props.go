// Package valkey persists widget props in Valkey hashes and propagates
// changes between processes over pub/sub.
package valkey

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/valkey-io/valkey-go"

	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/props"
)

const (
	keyPrefix     = "sceneitem:props:"
	changeChannel = "sceneitem:props:changed"
)

type changeMessage struct {
	InstanceID string `json:"instanceId"`
	Name       string `json:"name"`
	Value      string `json:"value"`
}

// PropsStore stores each instance's props in the hash sceneitem:props:<instance>.
type PropsStore struct {
	client valkey.Client
	broker *props.Broker
	logger *logrus.Entry
}

// NewPropsStore connects to the Valkey server at addr.
func NewPropsStore(addr string) (*PropsStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", addr, err)
	}
	return NewPropsStoreWithClient(client), nil
}

// NewPropsStoreWithClient wraps an existing client.
func NewPropsStoreWithClient(client valkey.Client) *PropsStore {
	return &PropsStore{
		client: client,
		broker: props.NewBroker(),
		logger: logging.NewLogger("props-valkey"),
	}
}

// Start relays change messages from the pub/sub channel to local subscribers.
// It blocks until ctx is cancelled or the subscription fails.
func (s *PropsStore) Start(ctx context.Context) error {
	err := s.client.Receive(ctx, s.client.B().Subscribe().Channel(changeChannel).Build(), func(msg valkey.PubSubMessage) {
		change, err := decodeChange(msg.Message)
		if err != nil {
			s.logger.WithError(err).Warn("Ignoring malformed props change message")
			return
		}
		s.broker.Publish(change.InstanceID, change.Name, change.Value)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("props subscription failed: %w", err)
	}
	return nil
}

// Close closes every subscription and the client.
func (s *PropsStore) Close() {
	s.broker.Close()
	s.client.Close()
}

// Get returns the stored value, "" when unset.
func (s *PropsStore) Get(ctx context.Context, instanceID, name string) (string, error) {
	value, err := s.client.Do(ctx, s.client.B().Hget().Key(keyPrefix+instanceID).Field(name).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read prop %s for %s: %w", name, instanceID, err)
	}
	return value, nil
}

// Set writes value and announces the change on the pub/sub channel. Local
// subscribers receive it through Start like every other process.
func (s *PropsStore) Set(ctx context.Context, instanceID, name, value string) error {
	previous, err := s.Get(ctx, instanceID, name)
	if err != nil {
		return err
	}
	if previous == value {
		return nil
	}

	key := keyPrefix + instanceID
	if value == "" {
		err = s.client.Do(ctx, s.client.B().Hdel().Key(key).Field(name).Build()).Error()
	} else {
		err = s.client.Do(ctx, s.client.B().Hset().Key(key).FieldValue().FieldValue(name, value).Build()).Error()
	}
	if err != nil {
		return fmt.Errorf("failed to write prop %s for %s: %w", name, instanceID, err)
	}

	payload, err := encodeChange(changeMessage{InstanceID: instanceID, Name: name, Value: value})
	if err != nil {
		return err
	}
	if err := s.client.Do(ctx, s.client.B().Publish().Channel(changeChannel).Message(payload).Build()).Error(); err != nil {
		return fmt.Errorf("failed to publish prop change: %w", err)
	}
	return nil
}

// Subscribe delivers the stored props, then every change.
func (s *PropsStore) Subscribe(ctx context.Context, instanceID string) (<-chan props.Change, error) {
	initial, err := s.client.Do(ctx, s.client.B().Hgetall().Key(keyPrefix+instanceID).Build()).AsStrMap()
	if err != nil && !valkey.IsValkeyNil(err) {
		return nil, fmt.Errorf("failed to read props for %s: %w", instanceID, err)
	}
	return s.broker.Subscribe(ctx, instanceID, initial), nil
}

func encodeChange(msg changeMessage) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode props change: %w", err)
	}
	return string(data), nil
}

func decodeChange(payload string) (changeMessage, error) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return changeMessage{}, err
	}
	if msg.InstanceID == "" || msg.Name == "" {
		return changeMessage{}, fmt.Errorf("props change without instance or name: %q", payload)
	}
	return msg, nil
}
