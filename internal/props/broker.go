package props

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/sceneitem-widget/internal/logging"
)

const subscriberBuffer = 64

type subscriber struct {
	instanceID string
	ch         chan Change
}

// Broker fans props changes out to the subscribers of each instance.
// Store implementations embed one and call Publish after every write they observe.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]bool // instanceID -> subscribers
	logger      *logrus.Entry
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]map[*subscriber]bool),
		logger:      logging.NewLogger("props-broker"),
	}
}

// Subscribe registers a subscriber for instanceID, delivers initial with
// Initial=true, and unregisters and closes the channel when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, instanceID string, initial map[string]string) <-chan Change {
	sub := &subscriber{
		instanceID: instanceID,
		ch:         make(chan Change, subscriberBuffer+len(initial)),
	}

	b.mu.Lock()
	for name, value := range initial {
		sub.ch <- Change{InstanceID: instanceID, Name: name, Value: value, Initial: true}
	}
	if b.subscribers[instanceID] == nil {
		b.subscribers[instanceID] = make(map[*subscriber]bool)
	}
	b.subscribers[instanceID][sub] = true
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(sub)
	}()

	return sub.ch
}

// Publish delivers a non-initial change to every subscriber of the instance.
// A subscriber whose buffer is full misses the change.
func (b *Broker) Publish(instanceID, name, value string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	change := Change{InstanceID: instanceID, Name: name, Value: value}
	for sub := range b.subscribers[instanceID] {
		select {
		case sub.ch <- change:
		default:
			b.logger.WithFields(logrus.Fields{
				"instance": instanceID,
				"prop":     name,
			}).Warn("Props subscriber is not keeping up, dropping change")
		}
	}
}

// Close unregisters every subscriber and closes their channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for instanceID, subs := range b.subscribers {
		for sub := range subs {
			close(sub.ch)
		}
		delete(b.subscribers, instanceID)
	}
}

func (b *Broker) remove(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[sub.instanceID]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			close(sub.ch)
		}
		if len(subs) == 0 {
			delete(b.subscribers, sub.instanceID)
		}
	}
}
