package main

import (
	"context"
	"fmt"

	"github.com/Vasu1712/sceneitem-widget/internal/config"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
	"github.com/Vasu1712/sceneitem-widget/internal/obs"
	"github.com/Vasu1712/sceneitem-widget/internal/props"
	"github.com/Vasu1712/sceneitem-widget/internal/storage/file"
	"github.com/Vasu1712/sceneitem-widget/internal/storage/memory"
	"github.com/Vasu1712/sceneitem-widget/internal/storage/valkey"
	"github.com/Vasu1712/sceneitem-widget/internal/visibility"
	"github.com/Vasu1712/sceneitem-widget/internal/widget"
)

// openProps builds the configured props store and starts its change relay.
// The returned func releases it.
func openProps(ctx context.Context, cfg config.PropsConfig) (props.Store, func(), error) {
	logger := logging.NewLogger("props")

	switch cfg.Backend {
	case config.PropsBackendMemory:
		return memory.NewPropsStore(), func() {}, nil

	case config.PropsBackendFile:
		store, err := file.NewPropsStore(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open props file: %w", err)
		}
		go store.Start(ctx)
		return store, func() { _ = store.Close() }, nil

	case config.PropsBackendValkey:
		store, err := valkey.NewPropsStore(cfg.ValkeyAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to valkey: %w", err)
		}
		go func() {
			if err := store.Start(ctx); err != nil {
				logger.WithError(err).Error("Props change relay stopped")
			}
		}()
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown props backend %q", cfg.Backend)
}

// dialOBS connects to the control service. A failed first connection is
// logged, not returned, when keepTrying is set; Run keeps redialing.
func dialOBS(ctx context.Context, cfg config.OBSConfig, keepTrying bool) (*obs.Session, error) {
	session := obs.NewSession(obs.SessionOptions{
		URL:              cfg.URL,
		Password:         cfg.Password,
		RequestTimeout:   cfg.RequestTimeout,
		ReconnectBackoff: cfg.ReconnectBackoff,
	})
	if err := session.Connect(ctx); err != nil {
		if !keepTrying {
			return nil, err
		}
		logging.NewLogger("obs").WithError(err).Warn("Control service unavailable, will keep retrying")
	}
	return session, nil
}

// newWidget wires a widget onto the control service client.
func newWidget(cfg *config.Config, client *obs.Client, store props.Store, sink widget.DisplaySink) (*widget.Widget, error) {
	return widget.New(widget.Config{
		InstanceID: cfg.Widget.InstanceID,
		Lister:     client,
		Resolver:   visibility.NewResolver(client),
		Notifier:   client,
		Props:      store,
		Sink:       sink,
	})
}
