// Package visibility asks the control service whether a scene item is visible.
package visibility

import (
	"context"

	"github.com/sirupsen/logrus"

	werrors "github.com/Vasu1712/sceneitem-widget/internal/errors"
	"github.com/Vasu1712/sceneitem-widget/internal/logging"
)

// Getter is the request/response capability the resolver needs.
type Getter interface {
	GetVisibility(ctx context.Context, sceneName, sourceName string) (bool, error)
}

// Resolver issues one fresh round trip per call; nothing is cached.
type Resolver struct {
	getter Getter
	logger *logrus.Entry
}

// NewResolver creates a Resolver.
func NewResolver(getter Getter) *Resolver {
	return &Resolver{
		getter: getter,
		logger: logging.NewLogger("resolver"),
	}
}

// Resolve returns the current visibility of sourceName in sceneName.
// Errors are SOURCE_NOT_FOUND when the pair no longer exists and
// TRANSPORT_ERROR for everything else.
func (r *Resolver) Resolve(ctx context.Context, sceneName, sourceName string) (bool, error) {
	log := r.logger.WithFields(logrus.Fields{
		"scene":  sceneName,
		"source": sourceName,
	})

	visible, err := r.getter.GetVisibility(ctx, sceneName, sourceName)
	if err != nil {
		switch werrors.GetCode(err) {
		case werrors.ErrCodeSourceNotFound, werrors.ErrCodeTransport:
		default:
			err = werrors.Transport("GetVisibility", err)
		}
		log.WithError(err).Warn("Visibility resolve failed")
		return false, err
	}

	log.WithField("visible", visible).Debug("Visibility resolved")
	return visible, nil
}
