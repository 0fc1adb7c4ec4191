package ports

import (
	"context"

	"transit-mapper/internal/survey-service/core/domain/event"
)

type ITripEventsBroker interface {
	PublishTripEvent(ctx context.Context, ev event.TripEvent) error
	IsAlive() bool
	Close() error
}
