package ports

import websocketdto "transit-mapper/internal/survey-service/core/domain/websocket_dto"

// ITripFeed pushes events to live watchers of one trip. Best effort:
// a slow or absent watcher never fails the mutation that produced the event.
type ITripFeed interface {
	Broadcast(tripID string, ev websocketdto.Event)
}
