package ws

import (
	"net/http"
	"sync"

	"transit-mapper/internal/mylogger"
	websocketdto "transit-mapper/internal/survey-service/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

// ================================================================================================== //
// websocketUpgrader is used to upgrade incomming HTTP requests into a persitent websocket connection //
// ================================================================================================== //
var websocketUpgrader = websocket.Upgrader{
	// TODO: add checkOrigin
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ClientList is a map used to help manage a map of clients
type ClientList map[*Client]bool

// Dispatcher keeps one client set per trip id and fans events out to
// whoever is watching that trip.
type Dispatcher struct {
	clients map[string]ClientList
	sync.RWMutex
	log mylogger.Logger
}

func NewDispathcer(log mylogger.Logger) *Dispatcher {
	return &Dispatcher{
		clients: make(map[string]ClientList),
		log:     log,
	}
}

func (d *Dispatcher) WsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := d.log.Action("wsHandler")
		tripId := r.PathValue("trip_id")

		if tripId == "" {
			w.WriteHeader(http.StatusBadRequest)
			log.Warn("ws connection without trip id")
			return
		}

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade", err)
			return
		}

		client := NewClient(conn, d, tripId)
		d.AddClient(client)
		go client.ReadMessage()
		go client.WriteMessage()
	}
}

// Broadcast sends an event to every client watching the trip. Clients
// that cannot keep up are dropped rather than blocking the sender.
func (d *Dispatcher) Broadcast(tripId string, ev websocketdto.Event) {
	d.RLock()
	stale := make([]*Client, 0)
	for client := range d.clients[tripId] {
		select {
		case client.egress <- ev:
		default:
			stale = append(stale, client)
		}
	}
	d.RUnlock()

	for _, client := range stale {
		d.RemoveClient(client)
	}
}

func (d *Dispatcher) AddClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	if d.clients[client.tripId] == nil {
		d.clients[client.tripId] = make(ClientList)
	}
	d.clients[client.tripId][client] = true
}

func (d *Dispatcher) RemoveClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	if list, ok := d.clients[client.tripId]; ok {
		if _, ok := list[client]; ok {
			close(client.done)
			client.conn.Close()
			delete(list, client)
			if len(list) == 0 {
				delete(d.clients, client.tripId)
			}
		}
	}
}
