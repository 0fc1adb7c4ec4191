package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"transit-mapper/internal/mylogger"
	websocketdto "transit-mapper/internal/survey-service/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(t *testing.T) (*Dispatcher, *httptest.Server) {
	t.Helper()

	log, err := mylogger.New("ERROR")
	require.NoError(t, err)

	d := NewDispathcer(log)
	mux := http.NewServeMux()
	mux.Handle("GET /ws/trips/{trip_id}", d.WsHandler())

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return d, srv
}

func dialTrip(t *testing.T, srv *httptest.Server, tripId string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/trips/" + tripId
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, d *Dispatcher, tripId string, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.RLock()
		got := len(d.clients[tripId])
		d.RUnlock()
		if got == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("trip %s never reached %d watcher(s)", tripId, n)
}

func TestBroadcast_DeliveredAfterUpgradeHandlerReturns(t *testing.T) {
	d, srv := newTestFeed(t)

	conn := dialTrip(t, srv, "trip-1")
	waitForClients(t, d, "trip-1", 1)

	// The upgrade handler is long gone by the time a stop is recorded;
	// the subscription must outlive it.
	time.Sleep(50 * time.Millisecond)

	data, err := json.Marshal(websocketdto.StopRecordedDto{
		TripID:     "trip-1",
		StopID:     "S20250601_001",
		StopNumber: 1,
	})
	require.NoError(t, err)
	d.Broadcast("trip-1", websocketdto.Event{Type: "stop_recorded", Data: data})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev websocketdto.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "stop_recorded", ev.Type)

	var payload websocketdto.StopRecordedDto
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, "S20250601_001", payload.StopID)
}

func TestBroadcast_ScopedToWatchedTrip(t *testing.T) {
	d, srv := newTestFeed(t)

	watcher := dialTrip(t, srv, "trip-1")
	bystander := dialTrip(t, srv, "trip-2")
	waitForClients(t, d, "trip-1", 1)
	waitForClients(t, d, "trip-2", 1)

	d.Broadcast("trip-1", websocketdto.Event{Type: "stop_recorded"})

	watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev websocketdto.Event
	require.NoError(t, watcher.ReadJSON(&ev))
	assert.Equal(t, "stop_recorded", ev.Type)

	bystander.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := bystander.ReadMessage()
	assert.Error(t, err)
}

func TestDisconnect_RemovesWatcher(t *testing.T) {
	d, srv := newTestFeed(t)

	conn := dialTrip(t, srv, "trip-1")
	waitForClients(t, d, "trip-1", 1)

	conn.Close()
	waitForClients(t, d, "trip-1", 0)
}
