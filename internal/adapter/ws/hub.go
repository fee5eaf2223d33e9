// Package ws implements the WebSocket adapter streaming live readings to
// subscribed clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/sensorlog/sensorlog/internal/domain/sensor"
	"github.com/sensorlog/sensorlog/internal/service"
)

// ReadingMessage is the envelope pushed to subscribers when a reading is
// persisted on a sensor they watch.
type ReadingMessage struct {
	Type      string `json:"type"`
	Sensor    string `json:"sensor"`
	Value     string `json:"value"`
	Timestamp string `json:"timestamp"`
}

// conn wraps a single WebSocket connection subscribed to one sensor key.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
}

// Hub manages live subscriptions keyed by sensor public key. It implements
// service.ReadingSink so the ingest path can fan persisted readings out to
// watchers without a broker in between.
type Hub struct {
	guard *service.Guard
	log   *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[*conn]struct{}
}

// NewHub creates a Hub that authorizes subscriptions with the given guard.
func NewHub(guard *service.Guard, log *slog.Logger) *Hub {
	return &Hub{
		guard: guard,
		log:   log,
		subs:  make(map[string]map[*conn]struct{}),
	}
}

// ServeSensor upgrades the request to a WebSocket subscribed to one sensor.
// The request authenticates exactly like the data API: apikey and sensor
// query parameters, resource check first.
func (h *Hub) ServeSensor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	out, err := h.guard.Authorize(r.Context(), q.Get("apikey"), service.KindSensor, q.Get("sensor"))
	if err != nil {
		h.log.ErrorContext(r.Context(), "ws authorize failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	switch out.Decision {
	case service.Allowed:
	case service.ResourceError:
		http.Error(w, out.Message, http.StatusNotFound)
		return
	default:
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		h.log.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ws: ws, cancel: cancel}
	key := out.Sensor.Key

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*conn]struct{})
	}
	h.subs[key][c] = struct{}{}
	h.mu.Unlock()

	h.log.Info("websocket subscribed", "sensor", key, "remote", r.RemoteAddr)

	// Read loop to detect disconnects and consume pings.
	go func() {
		defer func() {
			h.remove(key, c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// ReadingAdded implements service.ReadingSink: push the reading to every
// subscriber of the sensor. Write failures drop the subscriber.
func (h *Hub) ReadingAdded(ctx context.Context, sn *sensor.Sensor, r *sensor.Reading) {
	h.mu.RLock()
	watchers := len(h.subs[sn.Key])
	h.mu.RUnlock()
	if watchers == 0 {
		return
	}

	data, err := json.Marshal(ReadingMessage{
		Type:      "reading",
		Sensor:    sn.Key,
		Value:     r.Value,
		Timestamp: sensor.FormatTimestamp(r.CreatedAt),
	})
	if err != nil {
		h.log.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[sn.Key] {
		if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
			h.log.Debug("websocket write failed", "error", err)
			go h.remove(sn.Key, c)
		}
	}
}

// SubscriberCount returns the number of active subscriptions for a sensor key.
func (h *Hub) SubscriberCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[key])
}

func (h *Hub) remove(key string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[key]; ok {
		if _, ok := set[c]; ok {
			c.cancel()
			delete(set, c)
			if len(set) == 0 {
				delete(h.subs, key)
			}
			h.log.Info("websocket unsubscribed", "sensor", key)
		}
	}
}
