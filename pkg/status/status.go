// Package status publishes the FHSS core's live state over two ambient
// transports: a gorilla/websocket feed for interactive observers, and an
// MQTT telemetry topic for unattended logging, each event tagged with a
// google/uuid correlation id.
package status

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/herlein/glockcore/pkg/antijam"
	"github.com/herlein/glockcore/pkg/modeswitch"
)

// Event is one status update, published verbatim to both transports.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	JamState  string    `json:"jam_state,omitempty"`
	JamScore  uint8     `json:"jam_score,omitempty"`
	Enabled   bool      `json:"enabled"`
	Mode      string    `json:"mode,omitempty"`
}

// Publisher fans Events out to every connected websocket client and,
// optionally, an MQTT broker.
type Publisher struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	upgrade websocket.Upgrader

	mqttClient mqtt.Client
	mqttTopic  string
}

// NewPublisher constructs a Publisher with no MQTT client attached; call
// AttachMQTT to also publish telemetry to a broker.
func NewPublisher() *Publisher {
	return &Publisher{
		clients: make(map[*websocket.Conn]struct{}),
		upgrade: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// AttachMQTT configures the MQTT client and topic used by subsequent
// Publish calls.
func (p *Publisher) AttachMQTT(client mqtt.Client, topic string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mqttClient = client
	p.mqttTopic = topic
}

// AddClient registers a websocket connection to receive future events.
func (p *Publisher) AddClient(c *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients[c] = struct{}{}
}

// RemoveClient deregisters and closes a websocket connection.
func (p *Publisher) RemoveClient(c *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients[c]; ok {
		delete(p.clients, c)
		c.Close()
	}
}

// ServeWS upgrades the request to a websocket connection and registers it
// as a client; it blocks, discarding any messages the client sends, until
// the connection closes, at which point it deregisters the client.
func (p *Publisher) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := p.upgrade.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	p.AddClient(conn)
	defer p.RemoveClient(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Publish sends an event to every connected websocket client and, if
// attached, the configured MQTT topic. Dead websocket clients are dropped.
func (p *Publisher) Publish(ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(p.clients, c)
			c.Close()
		}
	}

	if p.mqttClient != nil && p.mqttTopic != "" {
		token := p.mqttClient.Publish(p.mqttTopic, 0, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			return err
		}
	}
	return nil
}

// JamEvent builds an Event from an anti-jam report and the current switch
// state, suitable for passing directly to Publish.
func JamEvent(report antijam.Report, enabled bool, mode modeswitch.Mode) Event {
	return Event{
		Kind:     "jam_report",
		JamState: report.State.String(),
		JamScore: report.Score,
		Enabled:  enabled,
		Mode:     mode.String(),
	}
}

// SwitchEvent builds an Event from a mode-switch change notification.
func SwitchEvent(c modeswitch.Change) Event {
	return Event{
		Kind:    "switch_change",
		Enabled: c.Enabled,
		Mode:    c.Mode.String(),
	}
}
