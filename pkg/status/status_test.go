package status

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/glockcore/pkg/antijam"
	"github.com/herlein/glockcore/pkg/modeswitch"
)

func newTestServer(t *testing.T, p *Publisher) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := p.upgrade.Upgrade(w, r, nil)
		require.NoError(t, err)
		p.AddClient(conn)
	}))

	wsURL := "ws" + srv.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	return srv, conn
}

func TestPublishDeliversToConnectedClient(t *testing.T) {
	p := NewPublisher()
	srv, conn := newTestServer(t, p)
	defer srv.Close()
	defer conn.Close()

	time.Sleep(20 * time.Millisecond) // let AddClient register

	err := p.Publish(JamEvent(antijam.Report{State: antijam.Jammed, Score: 42}, true, modeswitch.High))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "JAMMED")
	assert.Contains(t, string(msg), "42")
}

func TestJamEventFieldsPopulated(t *testing.T) {
	ev := JamEvent(antijam.Report{State: antijam.Suspect, Score: 15}, false, modeswitch.Low)
	assert.Equal(t, "jam_report", ev.Kind)
	assert.Equal(t, "SUSPECT", ev.JamState)
	assert.Equal(t, uint8(15), ev.JamScore)
	assert.False(t, ev.Enabled)
	assert.Equal(t, "LOW", ev.Mode)
}

func TestSwitchEventFieldsPopulated(t *testing.T) {
	ev := SwitchEvent(modeswitch.Change{Enabled: true, Mode: modeswitch.Auto})
	assert.Equal(t, "switch_change", ev.Kind)
	assert.True(t, ev.Enabled)
	assert.Equal(t, "AUTO", ev.Mode)
}

func TestPublishAssignsIDWhenEmpty(t *testing.T) {
	p := NewPublisher()
	ev := JamEvent(antijam.Report{}, true, modeswitch.Auto)
	require.Empty(t, ev.ID)
	require.NoError(t, p.Publish(ev))
}
