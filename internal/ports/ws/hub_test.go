package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blockus/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})                     {}
func (noopLogger) Info(string, ...interface{})                      {}
func (noopLogger) Warn(string, ...interface{})                      {}
func (noopLogger) Error(string, ...interface{})                     {}
func (noopLogger) WithField(string, interface{}) runtime.Logger     { return noopLogger{} }
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger { return noopLogger{} }
func (noopLogger) Fields() map[string]interface{}                   { return nil }

type inbound struct {
	T string                 `json:"t"`
	M map[string]interface{} `json:"m"`
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(noopLogger{}, app.NewService(10), []string{"http://allowed.test"})
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	conn.SetReadLimit(1 << 20)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	c := &testClient{t: t, conn: conn}
	c.expect("hello")
	return c
}

func (c *testClient) send(typ string, fields map[string]interface{}) {
	c.t.Helper()
	b, err := json.Marshal(Msg{T: typ, M: fields})
	require.NoError(c.t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(c.t, c.conn.Write(ctx, websocket.MessageText, b))
}

// expect reads until a message of type typ arrives and returns its fields.
func (c *testClient) expect(typ string) map[string]interface{} {
	c.t.Helper()
	return c.expectWhere(typ, func(map[string]interface{}) bool { return true })
}

func (c *testClient) expectWhere(typ string, match func(map[string]interface{}) bool) map[string]interface{} {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for {
		_, data, err := c.conn.Read(ctx)
		require.NoError(c.t, err, "waiting for %q", typ)
		var msg inbound
		require.NoError(c.t, json.Unmarshal(data, &msg))
		if msg.T == typ && match(msg.M) {
			return msg.M
		}
	}
}

func TestSoloTable_StartsAndPlacesOpeningPiece(t *testing.T) {
	_, url := newTestServer(t)
	c := dial(t, url)

	c.send("set_name", map[string]interface{}{"name": "alice"})
	c.send("create_table", map[string]interface{}{"humans": 1})
	created := c.expect("created")
	table := created["table"].(string)

	seated := c.expect("seated")
	assert.Equal(t, float64(0), seated["seat"])
	assert.Equal(t, "blue", seated["color"])

	started := c.expect(string(app.EventGameStarted))
	assert.Equal(t, float64(10), started["board_size"])
	seats := started["seats"].([]interface{})
	assert.Contains(t, seats[0], "#0")
	assert.Equal(t, "bot-1", seats[1])

	state := c.expect("state")
	assert.Equal(t, float64(0), state["current_seat"])

	c.send("select", map[string]interface{}{"table": table, "seat": 0, "index": 0})
	selected := c.expect(string(app.EventPieceSelected))
	assert.Equal(t, "I1", selected["shape"])

	c.send("place", map[string]interface{}{"table": table, "seat": 0, "x": 0, "y": 9})
	placed := c.expect(string(app.EventPiecePlaced))
	assert.Equal(t, "blue", placed["color"])
	assert.Equal(t, float64(1), placed["score"])
	assert.Equal(t, float64(20), placed["pieces_left"])

	// Bots answer synchronously; the next snapshot hands the turn back.
	after := c.expectWhere("state", func(m map[string]interface{}) bool {
		return m["current_seat"] == float64(0)
	})
	rows := after["board"].([]interface{})
	require.Len(t, rows, 10)
	assert.Equal(t, byte('b'), rows[9].(string)[0])
}

func TestSoloTable_ResignLetsBotsFinish(t *testing.T) {
	_, url := newTestServer(t)
	c := dial(t, url)

	c.send("create_table", map[string]interface{}{"humans": 1})
	table := c.expect("created")["table"].(string)
	c.expect("state")

	c.send("resign", map[string]interface{}{"table": table, "seat": 0})
	eliminated := c.expect(string(app.EventPlayerEliminated))
	assert.Equal(t, true, eliminated["resigned"])

	ended := c.expect(string(app.EventGameEnded))
	scores := ended["scores"].([]interface{})
	require.Len(t, scores, 4)
	assert.Equal(t, float64(0), scores[0])

	final := c.expectWhere("state", func(m map[string]interface{}) bool { return m["finished"] == true })
	assert.Equal(t, table, final["table"])
}

func TestTwoHumanTable(t *testing.T) {
	_, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)

	alice.send("create_table", map[string]interface{}{"humans": 2})
	table := alice.expect("created")["table"].(string)
	waiting := alice.expect("state")
	assert.Nil(t, waiting["board"], "game must wait for the second human")

	bob.send("list_tables", nil)
	listed := bob.expect("tables")["tables"].([]interface{})
	require.Len(t, listed, 1)
	entry := listed[0].(map[string]interface{})
	assert.Equal(t, table, entry["id"])
	assert.Equal(t, float64(1), entry["open"])

	bob.send("join_table", map[string]interface{}{"table": table})
	assert.Equal(t, float64(1), bob.expect("seated")["seat"])
	bob.expect(string(app.EventGameStarted))
	alice.expect(string(app.EventGameStarted))

	// Seat 0 belongs to alice.
	bob.send("resign", map[string]interface{}{"table": table, "seat": 0})
	assert.Equal(t, ErrNotSeated.Error(), bob.expect("error")["message"])

	carol := dial(t, url)
	carol.send("join_table", map[string]interface{}{"table": table})
	assert.Equal(t, ErrTableFull.Error(), carol.expect("error")["message"])
}

func TestHub_RequestErrors(t *testing.T) {
	_, url := newTestServer(t)
	c := dial(t, url)
	c.send("create_table", map[string]interface{}{"humans": 2})
	table := c.expect("created")["table"].(string)
	c.expect("state")

	tests := []struct {
		name   string
		typ    string
		fields map[string]interface{}
		want   string
	}{
		{name: "UnknownTable", typ: "join_table", fields: map[string]interface{}{"table": "nope"}, want: ErrNoTable.Error()},
		{name: "UnknownType", typ: "dance", want: `unknown message "dance": malformed request`},
		{name: "FractionalSeat", typ: "flip", fields: map[string]interface{}{"table": table, "seat": 0.5}, want: ErrBadRequest.Error()},
		{name: "BeforeStart", typ: "flip", fields: map[string]interface{}{"table": table, "seat": 0}, want: app.ErrNotPlaying.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.t = t
			c.send(tt.typ, tt.fields)
			assert.Equal(t, tt.want, c.expect("error")["message"])
		})
	}
}

func TestServeWS_RejectsUnknownOrigin(t *testing.T) {
	_, url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://evil.test"}},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"http://allowed.test"}},
	})
	require.NoError(t, err)
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func TestDisconnect_FreesLobbySeat(t *testing.T) {
	hub, url := newTestServer(t)
	alice := dial(t, url)
	alice.send("create_table", map[string]interface{}{"humans": 2})
	table := alice.expect("created")["table"].(string)
	alice.expect("state")

	require.NoError(t, alice.conn.Close(websocket.StatusNormalClosure, "bye"))

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, open := hub.tables[table]
		return !open
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDisconnect_MultiSeatClientResignsEverySeat(t *testing.T) {
	hub, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)

	alice.send("create_table", map[string]interface{}{"humans": 3})
	table := alice.expect("created")["table"].(string)
	alice.send("join_table", map[string]interface{}{"table": table})
	assert.Equal(t, float64(1), alice.expectWhere("seated", func(m map[string]interface{}) bool {
		return m["seat"] == float64(1)
	})["seat"])

	bob.send("join_table", map[string]interface{}{"table": table})
	assert.Equal(t, float64(2), bob.expect("seated")["seat"])
	bob.expect(string(app.EventGameStarted))

	require.NoError(t, alice.conn.Close(websocket.StatusNormalClosure, "bye"))

	for _, seat := range []float64{0, 1} {
		bob.expectWhere(string(app.EventPlayerEliminated), func(m map[string]interface{}) bool {
			return m["seat"] == seat && m["resigned"] == true
		})
	}
	state := bob.expectWhere("state", func(m map[string]interface{}) bool {
		return m["current_seat"] == float64(2)
	})
	assert.Equal(t, false, state["finished"])

	hub.mu.Lock()
	defer hub.mu.Unlock()
	tbl := hub.tables[table]
	require.NotNil(t, tbl)
	assert.Nil(t, tbl.owners[0])
	assert.Nil(t, tbl.owners[1])
}
