package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"blockus/internal/app"
	"blockus/internal/bot"
	"blockus/internal/domain"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
	"nhooyr.io/websocket"
)

// ---------- message envelope ----------

// Msg is the inbound envelope: a type and its fields.
type Msg struct {
	T string                 `json:"t"`
	M map[string]interface{} `json:"m,omitempty"`
}

// Envelope is the outbound counterpart; M is any JSON-encodable payload.
type Envelope struct {
	T string      `json:"t"`
	M interface{} `json:"m,omitempty"`
}

var (
	ErrNoTable    = errors.New("table not found")
	ErrTableFull  = errors.New("table full")
	ErrNotSeated  = errors.New("seat is not yours")
	ErrBadRequest = errors.New("malformed request")
)

// ---------- client / table / hub ----------

type Client struct {
	id   string
	name string
	conn *websocket.Conn
	send chan []byte
}

// Table is one local game. Seats below Humans wait for clients; the rest are
// bots. A client may hold several seats for hot-seat play.
type Table struct {
	ID     string
	Humans int
	Seats  [domain.NumColors]string
	Game   *app.Game

	owners [domain.NumColors]*Client
	bots   map[int]*bot.Agent
}

// Hub serves local games over websockets.
type Hub struct {
	logger       runtime.Logger
	app          *app.Service
	allowOrigins map[string]bool

	mu      sync.Mutex
	clients map[*Client]struct{}
	tables  map[string]*Table
}

func NewHub(logger runtime.Logger, svc *app.Service, allow []string) *Hub {
	m := map[string]bool{}
	for _, a := range allow {
		if a != "" {
			m[a] = true
		}
	}
	return &Hub{
		logger:       logger,
		app:          svc,
		allowOrigins: m,
		clients:      map[*Client]struct{}{},
		tables:       map[string]*Table{},
	}
}

// ---------- websockets ----------

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Warn("ServeWS: accept failed: %v", err)
		return
	}

	client := &Client{id: uuid.NewString(), conn: c, send: make(chan []byte, 256)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client %s connected", client.id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// writer
	go func() {
		ping := time.NewTicker(15 * time.Second)
		defer func() { ping.Stop(); _ = c.Close(websocket.StatusNormalClosure, "bye") }()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				if err := c.Write(ctx, websocket.MessageText, msg); err != nil {
					return
				}
			case <-ping.C:
				_ = c.Ping(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	h.sendTo(client, Envelope{T: "hello", M: map[string]interface{}{"id": client.id}})

	// reader
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		var m Msg
		if err := json.Unmarshal(data, &m); err != nil {
			h.sendError(client, ErrBadRequest)
			continue
		}
		if err := h.handle(client, m); err != nil {
			h.sendError(client, err)
		}
	}

	h.disconnect(client)
	h.logger.Info("client %s disconnected", client.id)
}

func (h *Hub) handle(client *Client, m Msg) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch m.T {
	case "set_name":
		if name, _ := m.M["name"].(string); name != "" {
			client.name = name
		}
		return nil

	case "list_tables":
		h.sendTo(client, Envelope{T: "tables", M: map[string]interface{}{"tables": h.tablesSnapshot()}})
		return nil

	case "create_table":
		humans := 1
		if v, ok := m.M["humans"].(float64); ok && v >= 1 && v <= domain.NumColors {
			humans = int(v)
		}
		t := h.newTable(humans)
		h.sendTo(client, Envelope{T: "created", M: map[string]interface{}{"table": t.ID, "humans": humans}})
		return h.join(client, t)

	case "join_table":
		id, _ := m.M["table"].(string)
		t := h.tables[id]
		if t == nil {
			return ErrNoTable
		}
		return h.join(client, t)

	case "select", "rotate_left", "rotate_right", "flip", "preview", "place", "resign":
		t, seat, err := h.seatFor(client, m)
		if err != nil {
			return err
		}
		events, err := h.apply(t, seat, m)
		if err != nil {
			return err
		}
		h.publish(t, events)
		h.runBots(t)
		h.sendState(t)
		return nil
	}
	return fmt.Errorf("unknown message %q: %w", m.T, ErrBadRequest)
}

func (h *Hub) newTable(humans int) *Table {
	t := &Table{ID: uuid.NewString(), Humans: humans, bots: map[int]*bot.Agent{}}
	used := map[string]bool{}
	for seat := humans; seat < domain.NumColors; seat++ {
		identity := bot.GetBotIdentity(seat)
		if used[identity.UserID] {
			identity = bot.BotIdentity{UserID: fmt.Sprintf("%s%d", bot.FallbackIDPrefix, seat)}
		}
		used[identity.UserID] = true
		t.Seats[seat] = identity.UserID
		agent, err := bot.NewAgent(identity.UserID)
		if err != nil {
			h.logger.Error("newTable: bot agent for %s: %v", identity.UserID, err)
			continue
		}
		t.bots[seat] = agent
	}
	h.tables[t.ID] = t
	h.logger.Info("table %s created humans=%d", t.ID, humans)
	return t
}

// join gives client the next free human seat and starts the game once every
// human seat is taken.
func (h *Hub) join(client *Client, t *Table) error {
	seat := -1
	for i := 0; i < t.Humans; i++ {
		if t.Seats[i] == "" {
			seat = i
			break
		}
	}
	if seat < 0 || t.Game != nil {
		return ErrTableFull
	}
	// Seat IDs stay unique when one client takes several seats.
	t.Seats[seat] = fmt.Sprintf("%s#%d", client.id, seat)
	t.owners[seat] = client
	h.sendTo(client, Envelope{T: "seated", M: map[string]interface{}{"table": t.ID, "seat": seat, "color": domain.TurnOrder[seat]}})

	for i := 0; i < t.Humans; i++ {
		if t.Seats[i] == "" {
			h.sendState(t)
			return nil
		}
	}

	var names [domain.NumColors]string
	for i, id := range t.Seats {
		if owner := t.owners[i]; owner != nil {
			names[i] = owner.name
		} else {
			names[i] = bot.GetBotDisplayName(id)
		}
	}
	game, events, err := h.app.StartGame(t.Seats, names)
	if err != nil {
		return err
	}
	t.Game = game
	h.publish(t, events)
	h.runBots(t)
	h.sendState(t)
	return nil
}

func (h *Hub) seatFor(client *Client, m Msg) (*Table, int, error) {
	id, _ := m.M["table"].(string)
	t := h.tables[id]
	if t == nil {
		return nil, -1, ErrNoTable
	}
	v, ok := m.M["seat"].(float64)
	seat := int(v)
	if !ok || float64(seat) != v || seat < 0 || seat >= domain.NumColors {
		return nil, -1, ErrBadRequest
	}
	if t.owners[seat] != client {
		return nil, -1, ErrNotSeated
	}
	if t.Game == nil {
		return nil, -1, app.ErrNotPlaying
	}
	return t, seat, nil
}

func (h *Hub) apply(t *Table, seat int, m Msg) ([]app.Event, error) {
	switch m.T {
	case "select":
		index, ok := m.M["index"].(float64)
		if !ok {
			return nil, ErrBadRequest
		}
		return h.app.SelectPiece(t.Game, seat, int(index))
	case "rotate_left":
		return h.app.RotateLeft(t.Game, seat)
	case "rotate_right":
		return h.app.RotateRight(t.Game, seat)
	case "flip":
		return h.app.Flip(t.Game, seat)
	case "preview":
		x, okX := m.M["x"].(float64)
		y, okY := m.M["y"].(float64)
		if !okX || !okY {
			return nil, ErrBadRequest
		}
		return h.app.MovePreview(t.Game, seat, x, y)
	case "place":
		x, okX := m.M["x"].(float64)
		y, okY := m.M["y"].(float64)
		if !okX || !okY {
			return nil, ErrBadRequest
		}
		return h.app.PlacePiece(t.Game, seat, int(x), int(y))
	default:
		return h.app.Resign(t.Game, seat)
	}
}

// runBots plays bot turns until a human is up or the game ends.
func (h *Hub) runBots(t *Table) {
	for t.Game != nil && !t.Game.Match.Finished() {
		seat := t.Game.CurrentSeat()
		agent, ok := t.bots[seat]
		if !ok {
			return
		}
		mv, err := agent.Play(t.Game)
		var events []app.Event
		if err == nil && !mv.Resign {
			events, err = h.app.PlayMove(t.Game, seat, mv.Placement)
		}
		if err != nil || mv.Resign {
			if err != nil {
				h.logger.Error("runBots: seat %d: %v", seat, err)
			}
			events, err = h.app.Resign(t.Game, seat)
			if err != nil {
				h.logger.Error("runBots: seat %d failed to resign: %v", seat, err)
				return
			}
		}
		h.publish(t, events)
	}
}

// publish fans events out to the table's clients and bots.
func (h *Hub) publish(t *Table, events []app.Event) {
	for _, ev := range events {
		for _, agent := range t.bots {
			agent.OnGameEvent(ev)
		}
		h.sendToTable(t, Envelope{T: string(ev.Kind), M: ev.Payload})
	}
}

func (h *Hub) sendState(t *Table) {
	state := map[string]interface{}{
		"table":  t.ID,
		"seats":  t.Seats,
		"humans": t.Humans,
	}
	if t.Game != nil {
		scores := make([]int, 0, domain.NumColors)
		for _, pl := range t.Game.Match.Players() {
			scores = append(scores, pl.Score())
		}
		state["board"] = t.Game.Match.Board().Rows()
		state["current_seat"] = t.Game.CurrentSeat()
		state["scores"] = scores
		state["finished"] = t.Game.Match.Finished()
	}
	h.sendToTable(t, Envelope{T: "state", M: state})
}

func (h *Hub) disconnect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
	close(client.send)

	for id, t := range h.tables {
		// Drop every seat first so nothing below sends to the closed client.
		var held []int
		for seat, owner := range t.owners {
			if owner == client {
				t.owners[seat] = nil
				held = append(held, seat)
			}
		}
		if len(held) == 0 {
			continue
		}
		for _, seat := range held {
			if t.Game == nil {
				t.Seats[seat] = ""
				continue
			}
			if pl, err := t.Game.Player(seat); err == nil && pl.StillPlaying() && !t.Game.Match.Finished() {
				events, err := h.app.Resign(t.Game, seat)
				if err != nil {
					h.logger.Warn("disconnect: resign seat %d: %v", seat, err)
					continue
				}
				h.publish(t, events)
			}
		}
		if !h.hasClients(t) {
			delete(h.tables, id)
			h.logger.Info("table %s closed", id)
			continue
		}
		h.runBots(t)
		h.sendState(t)
	}
}

func (h *Hub) hasClients(t *Table) bool {
	for _, owner := range t.owners {
		if owner != nil {
			return true
		}
	}
	return false
}

// ---------- helpers ----------

func (h *Hub) tablesSnapshot() []map[string]interface{} {
	list := make([]map[string]interface{}, 0, len(h.tables))
	for _, t := range h.tables {
		open := 0
		for i := 0; i < t.Humans; i++ {
			if t.Seats[i] == "" {
				open++
			}
		}
		list = append(list, map[string]interface{}{
			"id": t.ID, "humans": t.Humans, "open": open, "started": t.Game != nil,
		})
	}
	return list
}

func (h *Hub) sendError(c *Client, err error) {
	h.sendTo(c, Envelope{T: "error", M: map[string]interface{}{"message": err.Error()}})
}

func (h *Hub) sendToTable(t *Table, msg Envelope) {
	sent := map[*Client]bool{}
	for _, owner := range t.owners {
		if owner == nil || sent[owner] {
			continue
		}
		sent[owner] = true
		h.sendTo(owner, msg)
	}
}

func (h *Hub) sendTo(c *Client, msg Envelope) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("sendTo: marshal %s: %v", msg.T, err)
		return
	}
	select {
	case c.send <- b:
	default:
		h.logger.Warn("sendTo: client %s is slow, dropping %s", c.id, msg.T)
	}
}
