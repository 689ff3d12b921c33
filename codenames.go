/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Spyboard Codenames
//
// One shared screen shows the board, and each team's spymaster holds a phone
// showing the key. Spymasters give clues out loud and tap the cards the
// opposing team's field agents call out.
//
// Routes, relative to $path:
//   - $path                → create a room and redirect to it
//   - $path/:code          → landing page with join QR
//   - $path/:code/ws       → websocket for that room
//   - $path/:code/qr       → PNG QR code for the room URL
//   - $path/:code/state    → JSON spectator snapshot

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"

	"github.com/Seednode/spyboard/games/codenames"
)

const (
	sessionCookieName = "spyboard_session"
	sendBuffer        = 16
	maxMessageSize    = 4096
	intentTimeout     = 5 * time.Second
)

// Messages coming from clients
type ClientMessage struct {
	Type               string          `json:"type"`
	Role               codenames.Role  `json:"role,omitempty"`                 // join
	StrictClueRules    *bool           `json:"strict_clue_rules,omitempty"`    // configure
	CluePenaltyEnabled *bool           `json:"clue_penalty_enabled,omitempty"` // configure
	Word               string          `json:"word,omitempty"`                 // submit_clue
	Number             json.RawMessage `json:"number,omitempty"`               // submit_clue
	Decision           string          `json:"decision,omitempty"`             // resolve_challenge
	CardID             string          `json:"card_id,omitempty"`              // select_card
}

// SessionInfoMessage is sent on connect so the device learns its identity.
type SessionInfoMessage struct {
	Type      string `json:"type"` // "session_info"
	SessionID string `json:"session_id"`
	RoomCode  string `json:"room_code"`
}

// StateMessage carries the room as seen by the receiving device's role.
type StateMessage struct {
	Type string          `json:"type"` // "state"
	Room *codenames.Room `json:"room"`
}

// ErrorMessage goes only to the device whose intent failed.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Client struct {
	conn      *websocket.Conn
	send      chan any
	sessionID string
	limiter   *rate.Limiter

	mu     sync.Mutex
	closed bool
}

// trySend queues msg without blocking. It reports false when the buffer is
// full or the client is already closed.
func (c *Client) trySend(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub fans committed snapshots of one room out to its connected devices.
type Hub struct {
	code string
	gm   *GameManager

	clients map[*Client]bool

	unreg chan *Client
	done  chan struct{}

	mu sync.Mutex
}

func newHub(gm *GameManager, code string) *Hub {
	return &Hub{
		code:    code,
		gm:      gm,
		clients: make(map[*Client]bool),
		unreg:   make(chan *Client),
		done:    make(chan struct{}),
	}
}

// register attaches c before any snapshot is published to it. It reports
// false if the hub has already been closed.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}

	h.clients[c] = true

	c.trySend(SessionInfoMessage{
		Type:      "session_info",
		SessionID: c.sessionID,
		RoomCode:  h.code,
	})

	return true
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.unreg:
			h.mu.Lock()
			delete(h.clients, c)
			c.close()
			h.mu.Unlock()

			if c.sessionID != "" && cfg.playerTimeout > 0 {
				go h.scheduleRemoval(cfg, c.sessionID, cfg.playerTimeout)
			}

		case <-h.done:
			return
		}
	}
}

// publish sends each device the view its role allows. A device that cannot
// keep up is dropped rather than allowed to stall the room.
func (h *Hub) publish(room *codenames.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// One device may hold several sockets, e.g. two tabs.
	views := make(map[string]StateMessage, len(h.clients))

	for c := range h.clients {
		msg, ok := views[c.sessionID]
		if !ok {
			msg = StateMessage{Type: "state", Room: room.ViewFor(c.sessionID)}
			views[c.sessionID] = msg
		}

		if !c.trySend(msg) {
			delete(h.clients, c)
			c.close()
			_ = c.conn.Close()
		}
	}
}

// connected reports whether any device with sessionID is attached.
func (h *Hub) connected(sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if c.sessionID == sessionID {
			return true
		}
	}

	return false
}

// scheduleRemoval waits for d, and if the device has not reconnected,
// removes it from the room so its seat can be claimed again.
func (h *Hub) scheduleRemoval(cfg *Config, sessionID string, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-h.done:
		return
	}

	if h.connected(sessionID) {
		return
	}

	ctx, cancel := context.WithTimeout(h.gm.ctx, intentTimeout)
	defer cancel()

	_, err := h.gm.svc.LeaveRoom(ctx, h.code, sessionID)
	switch {
	case err == nil:
		logf(cfg, "GAMES: Removed idle device from room %s", h.code)
	case errors.Is(err, codenames.ErrRoomNotFound), errors.Is(err, context.Canceled):
	default:
		errorf(cfg, err, "ERROR: removing idle device from room %s", h.code)
	}
}

// closeAll disconnects all clients of this hub and stops its loop.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return
	default:
		close(h.done)
	}

	for c := range h.clients {
		c.close()
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

func getOrSetSessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager owns the room service and one hub per room with live sockets.
type GameManager struct {
	ctx      context.Context
	cfg      *Config
	svc      *codenames.Service
	upgrader websocket.Upgrader

	mu   sync.Mutex
	hubs map[string]*Hub
}

func newGameManager(ctx context.Context, cfg *Config, store codenames.Store) *GameManager {
	gm := &GameManager{
		ctx:      ctx,
		cfg:      cfg,
		upgrader: newUpgrader(),
		hubs:     make(map[string]*Hub),
	}

	gm.svc = codenames.NewService(store,
		codenames.WithLogger(cfg.logger),
		codenames.WithPublisher(gm),
		codenames.WithDefaults(codenames.Settings{
			StrictClueRules:    cfg.strictClues,
			CluePenaltyEnabled: cfg.cluePenalty,
		}),
	)

	if cfg.sessionTimeout > 0 {
		go gm.reaperLoop()
	}

	return gm
}

// Publish implements codenames.Publisher. Rooms with no sockets have no hub.
func (gm *GameManager) Publish(code string, room *codenames.Room) {
	gm.mu.Lock()
	hub, ok := gm.hubs[code]
	gm.mu.Unlock()

	if ok {
		hub.publish(room)
	}
}

func (gm *GameManager) getHub(code string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[code]; ok {
		return hub
	}

	hub := newHub(gm, code)
	gm.hubs[code] = hub
	go hub.run(gm.cfg)
	return hub
}

func (gm *GameManager) dropHub(code string) {
	gm.mu.Lock()
	hub, ok := gm.hubs[code]
	delete(gm.hubs, code)
	gm.mu.Unlock()

	if ok {
		hub.closeAll()
	}
}

func (gm *GameManager) closeAll() {
	gm.mu.Lock()
	hubs := gm.hubs
	gm.hubs = make(map[string]*Hub)
	gm.mu.Unlock()

	for _, hub := range hubs {
		hub.closeAll()
	}
}

// reaperLoop periodically deletes rooms that have been idle longer than the session timeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.cfg.sessionTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.cfg.sessionTimeout))
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	ctx, cancel := context.WithTimeout(gm.ctx, timeout)
	defer cancel()

	codes, err := gm.svc.Sweep(ctx, cutoff)
	if err != nil {
		errorf(gm.cfg, err, "ERROR: sweeping idle rooms")
		return
	}

	for _, code := range codes {
		gm.dropHub(code)
		logf(gm.cfg, "GAMES: Reaped idle room %s", code)
	}
}

func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := codenames.NormalizeRoomCode(ps.ByName("code"))

		if _, err := gm.svc.Room(r.Context(), code); err != nil {
			writeError(w, err)
			return
		}

		sessionID := getOrSetSessionID(w, r)

		conn, err := gm.upgrader.Upgrade(w, r, w.Header())
		if err != nil {
			errorf(cfg, err, "ERROR: upgrading websocket for room %s", code)
			return
		}

		client := &Client{
			conn:      conn,
			send:      make(chan any, sendBuffer),
			sessionID: sessionID,
			limiter:   rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst),
		}

		hub := gm.getHub(code)

		if !hub.register(client) {
			_ = conn.Close()
			return
		}

		go client.writePump()

		logf(cfg, "GAMES: Device connected to room %s from %s", code, realIP(r))

		// Joining refreshes the device and publishes a snapshot to everyone,
		// including this socket.
		client.dispatch(r.Context(), gm, code, ClientMessage{Type: "join"})

		client.readPump(r.Context(), gm, hub)
	}
}

func (c *Client) readPump(ctx context.Context, gm *GameManager, h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if !c.limiter.Allow() {
			c.sendError("rate_limited", "Too many messages, slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("bad_request", "Malformed message")
			continue
		}

		c.dispatch(ctx, gm, h.code, msg)
	}
}

// dispatch applies one intent. The resulting snapshot reaches this socket
// through the hub; only failures are answered directly.
func (c *Client) dispatch(ctx context.Context, gm *GameManager, code string, msg ClientMessage) {
	ctx, cancel := context.WithTimeout(ctx, intentTimeout)
	defer cancel()

	svc := gm.svc

	var err error

	switch msg.Type {
	case "join":
		_, err = svc.JoinRoom(ctx, code, c.sessionID, msg.Role)
	case "configure":
		_, err = svc.ConfigureRoom(ctx, code, msg.StrictClueRules, msg.CluePenaltyEnabled)
	case "start_game":
		_, err = svc.StartGame(ctx, code)
	case "submit_clue":
		err = submitClue(ctx, svc, code, msg)
	case "challenge_clue":
		_, err = svc.ChallengeClue(ctx, code)
	case "resolve_challenge":
		_, err = svc.ResolveChallenge(ctx, code, codenames.ClueStatus(msg.Decision))
	case "select_card":
		_, err = svc.SelectCard(ctx, code, msg.CardID)
	case "end_turn":
		_, err = svc.EndTurnEarly(ctx, code)
	case "reset_game":
		_, err = svc.ResetGame(ctx, code)
	default:
		c.sendError("bad_request", fmt.Sprintf("Unknown message type %q", msg.Type))
		return
	}

	if err != nil {
		errCode, message := errorCode(err)
		if errCode == "internal" {
			errorf(gm.cfg, err, "ERROR: applying %s to room %s", msg.Type, code)
		}
		c.sendError(errCode, message)
	}
}

// submitClue runs the clue checker first when the room asks for strict rules.
func submitClue(ctx context.Context, svc *codenames.Service, code string, msg ClientMessage) error {
	var number codenames.ClueNumber
	if err := json.Unmarshal(msg.Number, &number); err != nil {
		return fmt.Errorf("%w: %v", codenames.ErrInvalidClue, err)
	}

	room, err := svc.Room(ctx, code)
	if err != nil {
		return err
	}

	if room.Settings.StrictClueRules && room.Phase == codenames.PhasePlaying {
		if verdict := codenames.ValidateClue(msg.Word, room.UnrevealedWords()); !verdict.OK {
			return clueRejection(verdict.Reason)
		}
	}

	_, err = svc.SubmitClue(ctx, code, msg.Word, number)
	return err
}

type clueRejection string

func (r clueRejection) Error() string { return string(r) }

func (r clueRejection) Unwrap() error { return codenames.ErrInvalidClue }

// errorCode maps a service error to the code and text sent to the device.
func errorCode(err error) (string, string) {
	var rejection clueRejection

	switch {
	case errors.As(err, &rejection):
		return "invalid_clue", string(rejection)
	case errors.Is(err, codenames.ErrRoomNotFound):
		return "room_not_found", "Room not found"
	case errors.Is(err, codenames.ErrRoleConflict):
		return "role_conflict", "That seat is already taken"
	case errors.Is(err, codenames.ErrAlreadyRevealed):
		return "already_revealed", "That card is already revealed"
	case errors.Is(err, codenames.ErrCardNotFound):
		return "card_not_found", "No such card"
	case errors.Is(err, codenames.ErrInvalidClue):
		return "invalid_clue", err.Error()
	case errors.Is(err, codenames.ErrInvalidTransition):
		return "invalid_transition", err.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "internal", "Request timed out"
	default:
		return "internal", "Internal error"
	}
}

func (c *Client) sendError(code, message string) {
	c.trySend(ErrorMessage{Type: "error", Code: code, Message: message})
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	code, message := errorCode(err)

	status := http.StatusInternalServerError
	if code == "room_not_found" {
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorMessage{Type: "error", Code: code, Message: message})
}

// roomURL derives the public URL of a room page from the request.
func roomURL(r *http.Request, suffix string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, suffix)
}

// QR handler: generates a PNG QR code for the room URL using go-qrcode.
func qrHandler(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, err := gm.svc.Room(r.Context(), ps.ByName("code")); err != nil {
			writeError(w, err)
			return
		}

		const qrSize = 320
		png, err := qrcode.Encode(roomURL(r, "/qr"), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err
		}
	}
}

// stateHandler serves the spectator view, for displays that poll instead of holding a socket.
func stateHandler(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := gm.svc.Room(r.Context(), ps.ByName("code"))
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(room.ViewFor("")); err != nil {
			errs <- err
		}
	}
}

func roomPageHandler(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		room, err := gm.svc.Room(r.Context(), ps.ByName("code"))
		if err != nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			securityHeaders(cfg, w)
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(newPage("Room not found",
				`<p>That room does not exist or has expired.</p><p><a href="`+cfg.prefix+`/codenames">Start a new room</a></p>`)))
			return
		}

		_ = getOrSetSessionID(w, r)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		code := html.EscapeString(room.Code)

		written, err := w.Write([]byte(newPage("Codenames "+room.Code,
			`<h1>Room `+code+`</h1>`+
				`<p><img src="`+code+`/qr" alt="Join QR code" width="320" height="320"></p>`+
				`<p>Scan to join as a spymaster. Connect displays to <code>`+code+`/ws</code>.</p>`)))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Room page %s (%s) to %s in %s",
			room.Code,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// redirectNewGame handles GET $path by creating a room and redirecting to $path/:code.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		room, err := gm.svc.CreateRoom(r.Context())
		if err != nil {
			errorf(cfg, err, "ERROR: creating room")
			writeError(w, err)
			return
		}

		logf(cfg, "GAMES: Created room %s%s/%s", cfg.prefix, path, room.Code)
		http.Redirect(w, r, cfg.prefix+path+"/"+room.Code, http.StatusSeeOther)
	}
}

func registerCodenamesGame(cfg *Config, path string, mux *httprouter.Router, gm *GameManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))
	mux.GET(cfg.prefix+path+"/:code", roomPageHandler(cfg, gm, errs))
	mux.GET(cfg.prefix+path+"/:code/ws", serveWSForManager(cfg, gm))
	mux.GET(cfg.prefix+path+"/:code/qr", qrHandler(cfg, gm, errs))
	mux.GET(cfg.prefix+path+"/:code/state", stateHandler(cfg, gm, errs))
}
