/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package codenames holds the authoritative room and turn state for the
// spyboard game.
//
// One shared TV display and two spymaster devices play a 25-card word game.
// Each spymaster sees the secret key, gives one-word clues for their team, and
// taps the guesses called out by the opposing team. Every intent is applied by
// the Service under a per-room lock and the resulting snapshot is handed to a
// Publisher for fan-out.
package codenames

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	// BoardSize is the number of cards dealt per game.
	BoardSize = 25

	startingAgents = 9
	otherAgents    = 8
	bystanders     = 7
	assassins      = 1

	// defaultTarget is used for both teams while a room sits in the lobby.
	defaultTarget = 8
)

type Team string

const (
	NoTeam Team = ""
	Red    Team = "red"
	Blue   Team = "blue"
)

// Other returns the opposing team. NoTeam has no opponent.
func (t Team) Other() Team {
	switch t {
	case Red:
		return Blue
	case Blue:
		return Red
	}
	return NoTeam
}

func (t Team) Valid() bool {
	return t == Red || t == Blue
}

// MarshalJSON encodes NoTeam as null.
func (t Team) MarshalJSON() ([]byte, error) {
	if t == NoTeam {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

func (t *Team) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = NoTeam
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Team(s) {
	case Red, Blue, NoTeam:
		*t = Team(s)
		return nil
	}
	return fmt.Errorf("unknown team %q", s)
}

type CardType string

const (
	CardRed       CardType = "red"
	CardBlue      CardType = "blue"
	CardBystander CardType = "bystander"
	CardAssassin  CardType = "assassin"
	// CardHidden is what spectators see for a card that has not been revealed.
	CardHidden CardType = "hidden"
)

// cardTypeFor maps a team to the agent cards it owns.
func cardTypeFor(t Team) CardType {
	switch t {
	case Red:
		return CardRed
	case Blue:
		return CardBlue
	}
	return CardBystander
}

// Team reports which team owns an agent card, or NoTeam for anything else.
func (c CardType) Team() Team {
	switch c {
	case CardRed:
		return Red
	case CardBlue:
		return Blue
	}
	return NoTeam
}

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseGameOver Phase = "game_over"
)

type Role string

const (
	RoleNone          Role = ""
	RoleRedSpymaster  Role = "red_spymaster"
	RoleBlueSpymaster Role = "blue_spymaster"
	RoleSpectator     Role = "spectator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRedSpymaster, RoleBlueSpymaster, RoleSpectator:
		return true
	}
	return false
}

// Spymaster reports whether the role holds one of the two exclusive seats.
func (r Role) Spymaster() bool {
	return r == RoleRedSpymaster || r == RoleBlueSpymaster
}

// Team returns the team a spymaster seat belongs to.
func (r Role) Team() Team {
	switch r {
	case RoleRedSpymaster:
		return Red
	case RoleBlueSpymaster:
		return Blue
	}
	return NoTeam
}

type ClueStatus string

const (
	ClueAllowed    ClueStatus = "allowed"
	ClueChallenged ClueStatus = "challenged"
	ClueRejected   ClueStatus = "rejected"
)

// ClueNumber is either a finite count or unlimited. The zero value is Finite(0).
type ClueNumber struct {
	n         int
	unlimited bool
}

func Finite(n int) ClueNumber {
	return ClueNumber{n: n}
}

func Unlimited() ClueNumber {
	return ClueNumber{unlimited: true}
}

func (c ClueNumber) IsUnlimited() bool {
	return c.unlimited
}

// Count returns the finite value and false when the number is unlimited.
func (c ClueNumber) Count() (int, bool) {
	if c.unlimited {
		return 0, false
	}
	return c.n, true
}

func (c ClueNumber) Equal(o ClueNumber) bool {
	return c == o
}

func (c ClueNumber) String() string {
	if c.unlimited {
		return "unlimited"
	}
	return strconv.Itoa(c.n)
}

func (c ClueNumber) MarshalJSON() ([]byte, error) {
	if c.unlimited {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.Itoa(c.n)), nil
}

func (c *ClueNumber) UnmarshalJSON(data []byte) error {
	if string(data) == `"unlimited"` {
		*c = Unlimited()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("clue number must be an integer or \"unlimited\": %w", err)
	}
	if n < 0 {
		return fmt.Errorf("clue number must not be negative: %d", n)
	}
	*c = Finite(n)
	return nil
}

type Clue struct {
	Word   string     `json:"word"`
	Number ClueNumber `json:"number"`
	Status ClueStatus `json:"status"`
}

type Card struct {
	ID         string     `json:"id"`
	Word       string     `json:"word"`
	Position   int        `json:"position"`
	Type       CardType   `json:"card_type"`
	Revealed   bool       `json:"is_revealed"`
	RevealedAt *time.Time `json:"revealed_at"`
}

type Player struct {
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
	LastSeen  time.Time `json:"last_seen"`
}

type EventKind string

const (
	EventClue      EventKind = "clue"
	EventSelection EventKind = "selection"
)

// Event is one entry of a room's append-only history. Clue events carry
// ClueWord and ClueNumber, selection events carry SelectedWord and
// SelectedType.
type Event struct {
	ID           string      `json:"id"`
	Seq          int         `json:"seq"`
	Kind         EventKind   `json:"event_type"`
	Team         Team        `json:"team"`
	ClueWord     string      `json:"clue_word,omitempty"`
	ClueNumber   *ClueNumber `json:"clue_number,omitempty"`
	SelectedWord string      `json:"selected_word,omitempty"`
	SelectedType CardType    `json:"selected_card_type,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type Settings struct {
	StrictClueRules    bool `json:"strict_clue_rules"`
	CluePenaltyEnabled bool `json:"clue_penalty_enabled"`
}

// Room is the aggregate for one room code. Values handed out by the Service
// are private copies; mutating them has no effect on the stored room.
type Room struct {
	Code     string   `json:"room_code"`
	Version  int64    `json:"version"`
	Settings Settings `json:"settings"`

	Phase        Phase `json:"game_state"`
	CurrentTurn  Team  `json:"current_turn"`
	StartingTeam Team  `json:"starting_team"`
	Clue         *Clue `json:"clue"`

	GuessesRemaining int `json:"guesses_remaining"`
	GuessesUsed      int `json:"guesses_used"`

	RedScore   int  `json:"red_score"`
	BlueScore  int  `json:"blue_score"`
	RedTarget  int  `json:"red_target"`
	BlueTarget int  `json:"blue_target"`
	Winner     Team `json:"winner"`

	Board   []Card   `json:"cards"`
	Players []Player `json:"players"`
	Log     []Event  `json:"logs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRoom returns an empty lobby room.
func NewRoom(code string, settings Settings, now time.Time) *Room {
	return &Room{
		Code:       code,
		Settings:   settings,
		Phase:      PhaseLobby,
		RedTarget:  defaultTarget,
		BlueTarget: defaultTarget,
		Board:      []Card{},
		Players:    []Player{},
		Log:        []Event{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}

	c := *r

	if r.Clue != nil {
		clue := *r.Clue
		c.Clue = &clue
	}

	c.Board = make([]Card, len(r.Board))
	for i, card := range r.Board {
		if card.RevealedAt != nil {
			at := *card.RevealedAt
			card.RevealedAt = &at
		}
		c.Board[i] = card
	}

	c.Players = append(make([]Player, 0, len(r.Players)), r.Players...)

	c.Log = make([]Event, len(r.Log))
	for i, e := range r.Log {
		if e.ClueNumber != nil {
			n := *e.ClueNumber
			e.ClueNumber = &n
		}
		c.Log[i] = e
	}

	return &c
}

// Score returns the current score of a team.
func (r *Room) Score(t Team) int {
	switch t {
	case Red:
		return r.RedScore
	case Blue:
		return r.BlueScore
	}
	return 0
}

// Target returns the number of agents a team must find to win.
func (r *Room) Target(t Team) int {
	switch t {
	case Red:
		return r.RedTarget
	case Blue:
		return r.BlueTarget
	}
	return 0
}

// Player looks up a player by session id.
func (r *Room) Player(sessionID string) (Player, bool) {
	for _, p := range r.Players {
		if p.SessionID == sessionID {
			return p, true
		}
	}
	return Player{}, false
}

// SeatHolder returns the session id holding a spymaster seat, if any.
func (r *Room) SeatHolder(role Role) (string, bool) {
	if !role.Spymaster() {
		return "", false
	}
	for _, p := range r.Players {
		if p.Role == role {
			return p.SessionID, true
		}
	}
	return "", false
}

// UnrevealedWords returns the words still face down, in board order.
func (r *Room) UnrevealedWords() []string {
	words := make([]string, 0, len(r.Board))
	for _, c := range r.Board {
		if !c.Revealed {
			words = append(words, c.Word)
		}
	}
	return words
}

func (r *Room) card(id string) (int, bool) {
	for i := range r.Board {
		if r.Board[i].ID == id {
			return i, true
		}
	}
	return -1, false
}
