/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// The methods in this file are the game rules. They mutate the receiver in
// place and must only ever run against a private copy held under the room
// lock; on error the copy is discarded, so a failed intent never leaves a
// partial change behind.

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidTransition}, args...)...)
}

func (r *Room) join(sessionID string, role Role, now time.Time) error {
	if sessionID == "" {
		return invalid("missing session id")
	}
	if role != RoleNone && !role.Valid() {
		return invalid("unknown role %q", role)
	}

	// A device that loses a seat race still joins; it just keeps its
	// current role, or becomes a spectator if it is new.
	var conflict error
	if role.Spymaster() {
		if holder, ok := r.SeatHolder(role); ok && holder != sessionID {
			conflict = fmt.Errorf("%w: %s", ErrRoleConflict, role)
			role = RoleNone
		}
	}

	for i := range r.Players {
		if r.Players[i].SessionID != sessionID {
			continue
		}

		r.Players[i].LastSeen = now
		if role != RoleNone {
			r.Players[i].Role = role
		}

		return conflict
	}

	if role == RoleNone {
		role = RoleSpectator
	}

	r.Players = append(r.Players, Player{
		SessionID: sessionID,
		Role:      role,
		JoinedAt:  now,
		LastSeen:  now,
	})

	return conflict
}

// leave drops a player and reports whether one was removed.
func (r *Room) leave(sessionID string) bool {
	for i := range r.Players {
		if r.Players[i].SessionID == sessionID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) configure(strict, penalty *bool) error {
	if r.Phase != PhaseLobby {
		return invalid("settings can only change in the lobby")
	}

	if strict != nil {
		r.Settings.StrictClueRules = *strict
	}
	if penalty != nil {
		r.Settings.CluePenaltyEnabled = *penalty
	}

	return nil
}

func (r *Room) start(startingTeam Team, words []string, key []CardType, now time.Time) error {
	if r.Phase != PhaseLobby {
		return invalid("game already started")
	}
	if _, ok := r.SeatHolder(RoleRedSpymaster); !ok {
		return invalid("red spymaster seat is empty")
	}
	if _, ok := r.SeatHolder(RoleBlueSpymaster); !ok {
		return invalid("blue spymaster seat is empty")
	}
	if !startingTeam.Valid() {
		return invalid("unknown starting team %q", startingTeam)
	}
	if len(words) != BoardSize || len(key) != BoardSize {
		return invalid("board needs %d words and key entries, got %d and %d", BoardSize, len(words), len(key))
	}

	board := make([]Card, BoardSize)
	for i := range board {
		board[i] = Card{
			ID:       uuid.NewString(),
			Word:     words[i],
			Position: i,
			Type:     key[i],
		}
	}

	r.Board = board
	r.Phase = PhasePlaying
	r.StartingTeam = startingTeam
	r.CurrentTurn = startingTeam
	r.Clue = nil
	r.GuessesRemaining = 0
	r.GuessesUsed = 0
	r.RedScore = 0
	r.BlueScore = 0
	r.RedTarget = otherAgents
	r.BlueTarget = otherAgents
	if startingTeam == Red {
		r.RedTarget = startingAgents
	} else {
		r.BlueTarget = startingAgents
	}
	r.Winner = NoTeam
	r.Log = []Event{}

	return nil
}

func (r *Room) submitClue(word string, number ClueNumber, now time.Time) error {
	if r.Phase != PhasePlaying {
		return invalid("no game in progress")
	}
	if r.Clue != nil {
		return invalid("a clue is already active")
	}

	word = NormalizeClue(word)
	if word == "" {
		return fmt.Errorf("%w: clue cannot be empty", ErrInvalidClue)
	}

	n, finite := number.Count()
	if finite && n < 0 {
		return fmt.Errorf("%w: clue number must not be negative", ErrInvalidClue)
	}

	r.Clue = &Clue{
		Word:   word,
		Number: number,
		Status: ClueAllowed,
	}
	r.GuessesUsed = 0
	r.GuessesRemaining = 0
	if finite {
		r.GuessesRemaining = n + 1
	}

	r.appendEvent(Event{
		Kind:       EventClue,
		Team:       r.CurrentTurn,
		ClueWord:   word,
		ClueNumber: &number,
	}, now)

	return nil
}

func (r *Room) challengeClue() error {
	if r.Phase != PhasePlaying || r.Clue == nil {
		return invalid("no clue to challenge")
	}
	if r.Clue.Status != ClueAllowed {
		return invalid("clue is already %s", r.Clue.Status)
	}

	r.Clue.Status = ClueChallenged

	return nil
}

func (r *Room) resolveChallenge(decision ClueStatus, now time.Time) error {
	if r.Phase != PhasePlaying || r.Clue == nil || r.Clue.Status != ClueChallenged {
		return invalid("no challenge to resolve")
	}

	switch decision {
	case ClueAllowed:
		r.Clue.Status = ClueAllowed
		return nil
	case ClueRejected:
	default:
		return invalid("unknown decision %q", decision)
	}

	r.Clue.Status = ClueRejected
	challenger := r.CurrentTurn.Other()

	if r.Settings.CluePenaltyEnabled {
		for i := range r.Board {
			card := &r.Board[i]
			if card.Revealed || card.Type != cardTypeFor(challenger) {
				continue
			}

			r.reveal(card, now)
			r.addScore(challenger)
			if r.Score(challenger) >= r.Target(challenger) {
				r.finish(challenger)
				return nil
			}

			break
		}
	}

	r.endTurn()

	return nil
}

func (r *Room) selectCard(cardID string, now time.Time) error {
	if r.Phase != PhasePlaying {
		return invalid("no game in progress")
	}

	i, ok := r.card(cardID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}

	card := &r.Board[i]
	if card.Revealed {
		return fmt.Errorf("%w: %s", ErrAlreadyRevealed, card.Word)
	}
	if r.Clue == nil || r.Clue.Status != ClueAllowed {
		return invalid("no clue to guess against")
	}

	turn := r.CurrentTurn

	r.reveal(card, now)
	r.appendEvent(Event{
		Kind:         EventSelection,
		Team:         turn,
		SelectedWord: card.Word,
		SelectedType: card.Type,
	}, now)

	winner := NoTeam
	turnEnds := false

	switch card.Type {
	case CardRed, CardBlue:
		owner := card.Type.Team()
		r.addScore(owner)
		if r.Score(owner) >= r.Target(owner) {
			winner = owner
		} else if owner != turn {
			turnEnds = true
		}
	case CardBystander:
		turnEnds = true
	case CardAssassin:
		winner = turn.Other()
	}

	unlimited := r.Clue.Number.IsUnlimited()
	if !unlimited {
		r.GuessesRemaining--
	}
	r.GuessesUsed++

	if winner == NoTeam && !turnEnds && !unlimited && r.GuessesRemaining <= 0 {
		turnEnds = true
	}

	switch {
	case winner != NoTeam:
		r.finish(winner)
	case turnEnds:
		r.endTurn()
	}

	return nil
}

func (r *Room) endTurnEarly() error {
	if r.Phase != PhasePlaying || r.Clue == nil {
		return invalid("no clue is active")
	}
	if r.Clue.Status != ClueAllowed {
		return invalid("clue is %s", r.Clue.Status)
	}
	if r.GuessesUsed < 1 {
		return invalid("at least one guess is required before ending the turn")
	}

	r.endTurn()

	return nil
}

// reset returns the room to the lobby, keeping players and settings.
func (r *Room) reset() {
	r.Phase = PhaseLobby
	r.CurrentTurn = NoTeam
	r.StartingTeam = NoTeam
	r.Clue = nil
	r.GuessesRemaining = 0
	r.GuessesUsed = 0
	r.RedScore = 0
	r.BlueScore = 0
	r.RedTarget = defaultTarget
	r.BlueTarget = defaultTarget
	r.Winner = NoTeam
	r.Board = []Card{}
	r.Log = []Event{}
}

func (r *Room) endTurn() {
	r.CurrentTurn = r.CurrentTurn.Other()
	r.Clue = nil
	r.GuessesRemaining = 0
	r.GuessesUsed = 0
}

// finish ends the game. Guess counters are left as they were.
func (r *Room) finish(winner Team) {
	r.Phase = PhaseGameOver
	r.Winner = winner
	r.Clue = nil
}

func (r *Room) reveal(card *Card, now time.Time) {
	at := now
	card.Revealed = true
	card.RevealedAt = &at
}

func (r *Room) addScore(t Team) {
	switch t {
	case Red:
		r.RedScore++
	case Blue:
		r.BlueScore++
	}
}

func (r *Room) appendEvent(e Event, now time.Time) {
	e.ID = uuid.NewString()
	e.Seq = len(r.Log) + 1
	e.CreatedAt = now
	r.Log = append(r.Log, e)
}
