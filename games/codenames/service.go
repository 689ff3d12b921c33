/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"context"
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const maxPutAttempts = 8

// errUnchanged lets an intent finish successfully without writing the room.
var errUnchanged = errors.New("unchanged")

// Publisher receives every committed snapshot of a room. Publish is called
// while the room is still locked, so snapshots of one room arrive in commit
// order. Implementations must not block.
type Publisher interface {
	Publish(code string, room *Room)
}

type PublisherFunc func(code string, room *Room)

func (f PublisherFunc) Publish(code string, room *Room) {
	f(code, room)
}

type Option func(*Service)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.pub = p
	}
}

// WithRand replaces the random source used for starting teams, boards and keys.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		s.rng = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithWordPool(pool []string) Option {
	return func(s *Service) {
		s.pool = pool
	}
}

// WithDefaults sets the settings given to newly created rooms.
func WithDefaults(settings Settings) Option {
	return func(s *Service) {
		s.defaults = settings
	}
}

// Service applies intents to rooms held in a Store. Intents for the same room
// are serialized; different rooms proceed in parallel.
type Service struct {
	store    Store
	pub      Publisher
	log      zerolog.Logger
	now      func() time.Time
	pool     []string
	defaults Settings

	rngMu sync.Mutex
	rng   *rand.Rand

	locksMu sync.Mutex
	locks   map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(store Store, opts ...Option) *Service {
	var seed [32]byte
	_, _ = cryptorand.Read(seed[:])

	s := &Service{
		store: store,
		pub:   PublisherFunc(func(string, *Room) {}),
		log:   zerolog.Nop(),
		now:   time.Now,
		pool:  WordPool,
		defaults: Settings{
			StrictClueRules:    true,
			CluePenaltyEnabled: true,
		},
		rng:   rand.New(rand.NewChaCha8(seed)),
		locks: make(map[string]*roomLock),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) lock(code string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[code]
	if !ok {
		l = &roomLock{}
		s.locks[code] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, code)
		}
		s.locksMu.Unlock()
	}
}

// mutate runs fn against a fresh copy of the room and commits the result. A
// version conflict from the store means another writer got there first, so
// the intent is re-evaluated against the newer state.
func (s *Service) mutate(ctx context.Context, op, code string, fn func(r *Room, now time.Time) error) (*Room, error) {
	code = NormalizeRoomCode(code)

	unlock := s.lock(code)
	defer unlock()

	for attempt := 1; ; attempt++ {
		room, err := s.store.Get(ctx, code)
		if err != nil {
			return nil, err
		}

		now := s.now()

		err = fn(room, now)
		if errors.Is(err, errUnchanged) {
			return room, nil
		}
		if err != nil {
			s.log.Debug().Str("room", code).Str("op", op).Err(err).Msg("intent rejected")
			return nil, err
		}

		room.UpdatedAt = now

		err = s.store.Put(ctx, room)
		if errors.Is(err, ErrVersionConflict) && attempt < maxPutAttempts {
			s.log.Debug().Str("room", code).Str("op", op).Int("attempt", attempt).Msg("version conflict, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.pub.Publish(code, room.Clone())

		s.log.Debug().Str("room", code).Str("op", op).Int64("version", room.Version).Msg("intent applied")

		return room, nil
	}
}

// CreateRoom allocates a new lobby room under a fresh code.
func (s *Service) CreateRoom(ctx context.Context) (*Room, error) {
	for range maxCodeAttempts {
		code, err := s.store.NewCode(ctx)
		if err != nil {
			return nil, err
		}

		room := NewRoom(code, s.defaults, s.now())

		err = s.store.Create(ctx, room)
		if errors.Is(err, ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.Debug().Str("room", code).Str("op", "create_room").Msg("room created")

		return room.Clone(), nil
	}

	return nil, fmt.Errorf("%w: no free room code", ErrRoomExists)
}

// Room returns the current snapshot of a room.
func (s *Service) Room(ctx context.Context, code string) (*Room, error) {
	return s.store.Get(ctx, NormalizeRoomCode(code))
}

// JoinRoom adds or refreshes a player. An empty role keeps the current role,
// or seats a new player as a spectator. Asking for a seat someone else holds
// still records the device, then returns ErrRoleConflict with the committed
// room.
func (s *Service) JoinRoom(ctx context.Context, code, sessionID string, role Role) (*Room, error) {
	var conflict error

	room, err := s.mutate(ctx, "join_room", code, func(r *Room, now time.Time) error {
		conflict = nil

		err := r.join(sessionID, role, now)
		if errors.Is(err, ErrRoleConflict) {
			conflict = err
			return nil
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	if conflict != nil {
		s.log.Debug().Str("room", room.Code).Str("op", "join_room").Err(conflict).Msg("seat already taken")
	}

	return room, conflict
}

// LeaveRoom removes a player, releasing any seat they held.
func (s *Service) LeaveRoom(ctx context.Context, code, sessionID string) (*Room, error) {
	return s.mutate(ctx, "leave_room", code, func(r *Room, _ time.Time) error {
		if !r.leave(sessionID) {
			return errUnchanged
		}
		return nil
	})
}

// ConfigureRoom changes room settings while in the lobby. Nil leaves a setting as is.
func (s *Service) ConfigureRoom(ctx context.Context, code string, strict, penalty *bool) (*Room, error) {
	return s.mutate(ctx, "configure_room", code, func(r *Room, _ time.Time) error {
		return r.configure(strict, penalty)
	})
}

func (s *Service) StartGame(ctx context.Context, code string) (*Room, error) {
	return s.mutate(ctx, "start_game", code, func(r *Room, now time.Time) error {
		s.rngMu.Lock()
		team := PickStartingTeam(s.rng)
		words, err := GenerateBoard(s.rng, s.pool)
		key := GenerateKey(s.rng, team)
		s.rngMu.Unlock()

		if err != nil {
			return err
		}

		return r.start(team, words, key, now)
	})
}

func (s *Service) SubmitClue(ctx context.Context, code, word string, number ClueNumber) (*Room, error) {
	return s.mutate(ctx, "submit_clue", code, func(r *Room, now time.Time) error {
		return r.submitClue(word, number, now)
	})
}

func (s *Service) ChallengeClue(ctx context.Context, code string) (*Room, error) {
	return s.mutate(ctx, "challenge_clue", code, func(r *Room, _ time.Time) error {
		return r.challengeClue()
	})
}

// ResolveChallenge accepts ClueAllowed or ClueRejected.
func (s *Service) ResolveChallenge(ctx context.Context, code string, decision ClueStatus) (*Room, error) {
	return s.mutate(ctx, "resolve_challenge", code, func(r *Room, now time.Time) error {
		return r.resolveChallenge(decision, now)
	})
}

func (s *Service) SelectCard(ctx context.Context, code, cardID string) (*Room, error) {
	return s.mutate(ctx, "select_card", code, func(r *Room, now time.Time) error {
		return r.selectCard(cardID, now)
	})
}

func (s *Service) EndTurnEarly(ctx context.Context, code string) (*Room, error) {
	return s.mutate(ctx, "end_turn", code, func(r *Room, _ time.Time) error {
		return r.endTurnEarly()
	})
}

func (s *Service) ResetGame(ctx context.Context, code string) (*Room, error) {
	return s.mutate(ctx, "reset_game", code, func(r *Room, _ time.Time) error {
		r.reset()
		return nil
	})
}

// DeleteRoom removes a room outright.
func (s *Service) DeleteRoom(ctx context.Context, code string) error {
	code = NormalizeRoomCode(code)

	unlock := s.lock(code)
	defer unlock()

	return s.store.Delete(ctx, code)
}

// Sweep deletes rooms with no activity since cutoff and returns their codes.
func (s *Service) Sweep(ctx context.Context, cutoff time.Time) ([]string, error) {
	codes, err := s.store.DeleteIdle(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	if len(codes) > 0 {
		s.log.Debug().Strs("rooms", codes).Msg("idle rooms swept")
	}

	return codes, nil
}
