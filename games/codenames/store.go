/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// RoomCodeAlphabet leaves out 0, 1, I and O.
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodeLength   = 6

	maxCodeAttempts = 64
)

// Store is a key-value table of rooms keyed by room code.
//
// Put is a compare-and-swap on Version: it succeeds only when the stored
// room still has the version the caller read, and it advances the version of
// both the stored room and the argument by one. Stores never hand out
// references to their own copies.
type Store interface {
	NewCode(ctx context.Context) (string, error)
	Create(ctx context.Context, room *Room) error
	Get(ctx context.Context, code string) (*Room, error)
	Put(ctx context.Context, room *Room) error
	Delete(ctx context.Context, code string) error
	DeleteIdle(ctx context.Context, cutoff time.Time) ([]string, error)
}

// GenerateRoomCode returns a random room code from RoomCodeAlphabet.
func GenerateRoomCode() (string, error) {
	buf := make([]byte, RoomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	out := make([]byte, RoomCodeLength)
	for i := range out {
		out[i] = RoomCodeAlphabet[int(buf[i])%len(RoomCodeAlphabet)]
	}

	return string(out), nil
}

// NormalizeRoomCode uppercases a user-supplied room code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidRoomCode reports whether code could have come from GenerateRoomCode.
func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(RoomCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}

// UniqueCode generates codes until exists reports one as free.
func UniqueCode(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for range maxCodeAttempts {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := GenerateRoomCode()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}

	return "", fmt.Errorf("no free room code after %d attempts", maxCodeAttempts)
}

// MemoryStore keeps rooms in a process-local map.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*Room),
	}
}

func (s *MemoryStore) NewCode(ctx context.Context) (string, error) {
	return UniqueCode(ctx, func(_ context.Context, code string) (bool, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		_, ok := s.rooms[code]

		return ok, nil
	})
}

func (s *MemoryStore) Create(_ context.Context, room *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.Code]; ok {
		return fmt.Errorf("%w: %s", ErrRoomExists, room.Code)
	}

	room.Version = 1
	s.rooms[room.Code] = room.Clone()

	return nil
}

func (s *MemoryStore) Get(_ context.Context, code string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return room.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, room *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rooms[room.Code]
	if !ok {
		return ErrRoomNotFound
	}
	if stored.Version != room.Version {
		return fmt.Errorf("%w: %s at version %d, have %d", ErrVersionConflict, room.Code, stored.Version, room.Version)
	}

	room.Version++
	s.rooms[room.Code] = room.Clone()

	return nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[code]; !ok {
		return ErrRoomNotFound
	}
	delete(s.rooms, code)

	return nil
}

func (s *MemoryStore) DeleteIdle(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []string
	for code, room := range s.rooms {
		if room.UpdatedAt.Before(cutoff) {
			delete(s.rooms, code)
			deleted = append(deleted, code)
		}
	}

	return deleted, nil
}

// Len returns the number of rooms held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rooms)
}
