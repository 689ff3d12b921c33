/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storage holds the SQL-backed room stores.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Seednode/spyboard/games/codenames"
)

// PostgresStore keeps each room as a JSONB document guarded by a version column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to connString and applies pending migrations.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	err = Migrate(db, "postgres")
	_ = db.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) NewCode(ctx context.Context) (string, error) {
	return codenames.UniqueCode(ctx, s.exists)
}

func (s *PostgresStore) exists(ctx context.Context, code string) (bool, error) {
	var exists bool

	err := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM rooms WHERE code = $1)", code).Scan(&exists)
	if err != nil {
		return false, pgError(err)
	}

	return exists, nil
}

func (s *PostgresStore) Create(ctx context.Context, room *codenames.Room) error {
	saved := room.Clone()
	saved.Version = 1

	state, err := json.Marshal(saved)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		"INSERT INTO rooms (code, version, state, updated_at) VALUES ($1, $2, $3, $4)",
		saved.Code, saved.Version, state, saved.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// "23505" is the PostgreSQL error code for unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", codenames.ErrRoomExists, room.Code)
		}

		return pgError(err)
	}

	room.Version = saved.Version

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, code string) (*codenames.Room, error) {
	var (
		version int64
		state   []byte
	)

	err := s.pool.QueryRow(ctx, "SELECT version, state FROM rooms WHERE code = $1", code).Scan(&version, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, codenames.ErrRoomNotFound
		}
		return nil, pgError(err)
	}

	return decodeRoom(state, version)
}

func (s *PostgresStore) Put(ctx context.Context, room *codenames.Room) error {
	saved := room.Clone()
	saved.Version = room.Version + 1

	state, err := json.Marshal(saved)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		"UPDATE rooms SET version = $2, state = $3, updated_at = $4 WHERE code = $1 AND version = $5",
		saved.Code, saved.Version, state, saved.UpdatedAt, room.Version)
	if err != nil {
		return pgError(err)
	}

	if tag.RowsAffected() == 0 {
		exists, err := s.exists(ctx, room.Code)
		if err != nil {
			return err
		}
		if !exists {
			return codenames.ErrRoomNotFound
		}
		return fmt.Errorf("%w: %s", codenames.ErrVersionConflict, room.Code)
	}

	room.Version = saved.Version

	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, code string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM rooms WHERE code = $1", code)
	if err != nil {
		return pgError(err)
	}

	if tag.RowsAffected() == 0 {
		return codenames.ErrRoomNotFound
	}

	return nil
}

func (s *PostgresStore) DeleteIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, "DELETE FROM rooms WHERE updated_at < $1 RETURNING code", cutoff)
	if err != nil {
		return nil, pgError(err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, pgError(err)
	}

	return codes, nil
}

func pgError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %w", codenames.ErrStorage, err)
}

func decodeRoom(state []byte, version int64) (*codenames.Room, error) {
	var room codenames.Room
	if err := json.Unmarshal(state, &room); err != nil {
		return nil, fmt.Errorf("%w: decoding room: %w", codenames.ErrStorage, err)
	}

	room.Version = version

	return &room, nil
}
