/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Seednode/spyboard/games/codenames"
)

type roomRow struct {
	Code      string `db:"code"`
	Version   int64  `db:"version"`
	State     []byte `db:"state"`
	UpdatedAt int64  `db:"updated_at"`
}

// SQLiteStore keeps rooms in a single-file database. Timestamps are unix nanoseconds.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies pending migrations.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := Migrate(db.DB, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) NewCode(ctx context.Context) (string, error) {
	return codenames.UniqueCode(ctx, s.exists)
}

func (s *SQLiteStore) exists(ctx context.Context, code string) (bool, error) {
	var n int

	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(1) FROM rooms WHERE code = ?", code); err != nil {
		return false, sqliteError(err)
	}

	return n > 0, nil
}

func (s *SQLiteStore) Create(ctx context.Context, room *codenames.Room) error {
	saved := room.Clone()
	saved.Version = 1

	row, err := encodeRow(saved)
	if err != nil {
		return err
	}

	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO rooms (code, version, state, updated_at) VALUES (:code, :version, :state, :updated_at)
		ON CONFLICT (code) DO NOTHING`,
		row)
	if err != nil {
		return sqliteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return sqliteError(err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", codenames.ErrRoomExists, room.Code)
	}

	room.Version = saved.Version

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, code string) (*codenames.Room, error) {
	var row roomRow

	err := s.db.GetContext(ctx, &row, "SELECT code, version, state, updated_at FROM rooms WHERE code = ?", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, codenames.ErrRoomNotFound
		}
		return nil, sqliteError(err)
	}

	return decodeRoom(row.State, row.Version)
}

func (s *SQLiteStore) Put(ctx context.Context, room *codenames.Room) error {
	saved := room.Clone()
	saved.Version = room.Version + 1

	row, err := encodeRow(saved)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE rooms SET version = ?, state = ?, updated_at = ? WHERE code = ? AND version = ?",
		row.Version, row.State, row.UpdatedAt, row.Code, room.Version)
	if err != nil {
		return sqliteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return sqliteError(err)
	}

	if n == 0 {
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

func (s *SQLiteStore) Delete(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM rooms WHERE code = ?", code)
	if err != nil {
		return sqliteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return sqliteError(err)
	}

	if n == 0 {
		return codenames.ErrRoomNotFound
	}

	return nil
}

func (s *SQLiteStore) DeleteIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer func() { _ = tx.Rollback() }()

	codes := []string{}
	if err := tx.SelectContext(ctx, &codes, "SELECT code FROM rooms WHERE updated_at < ? ORDER BY code", cutoff.UnixNano()); err != nil {
		return nil, sqliteError(err)
	}

	if len(codes) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In("DELETE FROM rooms WHERE code IN (?)", codes)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, sqliteError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, sqliteError(err)
	}

	return codes, nil
}

func encodeRow(room *codenames.Room) (roomRow, error) {
	state, err := json.Marshal(room)
	if err != nil {
		return roomRow{}, err
	}

	return roomRow{
		Code:      room.Code,
		Version:   room.Version,
		State:     state,
		UpdatedAt: room.UpdatedAt.UnixNano(),
	}, nil
}

func sqliteError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %w", codenames.ErrStorage, err)
}
