// Package sqlstore implements a settings backend on a database/sql table.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ports.Backend on a table with one row per setting.
// Writes go through a transaction opened on the first write and committed by Commit.
// Reads see uncommitted writes of that transaction.
type Store struct {
	db      *sql.DB
	dialect dialect
	table   string
	now     func() time.Time

	mu sync.Mutex
	tx *sql.Tx
}

var _ ports.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store on db. driver selects the SQL dialect (sqlite, pgx or mysql).
func New(db *sql.DB, driver, table string, opts ...Option) (*Store, error) {
	if table == "" {
		table = domain.DefaultTableName
	}
	if !validTable(table) {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid table name"), "table", table)
	}
	d, err := dialectFor(driver, table)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: d, table: table, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open opens a database with driver and dsn, checks the connection and creates the table.
func Open(ctx context.Context, driver, dsn, table string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrBackendOpenFailed, err.Error()), "driver", driver)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(domain.ErrBackendOpenFailed, err.Error()), "driver", driver)
	}
	s, err := New(db, driver, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the settings table if it does not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create settings table"), "table", s.table)
	}
	return nil
}

// Close rolls back any open transaction and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}

// reader returns the open transaction, or the database when none is open.
// The caller must hold s.mu.
func (s *Store) reader() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// writer returns the open transaction, beginning one if needed. The caller must hold s.mu.
func (s *Store) writer(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	// The transaction spans several calls, so it must not die with a single call's context.
	tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	s.tx = tx
	return tx, nil
}

func (s *Store) q(query string) string {
	return fmt.Sprintf(query, s.table)
}

// Get decodes the value of key into typ.
func (s *Store) Get(ctx context.Context, key string, typ reflect.Type) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	typeName, payload, err := s.row(ctx, key)
	if err != nil {
		return nil, err
	}
	target, err := domain.DecodeTarget(key, typeName, typ)
	if err != nil {
		return nil, err
	}
	value, err := domain.DecodeValue([]byte(payload), target)
	if err != nil {
		return nil, zerr.With(err, "key", key)
	}
	return value, nil
}

func (s *Store) row(ctx context.Context, key string) (string, string, error) {
	query := s.q("SELECT type_name, value FROM %s WHERE setting_key = ") + s.dialect.placeholder(1)
	var typeName, payload string
	err := s.reader().QueryRowContext(ctx, query, key).Scan(&typeName, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "setting is not registered"), "key", key)
	}
	if err != nil {
		return "", "", zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	return typeName, payload, nil
}

// IsRegistered reports whether a row exists for key.
func (s *Store) IsRegistered(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.q("SELECT 1 FROM %s WHERE setting_key = ") + s.dialect.placeholder(1)
	var one int
	err := s.reader().QueryRowContext(ctx, query, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	return true, nil
}

// Register upserts the row of key.
func (s *Store) Register(ctx context.Context, key string, defaultValue, initialValue any, typ reflect.Type) error {
	value, err := domain.EncodeValue(initialValue)
	if err != nil {
		return zerr.With(err, "key", key)
	}
	def, err := domain.EncodeValue(defaultValue)
	if err != nil {
		return zerr.With(err, "key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.writer(ctx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, s.dialect.upsert,
		key, domain.TypeName(typ), string(value), string(def), s.now().UnixMilli())
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", key)
	}
	return nil
}

// Set updates the value of key. The stored type must accept typ.
func (s *Store) Set(ctx context.Context, key string, value any, typ reflect.Type) error {
	payload, err := domain.EncodeValue(value)
	if err != nil {
		return zerr.With(err, "key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	typeName, _, err := s.row(ctx, key)
	if err != nil {
		return err
	}
	if _, err := domain.DecodeTarget(key, typeName, typ); err != nil {
		return err
	}

	tx, err := s.writer(ctx)
	if err != nil {
		return err
	}
	query := s.q("UPDATE %s SET value = ") + s.dialect.placeholder(1) +
		", updated_at = " + s.dialect.placeholder(2) +
		" WHERE setting_key = " + s.dialect.placeholder(3)
	if _, err := tx.ExecContext(ctx, query, string(payload), s.now().UnixMilli(), key); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", key)
	}
	return nil
}

// Unregister deletes the row of key. A missing row is not an error.
func (s *Store) Unregister(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.writer(ctx)
	if err != nil {
		return err
	}
	query := s.q("DELETE FROM %s WHERE setting_key = ") + s.dialect.placeholder(1)
	if _, err := tx.ExecContext(ctx, query, key); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", key)
	}
	return nil
}

// Commit commits the open transaction, if any.
func (s *Store) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// Discard rolls back the open transaction, if any.
func (s *Store) Discard(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return zerr.Wrap(err, "failed to roll back settings transaction")
	}
	return nil
}

// Concurrency runs every phase sequentially; all writes share one transaction.
func (s *Store) Concurrency() domain.Concurrency {
	return domain.Concurrency{}
}
