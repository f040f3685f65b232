// Package sqlite owns the SQLite connection pools and keeps the schema in sync with schema.sql.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/fitplan/internal/errors"
)

//go:embed schema.sql
var schemaDefinition string

// DsnLogKey is the log attribute carrying the read-write data source name.
const DsnLogKey = "sqlDsn"

type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to the database at url, migrates it to schema.sql and starts the background optimizer
// bound to ctx.
//
// Writes go through a single connection while reads use a separate pool,
// see https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995.
// url is a file path or ":memory:" for an isolated in-memory database.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(url, logger)
	if err != nil {
		return nil, errors.Wrap(err, "connect", slog.String("url", url))
	}
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	go db.startDatabaseOptimizer(ctx)
	return db, nil
}

//nolint:gochecknoglobals // the driver may only be registered once per process.
var registerDriver sync.Once

const optimizedDriver = "sqlite3optimized"

func registerOptimizedDriver() {
	sql.Register(optimizedDriver, &sqlite3.SQLiteDriver{
		Extensions: nil,
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			pragmas := strings.Join([]string{
				// Temporary tables and indices live in memory.
				"PRAGMA temp_store = memory;",
				// Memory-mapped I/O saves syscalls.
				"PRAGMA mmap_size = 30000000000;",
			}, "")
			if _, err := conn.Exec(pragmas, nil); err != nil {
				return fmt.Errorf("exec optimization pragmas: %w", err)
			}
			return nil
		},
	})
}

func connect(url string, logger *slog.Logger) (*Database, error) {
	// In-memory databases need shared cache so both pools see the same data, and a unique name so that parallel
	// tests do not share it. See https://www.sqlite.org/inmemorydb.html.
	inMemoryConfig := ""
	if strings.Contains(url, ":memory:") {
		url = rand.Text()
		inMemoryConfig = "&mode=memory&cache=shared"
	}
	// Options prefixed with '_' are documented at https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open,
	// the rest at https://www.sqlite.org/uri.html.
	commonConfig := strings.Join([]string{
		"_loc=auto",
		"_defer_foreign_keys=1",
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}, "&")
	readConfig := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s%s", url, commonConfig, inMemoryConfig)
	readWriteConfig := fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s%s", url, commonConfig, inMemoryConfig)

	registerDriver.Do(registerOptimizedDriver)

	readWriteDB, err := sql.Open(optimizedDriver, readWriteConfig)
	if err != nil {
		return nil, fmt.Errorf("open read-write database: %w", err)
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "opened database", slog.String(DsnLogKey, readWriteConfig))
	configurePool(readWriteDB, 1)
	// sql.DB is lazy, ping so that the in-memory database exists before the read pool attaches to it.
	if err = readWriteDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping read-write database: %w", err)
	}

	readDB, err := sql.Open(optimizedDriver, readConfig)
	if err != nil {
		return nil, fmt.Errorf("open read database: %w", err)
	}
	configurePool(readDB, 10) //nolint:mnd // concurrent readers.

	return &Database{
		ReadWrite: readWriteDB,
		ReadOnly:  readDB,
		logger:    logger,
	}, nil
}

func configurePool(db *sql.DB, conns int) {
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Hour)
}

// WithTx runs fn inside a read-write transaction that is committed when fn returns nil.
func (db *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rollback returns a deferrable rollback that ignores already finished transactions.
func (db *Database) rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				errors.SlogError(errors.Wrap(err, "rollback")))
		}
	}
}

// Close closes both connection pools.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}
