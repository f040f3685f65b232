package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/sqlite"
)

const (
	dateFormat = time.DateOnly
	// nowTimestamp is the SQL expression used for audit timestamps.
	nowTimestamp = `strftime('%Y-%m-%dT%H:%M:%fZ')`
)

// querier is implemented by both *sql.DB and *sql.Tx so that repositories can take part in a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type baseRepository struct {
	db *sqlite.Database
}

func newBaseRepository(db *sqlite.Database) baseRepository {
	return baseRepository{db: db}
}

// repository groups the aggregate repositories of a plan.
type repository struct {
	profiles *sqliteProfileRepository
	plans    *sqlitePlanRepository
	tasks    *sqliteTaskRepository
	weights  *sqliteWeightRepository
}

type repositoryFactory struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newRepositoryFactory(db *sqlite.Database, logger *slog.Logger) *repositoryFactory {
	return &repositoryFactory{db: db, logger: logger}
}

func (f *repositoryFactory) newRepository() *repository {
	return &repository{
		profiles: newSQLiteProfileRepository(f.db),
		plans:    newSQLitePlanRepository(f.db),
		tasks:    newSQLiteTaskRepository(f.db),
		weights:  newSQLiteWeightRepository(f.db),
	}
}

func marshalStrings(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return "", errors.Wrap(err, "marshal string list")
	}
	return string(b), nil
}

func unmarshalStrings(s string) ([]string, error) {
	var ss []string
	if err := json.Unmarshal([]byte(s), &ss); err != nil {
		return nil, errors.Wrap(err, "unmarshal string list")
	}
	return ss, nil
}

// collect scans every row with scan and closes rows.
func collect[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}
	return items, nil
}
