package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/fitplan/internal/errors"
)

// schemaObject is a row of sqlite_schema that differs between the live and the target database.
type schemaObject struct {
	name    string
	liveSQL string
	newSQL  string
}

type schemaType string

const (
	schemaTypeTable   schemaType = "table"
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

// migrateTo makes the live schema match targetSchema without hand written migration scripts.
//
// The target schema is created in a scratch in-memory database that is attached as schemaTarget. Removed tables are
// dropped, new ones created, and changed ones rebuilt with the generic ALTER TABLE procedure from
// https://www.sqlite.org/lang_altertable.html#otheralter, copying the columns both versions have in common.
// Triggers and indexes are synchronised afterwards.
//
// Based on https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, targetSchema string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, targetSchema)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// Foreign keys must be off while tables are rebuilt. The pragma is a no-op inside transactions.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("re-enable foreign keys: %w", fkErr))
		}
	}()

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if err = db.migrateTables(ctx, tx); err != nil {
			return fmt.Errorf("migrate tables: %w", err)
		}
		for _, typ := range []schemaType{schemaTypeTrigger, schemaTypeIndex} {
			if err = db.migrateSchema(ctx, tx, typ); err != nil {
				return fmt.Errorf("migrate %ss: %w", typ, err)
			}
		}
		var violations int
		if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM pragma_foreign_key_check").Scan(&violations); err != nil {
			return fmt.Errorf("foreign key check: %w", err)
		}
		if violations > 0 {
			return errors.New("foreign key violations after migration", slog.Int("violations", violations))
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget creates targetSchema in a scratch database, attaches it as schemaTarget and returns the
// function detaching it again.
func (db *Database) attachSchemaTarget(ctx context.Context, targetSchema string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	scratch, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open scratch database: %w", err)
	}
	// The shared cache database lives as long as one connection is open, so keep it open until attached.
	defer func() {
		if closeErr := scratch.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close scratch database",
				errors.SlogError(errors.Wrap(closeErr, "close scratch")))
		}
	}()
	if _, err = scratch.ExecContext(ctx, targetSchema); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target",
				errors.SlogError(errors.Wrap(detachErr, "detach")))
		}
	}, nil
}

// Live objects that are internal to SQLite or Litestream are never touched.
const ignoreInternal = `live.name NOT LIKE 'sqlite_%' AND live.name NOT LIKE '_litestream_%'`

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	removed, err := queryColumn(ctx, tx, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = 'table' AND target.type IS NULL AND `+ignoreInternal)
	if err != nil {
		return fmt.Errorf("query removed tables: %w", err)
	}
	for _, table := range removed {
		if err = db.exec(ctx, tx, "dropping table", "DROP TABLE "+table); err != nil {
			return err
		}
	}

	added, err := queryColumn(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = 'table' AND live.type IS NULL AND target.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("query added tables: %w", err)
	}
	for _, createSQL := range added {
		if err = db.exec(ctx, tx, "creating table", createSQL); err != nil {
			return err
		}
	}

	// Renaming a table quotes its name in sqlite_schema, so quotes are ignored in the comparison.
	changed, err := queryChanged(ctx, tx, schemaTypeTable, `REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`)
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, table := range changed {
		if err = db.rebuildTable(ctx, tx, table); err != nil {
			return fmt.Errorf("rebuild table %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new version under a temporary name, copies the shared columns and swaps it in.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table schemaObject) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table", slog.String("table", table.name),
		slog.String("live_sql", table.liveSQL), slog.String("new_sql", table.newSQL))

	tempName := table.name + "_migration_temp"
	if err := db.exec(ctx, tx, "creating temporary table",
		strings.Replace(table.newSQL, table.name, tempName, 1)); err != nil {
		return err
	}

	// Quoted so that columns named after SQLite keywords survive.
	common, err := queryColumn(ctx, tx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
         JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", table.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	columns := strings.Join(common, ", ")

	for _, step := range []struct{ msg, query string }{
		{"copying data", fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tempName, columns, columns, table.name)},
		{"dropping old table", "DROP TABLE " + table.name},
		{"renaming new table", fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, table.name)},
	} {
		if err = db.exec(ctx, tx, step.msg, step.query); err != nil {
			return err
		}
	}
	return nil
}

// migrateSchema synchronises the triggers or indexes with the target.
func (db *Database) migrateSchema(ctx context.Context, tx *sql.Tx, typ schemaType) error {
	removed, err := queryColumn(ctx, tx, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND target.type IS NULL AND live.name NOT LIKE 'sqlite_%'`, typ)
	if err != nil {
		return fmt.Errorf("query removed: %w", err)
	}
	for _, name := range removed {
		if err = db.exec(ctx, tx, "dropping "+string(typ), dropStatement(typ, name)); err != nil {
			return err
		}
	}

	added, err := queryColumn(ctx, tx, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ? AND live.type IS NULL AND target.name NOT LIKE 'sqlite_%' AND target.sql IS NOT NULL`, typ)
	if err != nil {
		return fmt.Errorf("query added: %w", err)
	}
	for _, createSQL := range added {
		if err = db.exec(ctx, tx, "creating "+string(typ), createSQL); err != nil {
			return err
		}
	}

	changed, err := queryChanged(ctx, tx, typ, "live.sql <> target.sql")
	if err != nil {
		return fmt.Errorf("query changed: %w", err)
	}
	for _, object := range changed {
		if err = db.exec(ctx, tx, "dropping changed "+string(typ), dropStatement(typ, object.name)); err != nil {
			return err
		}
		if err = db.exec(ctx, tx, "recreating changed "+string(typ), object.newSQL); err != nil {
			return err
		}
	}
	return nil
}

func dropStatement(typ schemaType, name string) string {
	return fmt.Sprintf("DROP %s %s", strings.ToUpper(string(typ)), name)
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, msg string, query string) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.String("query", query))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, msg, slog.String("query", query))
	}
	return nil
}

// queryChanged lists objects of typ present in both schemas for which differs holds.
func queryChanged(ctx context.Context, tx *sql.Tx, typ schemaType, differs string) ([]schemaObject, error) {
	query := `SELECT live.name, live.sql, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND ` + ignoreInternal + ` AND ` + differs
	return queryRows(ctx, tx, func(rows *sql.Rows) (schemaObject, error) {
		var o schemaObject
		err := rows.Scan(&o.name, &o.liveSQL, &o.newSQL)
		return o, err //nolint:wrapcheck // wrapped by queryRows.
	}, query, typ)
}

// queryColumn returns the single string column of every row.
func queryColumn(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	return queryRows(ctx, tx, func(rows *sql.Rows) (string, error) {
		var s string
		err := rows.Scan(&s)
		return s, err //nolint:wrapcheck // wrapped by queryRows.
	}, query, args...)
}

func queryRows[T any](
	ctx context.Context,
	tx *sql.Tx,
	scan func(*sql.Rows) (T, error),
	query string,
	args ...any,
) (_ []T, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()
	var results []T
	for rows.Next() {
		var result T
		if result, err = scan(rows); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
