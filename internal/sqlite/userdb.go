package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/myrjola/fitplan/internal/errors"
)

const usersTableName = "users"

var ErrNoUsersTable = errors.NewSentinel("users table does not exist")

// userTable is a table holding user data and the column that references users.id.
type userTable struct {
	name       string
	userColumn string
}

// ExportUserDB copies everything owned by userID into a new SQLite file under dir and returns its path.
//
// The export contains the users row, with the password hash blanked, and the rows of every table with a foreign
// key to users.id. Session data is not exported.
func (db *Database) ExportUserDB(ctx context.Context, userID string, dir string) (_ string, err error) {
	exportPath := filepath.Join(dir, fmt.Sprintf("fitplan-export-%s.sqlite3", rand.Text()))

	conn, err := db.ReadWrite.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("get connection: %w", err)
	}
	defer func() {
		err = errors.Join(err, conn.Close())
	}()

	tables, err := findUserTables(ctx, conn)
	if err != nil {
		return "", fmt.Errorf("find user tables: %w", err)
	}

	// ATTACH and DETACH are not allowed inside a transaction.
	if _, err = conn.ExecContext(ctx, "ATTACH DATABASE ? AS export", fmt.Sprintf("file:%s?mode=rwc", exportPath)); err != nil {
		return "", fmt.Errorf("attach export database: %w", err)
	}
	defer func() {
		if _, detachErr := conn.ExecContext(ctx, "DETACH DATABASE export"); detachErr != nil {
			err = errors.Join(err, fmt.Errorf("detach export database: %w", detachErr))
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)()

	for _, table := range tables {
		if err = copyUserTable(ctx, tx, table, userID); err != nil {
			return "", errors.Wrap(err, "copy user table", slog.String("table", table.name))
		}
	}
	if err = blankPasswordHash(ctx, tx); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit export: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "exported user database",
		slog.String("path", exportPath), slog.Int("tables", len(tables)))
	return exportPath, nil
}

// findUserTables returns the users table followed by every table referencing users.id.
func findUserTables(ctx context.Context, conn *sql.Conn) ([]userTable, error) {
	var count int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_schema WHERE type = 'table' AND name = ?`,
		usersTableName).Scan(&count); err != nil {
		return nil, fmt.Errorf("check users table: %w", err)
	}
	if count == 0 {
		return nil, ErrNoUsersTable
	}

	rows, err := conn.QueryContext(ctx, `SELECT s.name, fk."from"
FROM sqlite_schema AS s
         JOIN pragma_foreign_key_list(s.name) AS fk
WHERE s.type = 'table'
  AND fk."table" = ?
  AND fk."to" = 'id'
ORDER BY s.name`, usersTableName)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	tables := []userTable{{name: usersTableName, userColumn: "id"}}
	for rows.Next() {
		var t userTable
		if err = rows.Scan(&t.name, &t.userColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}
	return tables, nil
}

func copyUserTable(ctx context.Context, tx *sql.Tx, table userTable, userID string) error {
	var createSQL string
	if err := tx.QueryRowContext(ctx, `SELECT sql FROM main.sqlite_schema WHERE type = 'table' AND name = ?`,
		table.name).Scan(&createSQL); err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	// The stored statement may quote the name after a migration rebuild, so only the column list is reused.
	columnsStart := strings.Index(createSQL, "(")
	if columnsStart < 0 {
		return errors.New("unexpected create statement", slog.String("sql", createSQL))
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`CREATE TABLE export."%s" %s`, table.name, createSQL[columnsStart:])); err != nil {
		return fmt.Errorf("create export table: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO export."%s" SELECT * FROM main."%s" WHERE "%s" = ?`, //nolint:gosec // names come from sqlite_schema.
		table.name, table.name, table.userColumn)
	if _, err := tx.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}
	return nil
}

func blankPasswordHash(ctx context.Context, tx *sql.Tx) error {
	var hasColumn bool
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) > 0 FROM pragma_table_info('users', 'export') WHERE name = 'password_hash'`,
	).Scan(&hasColumn); err != nil {
		return fmt.Errorf("check password hash column: %w", err)
	}
	if !hasColumn {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "UPDATE export.users SET password_hash = X''"); err != nil {
		return fmt.Errorf("blank password hash: %w", err)
	}
	return nil
}
