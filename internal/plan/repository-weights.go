package plan

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/sqlite"
)

type sqliteWeightRepository struct {
	baseRepository
}

func newSQLiteWeightRepository(db *sqlite.Database) *sqliteWeightRepository {
	return &sqliteWeightRepository{baseRepository: newBaseRepository(db)}
}

func (r *sqliteWeightRepository) Insert(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
	date string,
	weight float64,
	notes string,
) (WeightLog, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO weight_logs (user_id, log_date, weight, notes)
		VALUES (?, ?, ?, nullif(?, ''))
		RETURNING id`, userID, date, weight, notes).Scan(&id)
	if err != nil {
		return WeightLog{}, errors.Wrap(err, "insert weight log", slog.String("date", date))
	}
	return WeightLog{ID: id, Date: date, Weight: weight, Notes: notes}, nil
}

// List returns the logs oldest first.
func (r *sqliteWeightRepository) List(ctx context.Context, userID string) ([]WeightLog, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, log_date, weight, coalesce(notes, '')
		FROM weight_logs
		WHERE user_id = ?
		ORDER BY log_date, id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query weight logs")
	}
	logs, err := collect(rows, func(rows *sql.Rows) (WeightLog, error) {
		var l WeightLog
		if err := rows.Scan(&l.ID, &l.Date, &l.Weight, &l.Notes); err != nil {
			return l, errors.Wrap(err, "scan weight log")
		}
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []WeightLog{}
	}
	return logs, nil
}
