package plan

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/sqlite"
)

type sqliteTaskRepository struct {
	baseRepository
}

func newSQLiteTaskRepository(db *sqlite.Database) *sqliteTaskRepository {
	return &sqliteTaskRepository{baseRepository: newBaseRepository(db)}
}

const taskColumns = `id, task_date, task_type, title, description, target_value, is_completed, completed_at`

func scanTask(row interface{ Scan(dest ...any) error }) (Task, error) {
	var (
		t           Task
		completedAt sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Date, &t.TaskType, &t.Title, &t.Description, &t.TargetValue, &t.IsCompleted,
		&completedAt); err != nil {
		return t, errors.Wrap(err, "scan task")
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.String
	}
	return t, nil
}

// List returns the tasks of date in checklist order.
func (r *sqliteTaskRepository) List(ctx context.Context, q querier, userID string, date string) ([]Task, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM daily_tasks
		WHERE user_id = ? AND task_date = ?
		ORDER BY position`, userID, date)
	if err != nil {
		return nil, errors.Wrap(err, "query tasks", slog.String("date", date))
	}
	tasks, err := collect(rows, func(rows *sql.Rows) (Task, error) { return scanTask(rows) })
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// ReplaceForDate removes the tasks of date and inserts tasks in order. Completion state is stored as given.
func (r *sqliteTaskRepository) ReplaceForDate(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
	date string,
	tasks []Task,
) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_tasks WHERE user_id = ? AND task_date = ?`,
		userID, date); err != nil {
		return errors.Wrap(err, "delete tasks", slog.String("date", date))
	}
	for i, t := range tasks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_tasks (user_id, task_date, position, task_type, title, description, target_value,
			                         is_completed, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, date, i, t.TaskType, t.Title, t.Description, t.TargetValue, t.IsCompleted,
			t.CompletedAt); err != nil {
			return errors.Wrap(err, "insert task", slog.String("date", date), slog.String("title", t.Title))
		}
	}
	return nil
}

// Toggle flips the completion of the user's task and returns the updated task.
// Tasks of other users are reported as ErrNotFound.
func (r *sqliteTaskRepository) Toggle(ctx context.Context, userID string, id int64) (Task, error) {
	// All right-hand sides see the row before the update.
	row := r.db.ReadWrite.QueryRowContext(ctx, `
		UPDATE daily_tasks
		SET is_completed = 1 - is_completed,
		    completed_at = CASE WHEN is_completed = 0 THEN `+nowTimestamp+` END
		WHERE id = ? AND user_id = ?
		RETURNING `+taskColumns, id, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, errors.Wrap(err, "toggle task", slog.Int64("task_id", id))
	}
	return t, nil
}

// Count returns completed and total task counts over all dates.
func (r *sqliteTaskRepository) Count(ctx context.Context, userID string) (int, int, error) {
	var completed, total int
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT coalesce(sum(is_completed), 0), count(*)
		FROM daily_tasks
		WHERE user_id = ?`, userID).Scan(&completed, &total)
	if err != nil {
		return 0, 0, errors.Wrap(err, "count tasks")
	}
	return completed, total, nil
}
