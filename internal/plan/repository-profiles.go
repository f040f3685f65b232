package plan

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/fitness"
	"github.com/myrjola/fitplan/internal/sqlite"
)

type sqliteProfileRepository struct {
	baseRepository
}

func newSQLiteProfileRepository(db *sqlite.Database) *sqliteProfileRepository {
	return &sqliteProfileRepository{baseRepository: newBaseRepository(db)}
}

// Get returns the profile with selections or ErrNotFound when the user has no profile row.
func (r *sqliteProfileRepository) Get(ctx context.Context, q querier, userID string) (Profile, error) {
	var (
		p         Profile
		age       sql.NullInt64
		height    sql.NullFloat64
		current   sql.NullFloat64
		target    sql.NullFloat64
		gender    sql.NullString
		completed bool
	)
	err := q.QueryRowContext(ctx, `
		SELECT age, height, current_weight, target_weight, gender, profile_completed
		FROM profiles
		WHERE user_id = ?`, userID).Scan(&age, &height, &current, &target, &gender, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, errors.Wrap(err, "query profile", slog.String("user_id", userID))
	}

	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if height.Valid {
		p.HeightCm = &height.Float64
	}
	if current.Valid {
		p.CurrentWeightKg = &current.Float64
	}
	if target.Valid {
		p.TargetWeightKg = &target.Float64
	}
	if gender.Valid {
		g := fitness.Gender(gender.String)
		p.Gender = &g
	}
	p.ProfileCompleted = completed

	if p.Goals, err = listSelection[fitness.Goal](ctx, q,
		`SELECT goal_type FROM user_goals WHERE user_id = ? ORDER BY goal_type`, userID); err != nil {
		return Profile{}, errors.Wrap(err, "list goals")
	}
	if p.Conditions, err = listSelection[fitness.Condition](ctx, q,
		`SELECT condition FROM user_medical_conditions WHERE user_id = ? ORDER BY condition`, userID); err != nil {
		return Profile{}, errors.Wrap(err, "list medical conditions")
	}
	if p.Locations, err = listSelection[fitness.Location](ctx, q,
		`SELECT location FROM user_exercise_locations WHERE user_id = ? ORDER BY location`, userID); err != nil {
		return Profile{}, errors.Wrap(err, "list exercise locations")
	}
	return p, nil
}

func listSelection[T ~string](ctx context.Context, q querier, query string, userID string) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query selection")
	}
	items, err := collect(rows, func(rows *sql.Rows) (T, error) {
		var s string
		if err := rows.Scan(&s); err != nil {
			return "", errors.Wrap(err, "scan selection")
		}
		return T(s), nil
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save stores the biometrics, marks the profile completed and replaces all selections.
func (r *sqliteProfileRepository) Save(ctx context.Context, tx *sql.Tx, userID string, in OnboardingInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, age, height, current_weight, target_weight, gender, profile_completed)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			age = excluded.age,
			height = excluded.height,
			current_weight = excluded.current_weight,
			target_weight = excluded.target_weight,
			gender = excluded.gender,
			profile_completed = 1,
			updated = `+nowTimestamp,
		userID, in.Age, in.Height, in.CurrentWeight, in.TargetWeight, in.Gender)
	if err != nil {
		return errors.Wrap(err, "upsert profile", slog.String("user_id", userID))
	}

	if err = replaceSelection(ctx, tx, "user_goals", "goal_type", userID, in.Goals); err != nil {
		return err
	}
	if err = replaceSelection(ctx, tx, "user_medical_conditions", "condition", userID, in.Conditions); err != nil {
		return err
	}
	return replaceSelection(ctx, tx, "user_exercise_locations", "location", userID, in.Locations)
}

// replaceSelection deletes and reinserts a selection. Duplicates in values collapse into one row, any other
// constraint violation is an error.
func replaceSelection[T ~string](
	ctx context.Context,
	tx *sql.Tx,
	table string,
	column string,
	userID string,
	values []T,
) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
		return errors.Wrap(err, "delete selection", slog.String("table", table))
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+table+` (user_id, `+column+`) VALUES (?, ?) ON CONFLICT DO NOTHING`)
	if err != nil {
		return errors.Wrap(err, "prepare selection insert", slog.String("table", table))
	}
	defer stmt.Close()
	for _, v := range values {
		if _, err = stmt.ExecContext(ctx, userID, string(v)); err != nil {
			return errors.Wrap(err, "insert selection", slog.String("table", table), slog.String("value", string(v)))
		}
	}
	return nil
}

func (r *sqliteProfileRepository) SetCurrentWeight(ctx context.Context, tx *sql.Tx, userID string, weight float64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE profiles SET current_weight = ?, updated = `+nowTimestamp+` WHERE user_id = ?`, weight, userID)
	if err != nil {
		return errors.Wrap(err, "update current weight", slog.String("user_id", userID))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
