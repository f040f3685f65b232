package plan

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/fitness"
	"github.com/myrjola/fitplan/internal/sqlite"
)

type sqlitePlanRepository struct {
	baseRepository
}

func newSQLitePlanRepository(db *sqlite.Database) *sqlitePlanRepository {
	return &sqlitePlanRepository{baseRepository: newBaseRepository(db)}
}

// Replace swaps the stored workouts, meals and sleep schedule for the generated ones.
// Positions record generation order.
func (r *sqlitePlanRepository) Replace(ctx context.Context, tx *sql.Tx, userID string, p fitness.Plan) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM workout_plans WHERE user_id = ?`, userID); err != nil {
		return errors.Wrap(err, "delete workout plans")
	}
	for i, w := range p.Workouts {
		equipment, err := marshalStrings(w.EquipmentNeeded)
		if err != nil {
			return err
		}
		instructions, err := marshalStrings(w.Instructions)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO workout_plans (user_id, position, title, description, exercise_type, duration_minutes,
			                           intensity, equipment_needed, instructions, day_of_week)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, i, w.Title, w.Description, w.ExerciseType, w.DurationMinutes,
			w.Intensity, equipment, instructions, w.DayOfWeek); err != nil {
			return errors.Wrap(err, "insert workout plan", slog.String("title", w.Title))
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM diet_plans WHERE user_id = ?`, userID); err != nil {
		return errors.Wrap(err, "delete diet plans")
	}
	for i, m := range p.Meals {
		foods, err := marshalStrings(m.Foods)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO diet_plans (user_id, position, meal_type, meal_name, description, suggested_time,
			                        calories, protein_grams, carbs_grams, fats_grams, foods)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, i, m.MealType, m.MealName, m.Description, m.SuggestedTime,
			m.Calories, m.ProteinGrams, m.CarbsGrams, m.FatsGrams, foods); err != nil {
			return errors.Wrap(err, "insert diet plan", slog.String("meal_type", string(m.MealType)))
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sleep_schedules (user_id, bedtime, wake_time, target_hours)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			bedtime = excluded.bedtime,
			wake_time = excluded.wake_time,
			target_hours = excluded.target_hours`,
		userID, p.Sleep.Bedtime, p.Sleep.WakeTime, p.Sleep.TargetHours); err != nil {
		return errors.Wrap(err, "upsert sleep schedule")
	}
	return nil
}

// ListWorkouts orders by weekday and keeps generation order within a day.
func (r *sqlitePlanRepository) ListWorkouts(ctx context.Context, q querier, userID string) (
	[]fitness.WorkoutPlanEntry, error,
) {
	rows, err := q.QueryContext(ctx, `
		SELECT title, description, exercise_type, duration_minutes, intensity, equipment_needed, instructions,
		       day_of_week
		FROM workout_plans
		WHERE user_id = ?
		ORDER BY day_of_week, position`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query workout plans")
	}
	workouts, err := collect(rows, func(rows *sql.Rows) (fitness.WorkoutPlanEntry, error) {
		var (
			w                       fitness.WorkoutPlanEntry
			equipment, instructions string
		)
		if err := rows.Scan(&w.Title, &w.Description, &w.ExerciseType, &w.DurationMinutes, &w.Intensity,
			&equipment, &instructions, &w.DayOfWeek); err != nil {
			return w, errors.Wrap(err, "scan workout plan")
		}
		var err error
		if w.EquipmentNeeded, err = unmarshalStrings(equipment); err != nil {
			return w, err
		}
		if w.Instructions, err = unmarshalStrings(instructions); err != nil {
			return w, err
		}
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []fitness.WorkoutPlanEntry{}
	}
	return workouts, nil
}

func (r *sqlitePlanRepository) ListMeals(ctx context.Context, q querier, userID string) (
	[]fitness.DietPlanEntry, error,
) {
	rows, err := q.QueryContext(ctx, `
		SELECT meal_type, meal_name, description, suggested_time, calories, protein_grams, carbs_grams,
		       fats_grams, foods
		FROM diet_plans
		WHERE user_id = ?
		ORDER BY position`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query diet plans")
	}
	meals, err := collect(rows, func(rows *sql.Rows) (fitness.DietPlanEntry, error) {
		var (
			m     fitness.DietPlanEntry
			foods string
		)
		if err := rows.Scan(&m.MealType, &m.MealName, &m.Description, &m.SuggestedTime, &m.Calories,
			&m.ProteinGrams, &m.CarbsGrams, &m.FatsGrams, &foods); err != nil {
			return m, errors.Wrap(err, "scan diet plan")
		}
		var err error
		m.Foods, err = unmarshalStrings(foods)
		return m, err
	})
	if err != nil {
		return nil, err
	}
	if meals == nil {
		meals = []fitness.DietPlanEntry{}
	}
	return meals, nil
}

// GetSleep returns ErrNotFound when no plan has been generated yet.
func (r *sqlitePlanRepository) GetSleep(ctx context.Context, q querier, userID string) (fitness.SleepSchedule, error) {
	var s fitness.SleepSchedule
	err := q.QueryRowContext(ctx, `
		SELECT bedtime, wake_time, target_hours
		FROM sleep_schedules
		WHERE user_id = ?`, userID).Scan(&s.Bedtime, &s.WakeTime, &s.TargetHours)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, errors.Wrap(err, "query sleep schedule")
	}
	return s, nil
}
