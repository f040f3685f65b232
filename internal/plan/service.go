// Package plan persists generated fitness plans and serves the daily checklist, weight log and progress of the
// authenticated user.
package plan

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"github.com/myrjola/fitplan/internal/contexthelpers"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/fitness"
	"github.com/myrjola/fitplan/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotFound        = errors.NewSentinel("not found")
	ErrInvalidInput    = errors.NewSentinel("invalid input")
	ErrUnauthenticated = errors.NewSentinel("unauthenticated")
)

const initialWeightNote = "Initial weight"

// Service reads the user from the context set by the authentication middleware.
type Service struct {
	db     *sqlite.Database
	repo   *repository
	logger *slog.Logger
}

func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	factory := newRepositoryFactory(db, logger)
	return &Service{
		db:     db,
		repo:   factory.newRepository(),
		logger: logger,
	}
}

func userID(ctx context.Context) (string, error) {
	id := contexthelpers.AuthenticatedUserID(ctx)
	if id == "" {
		return "", ErrUnauthenticated
	}
	return id, nil
}

// Onboard stores the answers, generates the plan and seeds today's checklist and the first weight log in a
// single transaction.
func (s *Service) Onboard(ctx context.Context, in OnboardingInput, now time.Time) error {
	uid, err := userID(ctx)
	if err != nil {
		return err
	}
	in = in.normalized()
	if err = in.Validate(); err != nil {
		return err
	}

	generated := fitness.Generate(in.fitnessInput(), now.Weekday())
	date := now.Format(dateFormat)
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err = s.repo.profiles.Save(ctx, tx, uid, in); err != nil {
			return errors.Wrap(err, "save profile")
		}
		if err = s.repo.plans.Replace(ctx, tx, uid, generated); err != nil {
			return errors.Wrap(err, "replace plan")
		}
		if err = s.repo.tasks.ReplaceForDate(ctx, tx, uid, date, newTasks(generated.Tasks)); err != nil {
			return errors.Wrap(err, "replace tasks")
		}
		if _, err = s.repo.weights.Insert(ctx, tx, uid, date, in.CurrentWeight, initialWeightNote); err != nil {
			return errors.Wrap(err, "insert initial weight")
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "onboard", slog.String("user_id", uid))
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "user onboarded",
		slog.Int("workouts", len(generated.Workouts)),
		slog.Int("tasks", len(generated.Tasks)))
	return nil
}

func newTasks(generated []fitness.DailyTask) []Task {
	tasks := make([]Task, len(generated))
	for i, t := range generated {
		tasks[i] = Task{DailyTask: t, ID: 0, Date: "", CompletedAt: nil}
	}
	return tasks
}

func (s *Service) GetProfile(ctx context.Context) (Profile, error) {
	uid, err := userID(ctx)
	if err != nil {
		return Profile{}, err
	}
	return s.repo.profiles.Get(ctx, s.db.ReadOnly, uid)
}

// UpdateProfile stores new answers, regenerates the plan and re-derives today's checklist. Tasks keeping their
// type and title keep their completion state.
func (s *Service) UpdateProfile(ctx context.Context, in OnboardingInput, now time.Time) error {
	uid, err := userID(ctx)
	if err != nil {
		return err
	}
	in = in.normalized()
	if err = in.Validate(); err != nil {
		return err
	}

	generated := fitness.Generate(in.fitnessInput(), now.Weekday())
	date := now.Format(dateFormat)
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.repo.tasks.List(ctx, tx, uid, date)
		if err != nil {
			return errors.Wrap(err, "list existing tasks")
		}
		if err = s.repo.profiles.Save(ctx, tx, uid, in); err != nil {
			return errors.Wrap(err, "save profile")
		}
		if err = s.repo.plans.Replace(ctx, tx, uid, generated); err != nil {
			return errors.Wrap(err, "replace plan")
		}
		tasks := carryOverCompletion(existing, newTasks(generated.Tasks))
		if err = s.repo.tasks.ReplaceForDate(ctx, tx, uid, date, tasks); err != nil {
			return errors.Wrap(err, "replace tasks")
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "update profile", slog.String("user_id", uid))
	}
	return nil
}

type taskKey struct {
	taskType fitness.TaskType
	title    string
}

func carryOverCompletion(existing []Task, next []Task) []Task {
	done := make(map[taskKey]*string)
	for _, t := range existing {
		if t.IsCompleted {
			done[taskKey{t.TaskType, t.Title}] = t.CompletedAt
		}
	}
	for i, t := range next {
		if completedAt, ok := done[taskKey{t.TaskType, t.Title}]; ok {
			next[i].IsCompleted = true
			next[i].CompletedAt = completedAt
		}
	}
	return next
}

// Overview returns the stored plan or ErrNotFound before onboarding.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	uid, err := userID(ctx)
	if err != nil {
		return Overview{}, err
	}
	var o Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o.Workouts, err = s.repo.plans.ListWorkouts(gctx, s.db.ReadOnly, uid)
		return err
	})
	g.Go(func() error {
		var err error
		o.Meals, err = s.repo.plans.ListMeals(gctx, s.db.ReadOnly, uid)
		return err
	})
	g.Go(func() error {
		var err error
		o.Sleep, err = s.repo.plans.GetSleep(gctx, s.db.ReadOnly, uid)
		return err
	})
	if err = g.Wait(); err != nil {
		return Overview{}, err
	}
	return o, nil
}

// TodayTasks returns the checklist of date. A missing checklist is derived from the stored plan and persisted.
// Users without a plan get an empty checklist.
func (s *Service) TodayTasks(ctx context.Context, date time.Time) (TaskList, error) {
	uid, err := userID(ctx)
	if err != nil {
		return TaskList{}, err
	}
	day := date.Format(dateFormat)
	tasks, err := s.repo.tasks.List(ctx, s.db.ReadOnly, uid, day)
	if err != nil {
		return TaskList{}, err
	}

	if len(tasks) == 0 {
		if tasks, err = s.deriveTasks(ctx, uid, date); err != nil {
			return TaskList{}, errors.Wrap(err, "derive tasks", slog.String("date", day))
		}
	}

	return TaskList{Date: day, Tasks: tasks, Progress: newTaskProgress(tasks)}, nil
}

func (s *Service) deriveTasks(ctx context.Context, uid string, date time.Time) ([]Task, error) {
	day := date.Format(dateFormat)
	var tasks []Task
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		// Another request may have derived them in the meantime.
		if tasks, err = s.repo.tasks.List(ctx, tx, uid, day); err != nil || len(tasks) > 0 {
			return err
		}
		sleep, err := s.repo.plans.GetSleep(ctx, tx, uid)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		workouts, err := s.repo.plans.ListWorkouts(ctx, tx, uid)
		if err != nil {
			return err
		}
		meals, err := s.repo.plans.ListMeals(ctx, tx, uid)
		if err != nil {
			return err
		}
		derived := fitness.GenerateDailyTasks(workouts, meals, sleep, date.Weekday())
		if err = s.repo.tasks.ReplaceForDate(ctx, tx, uid, day, newTasks(derived)); err != nil {
			return err
		}
		tasks, err = s.repo.tasks.List(ctx, tx, uid, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func newTaskProgress(tasks []Task) TaskProgress {
	p := TaskProgress{Completed: 0, Total: len(tasks), Percent: 0}
	for _, t := range tasks {
		if t.IsCompleted {
			p.Completed++
		}
	}
	p.Percent = percent(p.Completed, p.Total)
	return p
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100)) //nolint:mnd // percent
}

// ToggleTask flips the completion of one of the user's tasks.
func (s *Service) ToggleTask(ctx context.Context, id int64) (Task, error) {
	uid, err := userID(ctx)
	if err != nil {
		return Task{}, err
	}
	return s.repo.tasks.Toggle(ctx, uid, id)
}

// LogWeight records weight for date and makes it the profile's current weight.
func (s *Service) LogWeight(ctx context.Context, weight float64, notes string, date time.Time) (WeightLog, error) {
	uid, err := userID(ctx)
	if err != nil {
		return WeightLog{}, err
	}
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return WeightLog{}, errors.Wrap(ErrInvalidInput, "weight must be positive")
	}
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return WeightLog{}, errors.Wrap(ErrInvalidInput, "notes are too long")
	}

	var log WeightLog
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		if log, err = s.repo.weights.Insert(ctx, tx, uid, date.Format(dateFormat), weight, notes); err != nil {
			return err
		}
		return s.repo.profiles.SetCurrentWeight(ctx, tx, uid, weight)
	})
	if err != nil {
		return WeightLog{}, errors.Wrap(err, "log weight", slog.Float64("weight", weight))
	}
	return log, nil
}

func (s *Service) WeightLogs(ctx context.Context) ([]WeightLog, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.weights.List(ctx, uid)
}

// Progress compares the first and latest weight logs and reports the completion rate over all tasks.
func (s *Service) Progress(ctx context.Context) (Progress, error) {
	uid, err := userID(ctx)
	if err != nil {
		return Progress{}, err
	}
	profile, err := s.repo.profiles.Get(ctx, s.db.ReadOnly, uid)
	if err != nil {
		return Progress{}, errors.Wrap(err, "get profile")
	}
	logs, err := s.repo.weights.List(ctx, uid)
	if err != nil {
		return Progress{}, errors.Wrap(err, "list weight logs")
	}
	completed, total, err := s.repo.tasks.Count(ctx, uid)
	if err != nil {
		return Progress{}, err
	}
	return newProgress(logs, profile.TargetWeightKg, completed, total), nil
}

func newProgress(logs []WeightLog, target *float64, completed int, total int) Progress {
	p := Progress{
		StartWeight:    nil,
		CurrentWeight:  nil,
		WeightChange:   nil,
		TargetWeight:   target,
		Remaining:      nil,
		CompletedTasks: completed,
		TotalTasks:     total,
		CompletionRate: percent(completed, total),
	}
	if len(logs) == 0 {
		return p
	}
	start := logs[0].Weight
	current := logs[len(logs)-1].Weight
	change := roundTenth(current - start)
	p.StartWeight = &start
	p.CurrentWeight = &current
	p.WeightChange = &change
	if target != nil {
		remaining := roundTenth(current - *target)
		p.Remaining = &remaining
	}
	return p
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10 //nolint:mnd // one decimal
}
