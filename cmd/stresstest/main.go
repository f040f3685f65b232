package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/fitplan/internal/e2etest"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/fitness"
	"github.com/myrjola/fitplan/internal/logging"
	"github.com/myrjola/fitplan/internal/plan"
	"github.com/myrjola/fitplan/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	numUsers                   = 10
	userRegistrationTimeout    = 30 * time.Second
	scenarioTimeout            = 30 * time.Second
	historyTimeout             = 5 * time.Minute
	maxConcurrentRegistrations = 10
	maxConcurrentOperations    = 20
	historyWeeks               = 26 // 6 months of weekly weigh-ins.
	successRateThreshold       = 95.0
	percentageMultiplier       = 100
	expectedArgsCount          = 2
)

type authenticatedUser struct {
	client *e2etest.Client
	userID string
	input  plan.OnboardingInput
}

// randomOnboarding spreads the users over genders, goals and locations so that every generator branch is loaded.
//
//nolint:gosec,mnd // load test data.
func randomOnboarding() plan.OnboardingInput {
	genders := []fitness.Gender{fitness.GenderMale, fitness.GenderFemale, fitness.GenderOther}
	goals := []fitness.Goal{fitness.GoalWeightLoss, fitness.GoalMuscleGain, fitness.GoalBoth}
	locations := []fitness.Location{fitness.LocationGym, fitness.LocationHome, fitness.LocationOutdoors}
	conditions := []fitness.Condition{"none", "asthma", "knee pain"}
	weight := 60 + rand.Float64()*50
	return plan.OnboardingInput{
		Age:           18 + rand.IntN(50),
		Height:        155 + rand.Float64()*40,
		CurrentWeight: weight,
		TargetWeight:  weight - 5,
		Gender:        genders[rand.IntN(len(genders))],
		Goals:         []fitness.Goal{goals[rand.IntN(len(goals))]},
		Conditions:    []fitness.Condition{conditions[rand.IntN(len(conditions))]},
		Locations:     []fitness.Location{locations[rand.IntN(len(locations))]},
	}
}

// registerAndOnboard signs up a new user with its own session and completes onboarding.
func registerAndOnboard(ctx context.Context, url string) (*authenticatedUser, error) {
	client, err := e2etest.NewClient(url)
	if err != nil {
		return nil, errors.Wrap(err, "new client")
	}
	email := "stresstest+" + uuid.NewString() + "@example.com"
	userID, err := client.SignUp(ctx, email, uuid.NewString())
	if err != nil {
		return nil, errors.Wrap(err, "sign up")
	}
	in := randomOnboarding()
	if err = client.Do(ctx, http.MethodPost, "/api/onboarding", in, nil); err != nil {
		return nil, errors.Wrap(err, "onboard", slog.String("user_id", userID))
	}
	return &authenticatedUser{client: client, userID: userID, input: in}, nil
}

func setupUsers(ctx context.Context, url string, logger *slog.Logger) ([]*authenticatedUser, error) {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting user registration", slog.Int("num_users", numUsers))
	var (
		users   = make([]*authenticatedUser, 0, numUsers)
		usersMu sync.Mutex
		g       errgroup.Group
	)
	g.SetLimit(maxConcurrentRegistrations)
	for i := range numUsers {
		g.Go(func() error {
			userCtx, cancel := context.WithTimeout(ctx, userRegistrationTimeout)
			defer cancel()
			user, err := registerAndOnboard(userCtx, url)
			if err != nil {
				return errors.Wrap(err, "register user", slog.Int("user_index", i))
			}
			usersMu.Lock()
			users = append(users, user)
			usersMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return users, errors.Wrap(err, "registration failures")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "All users registered", slog.Int("total_users", len(users)))
	return users, nil
}

// generateHistory logs a weekly weigh-in and completes the workouts of that day for the past months.
func generateHistory(ctx context.Context, user *authenticatedUser) error {
	start := time.Now().AddDate(0, 0, -7*historyWeeks)
	weight := user.input.CurrentWeight + 3 //nolint:mnd // start above the onboarding weight.
	for week := range historyWeeks {
		date := start.AddDate(0, 0, 7*week).Format(time.DateOnly)
		weight -= 0.1 + rand.Float64()*0.2 //nolint:gosec,mnd // slow steady loss.
		body := plan.WeightLogInput{Weight: weight, Notes: fmt.Sprintf("week %d", week+1), Date: date}
		if err := user.client.Do(ctx, http.MethodPost, "/api/weight-logs", body, nil); err != nil {
			return errors.Wrap(err, "log weight", slog.String("date", date))
		}
		var list plan.TaskList
		if err := user.client.Do(ctx, http.MethodGet, "/api/tasks?date="+date, nil, &list); err != nil {
			return errors.Wrap(err, "list tasks", slog.String("date", date))
		}
		for _, task := range list.Tasks {
			if task.TaskType != fitness.TaskTypeWorkout {
				continue
			}
			if err := user.client.Do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/toggle", task.ID), nil, nil); err != nil {
				return errors.Wrap(err, "toggle task", slog.Int64("task_id", task.ID))
			}
		}
	}
	return nil
}

func generateHistoryForUsers(ctx context.Context, users []*authenticatedUser) error {
	var g errgroup.Group
	g.SetLimit(maxConcurrentRegistrations)
	for _, user := range users {
		g.Go(func() error {
			historyCtx, cancel := context.WithTimeout(ctx, historyTimeout)
			defer cancel()
			if err := generateHistory(historyCtx, user); err != nil {
				return errors.Wrap(err, "generate history", slog.String("user_id", user.userID))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "history generation")
	}
	return nil
}

// dailyScenario is what a user does when opening the app: check the plan and the checklist, tick a task off and look
// at the progress.
func dailyScenario(ctx context.Context, user *authenticatedUser) error {
	client := user.client
	if err := client.Do(ctx, http.MethodGet, "/api/plan", nil, nil); err != nil {
		return errors.Wrap(err, "get plan")
	}
	var list plan.TaskList
	if err := client.Do(ctx, http.MethodGet, "/api/tasks", nil, &list); err != nil {
		return errors.Wrap(err, "list tasks")
	}
	if len(list.Tasks) > 0 {
		task := list.Tasks[rand.IntN(len(list.Tasks))] //nolint:gosec // load test data.
		if err := client.Do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/toggle", task.ID), nil, nil); err != nil {
			return errors.Wrap(err, "toggle task")
		}
	}
	if err := client.Do(ctx, http.MethodGet, "/api/progress", nil, nil); err != nil {
		return errors.Wrap(err, "progress")
	}
	if err := client.Do(ctx, http.MethodGet, "/api/weight-logs", nil, nil); err != nil {
		return errors.Wrap(err, "weight logs")
	}
	if _, err := client.GetDoc(ctx, "/plan/print"); err != nil {
		return errors.Wrap(err, "printable plan")
	}
	return nil
}

func runLoadTest(ctx context.Context, users []*authenticatedUser, logger *slog.Logger) error {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("num_users", len(users)))
	var (
		successCount, failureCount atomic.Int64
		g                          errgroup.Group
	)
	g.SetLimit(maxConcurrentOperations)
	for _, user := range users {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()
			if err := dailyScenario(scenarioCtx, user); err != nil {
				failureCount.Add(1)
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
					slog.String("user_id", user.userID), errors.SlogError(err))
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	successRate := float64(successCount.Load()) / float64(len(users)) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate))
	if successRate < successRateThreshold {
		return errors.New("success rate below threshold", slog.Float64("success_rate", successRate))
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client, err := e2etest.NewClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}

	setupStart := time.Now()
	users, err := setupUsers(ctx, url, logger)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to setup users", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "User setup completed", slog.Duration("setup_duration", time.Since(setupStart)))

	historyStart := time.Now()
	if err = generateHistoryForUsers(ctx, users); err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "some history generation failed, continuing with load test",
			errors.SlogError(err))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "History generation completed",
		slog.Duration("history_duration", time.Since(historyStart)), slog.Int("weeks_per_user", historyWeeks))

	loadTestStart := time.Now()
	if err = runLoadTest(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)),
		slog.Int("users_tested", len(users)))
}
