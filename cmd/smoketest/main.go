package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/fitplan/internal/e2etest"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/fitness"
	"github.com/myrjola/fitplan/internal/logging"
	"github.com/myrjola/fitplan/internal/plan"
	"github.com/myrjola/fitplan/internal/testhelpers"
)

// smokeOnboarding is a realistic profile for a throwaway user.
func smokeOnboarding() plan.OnboardingInput {
	return plan.OnboardingInput{
		Age:           35,
		Height:        172,
		CurrentWeight: 74,
		TargetWeight:  70,
		Gender:        fitness.GenderFemale,
		Goals:         []fitness.Goal{fitness.GoalWeightLoss},
		Conditions:    []fitness.Condition{"none"},
		Locations:     []fitness.Location{fitness.LocationHome, fitness.LocationOutdoors},
	}
}

// testUserJourney walks a fresh account through onboarding, the checklist and the weight log and deletes it again.
func testUserJourney(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	email := "smoketest+" + uuid.NewString() + "@example.com"
	password := uuid.NewString()
	if _, err := client.SignUp(ctx, email, password); err != nil {
		return errors.Wrap(err, "sign up")
	}
	if err := client.SignOut(ctx); err != nil {
		return errors.Wrap(err, "sign out")
	}
	if _, err := client.SignIn(ctx, email, password); err != nil {
		return errors.Wrap(err, "sign in")
	}

	var overview plan.Overview
	if err := client.Do(ctx, http.MethodPost, "/api/onboarding", smokeOnboarding(), &overview); err != nil {
		return errors.Wrap(err, "onboard")
	}
	if len(overview.Workouts) == 0 || len(overview.Meals) == 0 {
		return errors.New("onboarding returned an empty plan")
	}

	var tasks plan.TaskList
	if err := client.Do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return errors.Wrap(err, "list tasks")
	}
	if len(tasks.Tasks) == 0 {
		return errors.New("no tasks for today")
	}
	toggle := fmt.Sprintf("/api/tasks/%d/toggle", tasks.Tasks[0].ID)
	if err := client.Do(ctx, http.MethodPost, toggle, nil, nil); err != nil {
		return errors.Wrap(err, "toggle task")
	}
	if err := client.Do(ctx, http.MethodPost, "/api/weight-logs", plan.WeightLogInput{Weight: 73.6}, nil); err != nil {
		return errors.Wrap(err, "log weight")
	}
	var progress plan.Progress
	if err := client.Do(ctx, http.MethodGet, "/api/progress", nil, &progress); err != nil {
		return errors.Wrap(err, "progress")
	}
	if progress.CompletedTasks != 1 {
		return errors.New("toggled task not counted", slog.Int("completed_tasks", progress.CompletedTasks))
	}
	if _, err := client.GetDoc(ctx, "/plan/print"); err != nil {
		return errors.Wrap(err, "printable plan")
	}

	if err := client.Do(ctx, http.MethodDelete, "/api/account", nil, nil); err != nil {
		return errors.Wrap(err, "delete account")
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
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
	if err = testUserJourney(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "user journey failed", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
