package fitness_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/fitplan/internal/fitness"
)

func TestGenerateSleepSchedule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		goals fitness.Goals
		want  fitness.SleepSchedule
	}{
		{
			name:  "no goals",
			goals: nil,
			want:  fitness.SleepSchedule{Bedtime: "10:30 PM", WakeTime: "6:30 AM", TargetHours: 8},
		},
		{
			name:  "weight loss",
			goals: fitness.Goals{fitness.GoalWeightLoss},
			want:  fitness.SleepSchedule{Bedtime: "10:30 PM", WakeTime: "6:30 AM", TargetHours: 8},
		},
		{
			name:  "muscle gain",
			goals: fitness.Goals{fitness.GoalMuscleGain},
			want:  fitness.SleepSchedule{Bedtime: "10:00 PM", WakeTime: "6:30 AM", TargetHours: 8.5},
		},
		{
			name:  "both",
			goals: fitness.Goals{fitness.GoalBoth},
			want:  fitness.SleepSchedule{Bedtime: "10:00 PM", WakeTime: "6:30 AM", TargetHours: 8.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, fitness.GenerateSleepSchedule(tt.goals)); diff != "" {
				t.Errorf("GenerateSleepSchedule() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerateDailyTasks(t *testing.T) {
	t.Parallel()
	goals := fitness.Goals{fitness.GoalBoth}
	workouts := fitness.GenerateWorkoutPlan(fitness.Profile{}, goals, nil, nil)
	meals := fitness.GenerateDietPlan(fitness.Profile{}, goals)
	sleep := fitness.GenerateSleepSchedule(goals)

	tasks := fitness.GenerateDailyTasks(workouts, meals, sleep, time.Wednesday)

	// Cardio and lower body strength on Wednesday, then five meals, water and sleep.
	if len(tasks) != 9 {
		t.Fatalf("len = %d, want 9", len(tasks))
	}
	wantWorkouts := []fitness.DailyTask{
		{
			TaskType:    fitness.TaskTypeWorkout,
			Title:       "Cardio Session - Day 3",
			Description: "Steady-state cardio for fat burning and cardiovascular health.",
			TargetValue: "30 minutes",
			IsCompleted: false,
		},
		{
			TaskType:    fitness.TaskTypeWorkout,
			Title:       "Strength Training - Lower Body",
			Description: "Progressive resistance training to build muscle mass and strength.",
			TargetValue: "45 minutes",
			IsCompleted: false,
		},
	}
	if diff := cmp.Diff(wantWorkouts, tasks[:2]); diff != "" {
		t.Errorf("workout tasks mismatch (-want +got):\n%s", diff)
	}

	breakfast := tasks[2]
	if breakfast.Title != "High-Protein Breakfast" || breakfast.Description != "breakfast - 7:00 AM" {
		t.Errorf("unexpected breakfast task %+v", breakfast)
	}
	// 2417 kcal * 0.25 = 604.25
	if want := "604 calories"; breakfast.TargetValue != want {
		t.Errorf("breakfast target = %q, want %q", breakfast.TargetValue, want)
	}

	wantTail := []fitness.DailyTask{
		{
			TaskType:    fitness.TaskTypeHydration,
			Title:       "Daily Water Intake",
			Description: "Stay hydrated throughout the day",
			TargetValue: "2-3 liters",
			IsCompleted: false,
		},
		{
			TaskType:    fitness.TaskTypeSleep,
			Title:       "Sleep Schedule",
			Description: "Bedtime: 10:00 PM, Wake: 6:30 AM",
			TargetValue: "8.5 hours",
			IsCompleted: false,
		},
	}
	if diff := cmp.Diff(wantTail, tasks[7:]); diff != "" {
		t.Errorf("trailing tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateDailyTasks_weekdays(t *testing.T) {
	t.Parallel()
	goals := fitness.Goals{fitness.GoalWeightLoss}
	workouts := fitness.GenerateWorkoutPlan(fitness.Profile{}, goals, nil, nil)
	meals := fitness.GenerateDietPlan(fitness.Profile{}, goals)
	sleep := fitness.GenerateSleepSchedule(goals)

	for day := time.Sunday; day <= time.Saturday; day++ {
		tasks := fitness.GenerateDailyTasks(workouts, meals, sleep, day)
		var workoutTasks int
		for _, task := range tasks {
			if task.IsCompleted {
				t.Errorf("%s: task %q already completed", day, task.Title)
			}
			if task.TaskType == fitness.TaskTypeWorkout {
				workoutTasks++
			}
		}
		// Every day has exactly one workout: cardio on weekdays, recovery on weekends.
		if workoutTasks != 1 {
			t.Errorf("%s: %d workout tasks, want 1", day, workoutTasks)
		}
		if len(tasks) != workoutTasks+len(meals)+2 {
			t.Errorf("%s: len = %d, want %d", day, len(tasks), workoutTasks+len(meals)+2)
		}
		if last := tasks[len(tasks)-1]; last.TargetValue != "8 hours" {
			t.Errorf("%s: sleep target = %q, want %q", day, last.TargetValue, "8 hours")
		}
	}
}

func TestGenerateDailyTasks_noWorkoutsStillHasChecklist(t *testing.T) {
	t.Parallel()
	tasks := fitness.GenerateDailyTasks(nil, nil, fitness.GenerateSleepSchedule(nil), time.Monday)
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2", len(tasks))
	}
	if tasks[0].TaskType != fitness.TaskTypeHydration || tasks[1].TaskType != fitness.TaskTypeSleep {
		t.Errorf("unexpected tasks %+v", tasks)
	}
}

func TestGenerate_deterministic(t *testing.T) {
	t.Parallel()
	in := fitness.Input{
		Profile:    profile(41, 172, 88, fitness.GenderFemale),
		Goals:      fitness.Goals{fitness.GoalBoth},
		Conditions: fitness.Conditions{fitness.ConditionAsthma},
		Locations:  fitness.Locations{fitness.LocationHome, fitness.LocationOutdoors},
	}

	first := fitness.Generate(in, time.Friday)
	second := fitness.Generate(in, time.Friday)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Generate() is not deterministic (-first +second):\n%s", diff)
	}
	if len(first.Workouts) != 10 || len(first.Meals) != 5 {
		t.Errorf("got %d workouts and %d meals, want 10 and 5", len(first.Workouts), len(first.Meals))
	}
	// Cardio, full body strength, five meals, water and sleep.
	if len(first.Tasks) != 9 {
		t.Errorf("got %d tasks on Friday, want 9", len(first.Tasks))
	}
}
