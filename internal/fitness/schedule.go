package fitness

import (
	"fmt"
	"strconv"
	"time"
)

// GenerateSleepSchedule recommends a sleep window. Muscle gain gets an earlier bedtime for extra recovery.
func GenerateSleepSchedule(goals Goals) SleepSchedule {
	if goals.NeedsMuscleGain() {
		return SleepSchedule{Bedtime: "10:00 PM", WakeTime: "6:30 AM", TargetHours: 8.5} //nolint:mnd // hours.
	}
	return SleepSchedule{Bedtime: "10:30 PM", WakeTime: "6:30 AM", TargetHours: 8} //nolint:mnd // hours.
}

// GenerateDailyTasks builds the checklist for the given weekday.
//
// Only workouts scheduled on today are included, while meals, hydration and sleep appear every day.
func GenerateDailyTasks(
	workouts []WorkoutPlanEntry,
	meals []DietPlanEntry,
	sleep SleepSchedule,
	today time.Weekday,
) []DailyTask {
	tasks := make([]DailyTask, 0, len(meals)+3) //nolint:mnd // typical workout, hydration and sleep.

	for _, w := range workouts {
		if w.DayOfWeek != int(today) {
			continue
		}
		tasks = append(tasks, DailyTask{
			TaskType:    TaskTypeWorkout,
			Title:       w.Title,
			Description: w.Description,
			TargetValue: fmt.Sprintf("%d minutes", w.DurationMinutes),
			IsCompleted: false,
		})
	}

	for _, m := range meals {
		tasks = append(tasks, DailyTask{
			TaskType:    TaskTypeMeal,
			Title:       m.MealName,
			Description: fmt.Sprintf("%s - %s", m.MealType, m.SuggestedTime),
			TargetValue: fmt.Sprintf("%d calories", m.Calories),
			IsCompleted: false,
		})
	}

	return append(tasks,
		DailyTask{
			TaskType:    TaskTypeHydration,
			Title:       "Daily Water Intake",
			Description: "Stay hydrated throughout the day",
			TargetValue: "2-3 liters",
			IsCompleted: false,
		},
		DailyTask{
			TaskType:    TaskTypeSleep,
			Title:       "Sleep Schedule",
			Description: fmt.Sprintf("Bedtime: %s, Wake: %s", sleep.Bedtime, sleep.WakeTime),
			TargetValue: strconv.FormatFloat(sleep.TargetHours, 'f', -1, 64) + " hours",
			IsCompleted: false,
		},
	)
}

// Input bundles everything the generators read.
type Input struct {
	Profile    Profile
	Goals      Goals
	Conditions Conditions
	Locations  Locations
}

// Plan is the complete output of one generation run.
type Plan struct {
	Workouts []WorkoutPlanEntry
	Meals    []DietPlanEntry
	Sleep    SleepSchedule
	Tasks    []DailyTask
}

// Generate runs every generator and derives the checklist for today.
func Generate(in Input, today time.Weekday) Plan {
	workouts := GenerateWorkoutPlan(in.Profile, in.Goals, in.Conditions, in.Locations)
	meals := GenerateDietPlan(in.Profile, in.Goals)
	sleep := GenerateSleepSchedule(in.Goals)
	return Plan{
		Workouts: workouts,
		Meals:    meals,
		Sleep:    sleep,
		Tasks:    GenerateDailyTasks(workouts, meals, sleep, today),
	}
}
