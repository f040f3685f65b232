// Package fitness derives workout, diet and sleep plans plus a daily checklist from a user's profile and goals.
//
// Every function is pure: the same input always gives the same output, nothing is read from the environment and
// nothing is persisted. Callers own storage, identity and the wall clock.
package fitness

import (
	"fmt"
	"time"
)

// Workout constants.
const (
	cardioMinutes         = 30
	cardioMinutesAsthma   = 25
	strengthMinutes       = 45
	flexibilityMinutes    = 20
	restIntervalStandard  = "60-90 seconds"
	restIntervalAsthma    = "90-120 seconds"
	focusUpperBody        = "Upper Body"
	focusLowerBody        = "Lower Body"
	focusFullBody         = "Full Body"
	flexibilityTitle      = "Active Recovery & Flexibility"
	flexibilityDescriptor = "Light stretching and mobility work for recovery."
)

//nolint:gochecknoglobals // read-only rule tables.
var (
	cardioDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

	strengthSchedule = []struct {
		day   time.Weekday
		focus string
	}{
		{day: time.Monday, focus: focusUpperBody},
		{day: time.Wednesday, focus: focusLowerBody},
		{day: time.Friday, focus: focusFullBody},
	}

	flexibilityDays = []time.Weekday{time.Sunday, time.Saturday}

	// Equipment per location, listed in gym, home, outdoors order.
	cardioEquipment = equipmentTable{
		byLocation: []locationEquipment{
			{LocationGym, []string{"Treadmill", "Stationary bike", "Rowing machine"}},
			{LocationHome, []string{"Jump rope", "Resistance bands", "Bodyweight exercises"}},
			{LocationOutdoors, []string{"Running shoes", "Bicycle"}},
		},
		fallback: []string{"Bodyweight exercises", "Running shoes"},
	}
	strengthEquipment = equipmentTable{
		byLocation: []locationEquipment{
			{LocationGym, []string{"Dumbbells", "Barbells", "Cable machines", "Leg press", "Bench"}},
			{LocationHome, []string{"Dumbbells", "Resistance bands", "Pull-up bar", "Bodyweight"}},
			{LocationOutdoors, []string{"Resistance bands", "Bodyweight exercises"}},
		},
		fallback: []string{"Bodyweight exercises", "Resistance bands"},
	}
)

type locationEquipment struct {
	location  Location
	equipment []string
}

type equipmentTable struct {
	byLocation []locationEquipment
	fallback   []string
}

// forLocations concatenates the equipment of every selected location. The result is always a new slice.
func (t equipmentTable) forLocations(locations Locations) []string {
	var equipment []string
	for _, le := range t.byLocation {
		if locations.Has(le.location) {
			equipment = append(equipment, le.equipment...)
		}
	}
	if len(equipment) == 0 {
		return append([]string(nil), t.fallback...)
	}
	return equipment
}

// GenerateWorkoutPlan builds the weekly workout plan.
//
// The cardio block comes first when weight loss is wanted, then the strength block for muscle gain, and the two
// recovery days are always appended. The profile is accepted for symmetry with the other generators; no current
// rule reads it.
func GenerateWorkoutPlan(_ Profile, goals Goals, conditions Conditions, locations Locations) []WorkoutPlanEntry {
	hasAsthma := conditions.HasAsthma()

	var workouts []WorkoutPlanEntry
	if goals.NeedsWeightLoss() {
		workouts = append(workouts, cardioBlock(hasAsthma, locations)...)
	}
	if goals.NeedsMuscleGain() {
		workouts = append(workouts, strengthBlock(hasAsthma, locations)...)
	}
	return append(workouts, flexibilityBlock()...)
}

func cardioBlock(hasAsthma bool, locations Locations) []WorkoutPlanEntry {
	duration := cardioMinutes
	description := "Steady-state cardio for fat burning and cardiovascular health."
	if hasAsthma {
		duration = cardioMinutesAsthma
		description = "Moderate intensity cardio with breathing focus. Start with 5-minute warm-up."
	}

	entries := make([]WorkoutPlanEntry, 0, len(cardioDays))
	for _, day := range cardioDays {
		entries = append(entries, WorkoutPlanEntry{
			Title:           fmt.Sprintf("Cardio Session - Day %d", day),
			Description:     description,
			ExerciseType:    ExerciseTypeCardio,
			DurationMinutes: duration,
			Intensity:       IntensityModerate,
			EquipmentNeeded: cardioEquipment.forLocations(locations),
			Instructions:    cardioInstructions(hasAsthma),
			DayOfWeek:       int(day),
		})
	}
	return entries
}

func cardioInstructions(hasAsthma bool) []string {
	if hasAsthma {
		return []string{
			"5-minute warm-up with light walking",
			"Deep breathing exercises",
			"15-20 minutes moderate intensity (brisk walking or light cycling)",
			"Take breaks if needed",
			"5-minute cool-down with stretching",
		}
	}
	return []string{
		"5-minute warm-up",
		"20-25 minutes steady cardio (running, cycling, or rowing)",
		"5-minute cool-down",
	}
}

func strengthBlock(hasAsthma bool, locations Locations) []WorkoutPlanEntry {
	intensity := IntensityHigh
	description := "Progressive resistance training to build muscle mass and strength."
	rest := restIntervalStandard
	if hasAsthma {
		intensity = IntensityModerate
		description = "Resistance training with extended rest periods. Focus on controlled breathing."
		rest = restIntervalAsthma
	}

	entries := make([]WorkoutPlanEntry, 0, len(strengthSchedule))
	for _, s := range strengthSchedule {
		entries = append(entries, WorkoutPlanEntry{
			Title:           "Strength Training - " + s.focus,
			Description:     description,
			ExerciseType:    ExerciseTypeStrength,
			DurationMinutes: strengthMinutes,
			Intensity:       intensity,
			EquipmentNeeded: strengthEquipment.forLocations(locations),
			Instructions:    strengthInstructions(s.focus, rest),
			DayOfWeek:       int(s.day),
		})
	}
	return entries
}

// strengthInstructions returns the exercise script of a focus area with the rest interval filled in.
func strengthInstructions(focus string, rest string) []string {
	var exercises []string
	switch focus {
	case focusUpperBody:
		exercises = []string{
			"Push-ups or Bench Press: 3 sets of 8-12 reps",
			"Rows or Pull-ups: 3 sets of 8-12 reps",
			"Shoulder Press: 3 sets of 8-12 reps",
			"Bicep Curls: 3 sets of 10-15 reps",
			"Tricep Extensions: 3 sets of 10-15 reps",
		}
	case focusLowerBody:
		exercises = []string{
			"Squats: 3 sets of 10-15 reps",
			"Lunges: 3 sets of 10 reps per leg",
			"Leg Press or Step-ups: 3 sets of 12-15 reps",
			"Calf Raises: 3 sets of 15-20 reps",
		}
	default:
		exercises = []string{
			"Squats: 3 sets of 10-12 reps",
			"Push-ups: 3 sets of 8-12 reps",
			"Bent-over Rows: 3 sets of 10-12 reps",
			"Plank: 3 sets of 30-60 seconds",
			"Lunges: 2 sets of 10 reps per leg",
		}
	}

	instructions := make([]string, 0, len(exercises)+3) //nolint:mnd // warm-up, rest and stretching.
	instructions = append(instructions, "5-minute warm-up")
	instructions = append(instructions, exercises...)
	instructions = append(instructions, fmt.Sprintf("Rest %s between sets", rest), "5-minute stretching")
	return instructions
}

func flexibilityBlock() []WorkoutPlanEntry {
	entries := make([]WorkoutPlanEntry, 0, len(flexibilityDays))
	for _, day := range flexibilityDays {
		entries = append(entries, WorkoutPlanEntry{
			Title:           flexibilityTitle,
			Description:     flexibilityDescriptor,
			ExerciseType:    ExerciseTypeFlexibility,
			DurationMinutes: flexibilityMinutes,
			Intensity:       IntensityLow,
			EquipmentNeeded: []string{"Yoga mat"},
			Instructions: []string{
				"5-minute light walking",
				"Full body stretching routine",
				"Deep breathing exercises",
				"Foam rolling if available",
			},
			DayOfWeek: int(day),
		})
	}
	return entries
}
