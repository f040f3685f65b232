package plan

import (
	"strings"
	"unicode/utf8"

	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/fitness"
)

// OnboardingInput is everything a user answers during onboarding. Profile updates use the same shape.
type OnboardingInput struct {
	Age           int                 `json:"age" jsonschema:"minimum=1,maximum=150"`
	Height        float64             `json:"height" jsonschema:"exclusiveMinimum=0,description=Height in centimetres"`
	CurrentWeight float64             `json:"current_weight" jsonschema:"exclusiveMinimum=0,description=Weight in kilograms"`
	TargetWeight  float64             `json:"target_weight" jsonschema:"exclusiveMinimum=0,description=Weight in kilograms"`
	Gender        fitness.Gender      `json:"gender" jsonschema:"enum=male,enum=female,enum=other"`
	Goals         []fitness.Goal      `json:"goals" jsonschema:"minItems=1,uniqueItems=true"`
	Conditions    []fitness.Condition `json:"medical_conditions" jsonschema:"minItems=1,uniqueItems=true"`
	Locations     []fitness.Location  `json:"exercise_locations" jsonschema:"minItems=1,uniqueItems=true"`
}

const (
	maxConditionLength = 100
	maxNotesLength     = 500
)

// Validate returns an error wrapping [ErrInvalidInput] describing the first problem found.
func (in OnboardingInput) Validate() error {
	switch {
	case in.Age <= 0:
		return errors.Wrap(ErrInvalidInput, "age must be positive")
	case in.Height <= 0:
		return errors.Wrap(ErrInvalidInput, "height must be positive")
	case in.CurrentWeight <= 0:
		return errors.Wrap(ErrInvalidInput, "current weight must be positive")
	case in.TargetWeight <= 0:
		return errors.Wrap(ErrInvalidInput, "target weight must be positive")
	case !in.Gender.Valid():
		return errors.Wrap(ErrInvalidInput, "unknown gender")
	case len(in.Goals) == 0:
		return errors.Wrap(ErrInvalidInput, "select at least one goal")
	case len(in.Conditions) == 0:
		return errors.Wrap(ErrInvalidInput, "select at least one medical condition or none")
	case len(in.Locations) == 0:
		return errors.Wrap(ErrInvalidInput, "select at least one exercise location")
	}
	for _, g := range in.Goals {
		if !g.Valid() {
			return errors.Wrap(ErrInvalidInput, "unknown goal "+string(g))
		}
	}
	for _, c := range in.Conditions {
		if l := utf8.RuneCountInString(string(c)); l == 0 || l > maxConditionLength || c != trimCondition(c) {
			return errors.Wrap(ErrInvalidInput, "invalid medical condition")
		}
	}
	for _, l := range in.Locations {
		if !l.Valid() {
			return errors.Wrap(ErrInvalidInput, "unknown exercise location "+string(l))
		}
	}
	return nil
}

func trimCondition(c fitness.Condition) fitness.Condition {
	return fitness.Condition(strings.TrimSpace(string(c)))
}

// normalized returns a copy with surrounding whitespace removed from the condition tags, so that " asthma" is
// stored and evaluated as "asthma".
func (in OnboardingInput) normalized() OnboardingInput {
	conditions := make([]fitness.Condition, len(in.Conditions))
	for i, c := range in.Conditions {
		conditions[i] = trimCondition(c)
	}
	in.Conditions = conditions
	return in
}

func (in OnboardingInput) fitnessInput() fitness.Input {
	gender := in.Gender
	return fitness.Input{
		Profile: fitness.Profile{
			Age:             &in.Age,
			HeightCm:        &in.Height,
			CurrentWeightKg: &in.CurrentWeight,
			TargetWeightKg:  &in.TargetWeight,
			Gender:          &gender,
		},
		Goals:      in.Goals,
		Conditions: in.Conditions,
		Locations:  in.Locations,
	}
}

// Profile is the stored profile together with the user's selections.
type Profile struct {
	fitness.Profile

	ProfileCompleted bool               `json:"profile_completed"`
	Goals            fitness.Goals      `json:"goals"`
	Conditions       fitness.Conditions `json:"medical_conditions"`
	Locations        fitness.Locations  `json:"exercise_locations"`
}

func (p Profile) fitnessInput() fitness.Input {
	return fitness.Input{
		Profile:    p.Profile,
		Goals:      p.Goals,
		Conditions: p.Conditions,
		Locations:  p.Locations,
	}
}

// Overview is the stored weekly plan.
type Overview struct {
	Workouts []fitness.WorkoutPlanEntry `json:"workouts"`
	Meals    []fitness.DietPlanEntry    `json:"meals"`
	Sleep    fitness.SleepSchedule      `json:"sleep"`
}

// Task is a persisted daily checklist item.
type Task struct {
	fitness.DailyTask

	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	CompletedAt *string `json:"completed_at"`
}

// TaskProgress summarises a checklist. Percent is rounded to the nearest integer.
type TaskProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

type TaskList struct {
	Date     string       `json:"date"`
	Tasks    []Task       `json:"tasks"`
	Progress TaskProgress `json:"progress"`
}

type WeightLog struct {
	ID     int64   `json:"id"`
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes"`
}

// WeightLogInput is the request body for logging a weight.
type WeightLogInput struct {
	Weight float64 `json:"weight" jsonschema:"exclusiveMinimum=0,description=Weight in kilograms"`
	Notes  string  `json:"notes,omitempty" jsonschema:"maxLength=500"`
	Date   string  `json:"date,omitempty" jsonschema:"format=date,description=Defaults to today"`
}

// Progress summarises weight logs and task completion. Weight fields are nil when nothing is logged.
type Progress struct {
	StartWeight    *float64 `json:"start_weight"`
	CurrentWeight  *float64 `json:"current_weight"`
	WeightChange   *float64 `json:"weight_change"`
	TargetWeight   *float64 `json:"target_weight"`
	Remaining      *float64 `json:"remaining"`
	CompletedTasks int      `json:"completed_tasks"`
	TotalTasks     int      `json:"total_tasks"`
	CompletionRate int      `json:"completion_rate"`
}
