package fitness

import "slices"

// Gender selects the sex-specific constant of the BMR formula.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// Goal is a fitness goal chosen by the user.
type Goal string

const (
	GoalWeightLoss Goal = "weight_loss"
	GoalMuscleGain Goal = "muscle_gain"
	GoalBoth       Goal = "both"
)

// Valid reports whether g is one of the known goals.
func (g Goal) Valid() bool {
	switch g {
	case GoalWeightLoss, GoalMuscleGain, GoalBoth:
		return true
	default:
		return false
	}
}

// Goals is the set of goals held by a user. Duplicates are harmless.
type Goals []Goal

// NeedsWeightLoss reports whether the set asks for weight loss, directly or through GoalBoth.
func (gs Goals) NeedsWeightLoss() bool {
	return slices.Contains(gs, GoalWeightLoss) || slices.Contains(gs, GoalBoth)
}

// NeedsMuscleGain reports whether the set asks for muscle gain, directly or through GoalBoth.
func (gs Goals) NeedsMuscleGain() bool {
	return slices.Contains(gs, GoalMuscleGain) || slices.Contains(gs, GoalBoth)
}

// Condition is an opaque medical condition tag. New tags can be stored without any change here.
type Condition string

// ConditionAsthma is the only tag that changes the generated plan.
const ConditionAsthma Condition = "asthma"

// Conditions is the set of medical condition tags of a user.
type Conditions []Condition

// HasAsthma reports whether the asthma tag is present.
func (cs Conditions) HasAsthma() bool {
	return slices.Contains(cs, ConditionAsthma)
}

// Location is a place where the user is able to exercise.
type Location string

const (
	LocationGym      Location = "gym"
	LocationHome     Location = "home"
	LocationOutdoors Location = "outdoors"
)

// Valid reports whether l is one of the known locations.
func (l Location) Valid() bool {
	switch l {
	case LocationGym, LocationHome, LocationOutdoors:
		return true
	default:
		return false
	}
}

// Locations is the set of exercise locations of a user.
type Locations []Location

// Has reports whether l is part of the set.
func (ls Locations) Has(l Location) bool {
	return slices.Contains(ls, l)
}

// Profile holds the biometric data the engine reads. Nil or zero fields fall back to defaults
// independently of each other.
type Profile struct {
	Age             *int     `json:"age"`
	HeightCm        *float64 `json:"height"`
	CurrentWeightKg *float64 `json:"current_weight"`
	TargetWeightKg  *float64 `json:"target_weight"`
	Gender          *Gender  `json:"gender"`
}

// ExerciseType classifies a workout.
type ExerciseType string

const (
	ExerciseTypeCardio      ExerciseType = "cardio"
	ExerciseTypeStrength    ExerciseType = "strength"
	ExerciseTypeFlexibility ExerciseType = "flexibility"
	ExerciseTypeMixed       ExerciseType = "mixed"
)

// Intensity of a workout.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// WorkoutPlanEntry is one workout scheduled on a weekday. DayOfWeek follows time.Weekday, 0 is Sunday.
type WorkoutPlanEntry struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	ExerciseType    ExerciseType `json:"exercise_type"`
	DurationMinutes int          `json:"duration_minutes"`
	Intensity       Intensity    `json:"intensity"`
	EquipmentNeeded []string     `json:"equipment_needed"`
	Instructions    []string     `json:"instructions"`
	DayOfWeek       int          `json:"day_of_week"`
}

// MealType identifies one of the daily meals.
type MealType string

const (
	MealTypeBreakfast   MealType = "breakfast"
	MealTypeLunch       MealType = "lunch"
	MealTypeDinner      MealType = "dinner"
	MealTypeSnack       MealType = "snack"
	MealTypePostWorkout MealType = "post_workout"
)

// DietPlanEntry is one meal of the daily nutrition plan.
type DietPlanEntry struct {
	MealType      MealType `json:"meal_type"`
	MealName      string   `json:"meal_name"`
	Description   string   `json:"description"`
	SuggestedTime string   `json:"suggested_time"`
	Calories      int      `json:"calories"`
	ProteinGrams  int      `json:"protein_grams"`
	CarbsGrams    int      `json:"carbs_grams"`
	FatsGrams     int      `json:"fats_grams"`
	Foods         []string `json:"foods"`
}

// SleepSchedule is the recommended nightly sleep window.
type SleepSchedule struct {
	Bedtime     string  `json:"bedtime"`
	WakeTime    string  `json:"wake_time"`
	TargetHours float64 `json:"target_hours"`
}

// TaskType classifies a checklist item.
type TaskType string

const (
	TaskTypeWorkout   TaskType = "workout"
	TaskTypeMeal      TaskType = "meal"
	TaskTypeHydration TaskType = "hydration"
	TaskTypeSleep     TaskType = "sleep"
)

// DailyTask is one item of the daily checklist.
type DailyTask struct {
	TaskType    TaskType `json:"task_type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TargetValue string   `json:"target_value"`
	IsCompleted bool     `json:"is_completed"`
}
