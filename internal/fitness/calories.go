package fitness

import "math"

// Fallbacks used when a profile field is missing.
const (
	DefaultWeightKg = 70.0
	DefaultHeightCm = 170.0
	DefaultAge      = 25
	DefaultGender   = GenderOther
)

const (
	// moderateActivityFactor is the only activity level modelled.
	moderateActivityFactor = 1.55

	maleOffset   = 5.0
	femaleOffset = -161.0
	// otherOffset is the rounded average of the male and female offsets.
	otherOffset = -78.0

	weightLossDeficit = 500
	muscleGainSurplus = 300

	proteinPerKgMuscleGain = 2.0
	proteinPerKgDefault    = 1.6

	fatCalorieShare = 0.25

	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

func (p Profile) weightKg() float64 {
	if p.CurrentWeightKg == nil || *p.CurrentWeightKg == 0 {
		return DefaultWeightKg
	}
	return *p.CurrentWeightKg
}

func (p Profile) heightCm() float64 {
	if p.HeightCm == nil || *p.HeightCm == 0 {
		return DefaultHeightCm
	}
	return *p.HeightCm
}

func (p Profile) age() int {
	if p.Age == nil || *p.Age == 0 {
		return DefaultAge
	}
	return *p.Age
}

func (p Profile) gender() Gender {
	if p.Gender == nil || *p.Gender == "" {
		return DefaultGender
	}
	return *p.Gender
}

// BMR returns the Mifflin-St Jeor basal metabolic rate in kcal.
// Unknown genders use the same constant as GenderOther.
func BMR(p Profile) float64 {
	base := 10*p.weightKg() + 6.25*p.heightCm() - 5*float64(p.age())
	switch p.gender() {
	case GenderMale:
		return base + maleOffset
	case GenderFemale:
		return base + femaleOffset
	default:
		return base + otherOffset
	}
}

// BaseCalories returns the total daily energy expenditure rounded to whole kcal.
func BaseCalories(p Profile) int {
	return int(math.Round(BMR(p) * moderateActivityFactor))
}

// MacroTargets is the daily calorie target and its split into macro nutrients.
type MacroTargets struct {
	Calories     int
	ProteinGrams float64
	FatGrams     float64
	CarbGrams    float64
}

// Macros derives the daily calorie target and macro split for the goals.
//
// Holding both goals or no goal leaves the base calories untouched. Carbohydrates never go below zero;
// extreme protein targets on very low calorie budgets would otherwise produce negative grams.
func Macros(p Profile, goals Goals) MacroTargets {
	calories := BaseCalories(p)
	switch {
	case goals.NeedsWeightLoss() && !goals.NeedsMuscleGain():
		calories -= weightLossDeficit
	case goals.NeedsMuscleGain() && !goals.NeedsWeightLoss():
		calories += muscleGainSurplus
	}

	proteinPerKg := proteinPerKgDefault
	if goals.NeedsMuscleGain() {
		proteinPerKg = proteinPerKgMuscleGain
	}
	protein := p.weightKg() * proteinPerKg

	fatCalories := float64(calories) * fatCalorieShare
	carbCalories := float64(calories) - protein*kcalPerGramProtein - fatCalories

	return MacroTargets{
		Calories:     calories,
		ProteinGrams: protein,
		FatGrams:     fatCalories / kcalPerGramFat,
		CarbGrams:    max(carbCalories/kcalPerGramCarbs, 0),
	}
}
