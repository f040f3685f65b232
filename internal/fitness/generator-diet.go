package fitness

import "math"

// MealShare is the fraction of the daily targets that one meal receives.
type MealShare struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
}

// MealShares lists the share of each meal in serving order.
//
//nolint:gochecknoglobals // read-only rule table.
var MealShares = []struct {
	MealType MealType
	Share    MealShare
}{
	{MealTypeBreakfast, MealShare{Calories: 0.25, Protein: 0.25, Carbs: 0.30, Fats: 0.25}},
	{MealTypeSnack, MealShare{Calories: 0.10, Protein: 0.15, Carbs: 0.10, Fats: 0.15}},
	{MealTypeLunch, MealShare{Calories: 0.30, Protein: 0.30, Carbs: 0.35, Fats: 0.30}},
	{MealTypePostWorkout, MealShare{Calories: 0.15, Protein: 0.20, Carbs: 0.15, Fats: 0.10}},
	{MealTypeDinner, MealShare{Calories: 0.20, Protein: 0.25, Carbs: 0.20, Fats: 0.25}},
}

type mealContent struct {
	name          string
	description   string
	suggestedTime string
	foods         []string
}

func contentFor(mealType MealType) mealContent {
	switch mealType {
	case MealTypeBreakfast:
		return mealContent{
			name:          "High-Protein Breakfast",
			description:   "Balanced meal to start your day with energy",
			suggestedTime: "7:00 AM",
			foods: []string{
				"3 whole eggs or egg whites",
				"Oatmeal with berries",
				"Greek yogurt",
				"Green tea or black coffee",
			},
		}
	case MealTypeSnack:
		return mealContent{
			name:          "Mid-Morning Snack",
			description:   "Light snack to maintain energy",
			suggestedTime: "10:00 AM",
			foods:         []string{"Protein shake or bar", "Apple or banana", "Handful of almonds"},
		}
	case MealTypeLunch:
		return mealContent{
			name:          "Balanced Lunch",
			description:   "Nutrient-dense meal for sustained energy",
			suggestedTime: "1:00 PM",
			foods: []string{
				"Grilled chicken breast (150g)",
				"Brown rice or quinoa (1 cup)",
				"Mixed vegetables",
				"Olive oil dressing",
			},
		}
	case MealTypePostWorkout:
		return mealContent{
			name:          "Post-Workout Nutrition",
			description:   "Recovery meal after training",
			suggestedTime: "30 minutes after workout",
			foods:         []string{"Protein shake", "Banana", "Rice cakes with peanut butter"},
		}
	case MealTypeDinner:
		return mealContent{
			name:          "Light Dinner",
			description:   "Protein-rich dinner with vegetables",
			suggestedTime: "7:00 PM",
			foods: []string{
				"Salmon or lean beef (150g)",
				"Sweet potato or whole grain pasta",
				"Steamed broccoli and spinach",
				"Avocado",
			},
		}
	default:
		return mealContent{}
	}
}

// GenerateDietPlan returns the five daily meals scaled to the user's calorie and macro targets.
func GenerateDietPlan(p Profile, goals Goals) []DietPlanEntry {
	targets := Macros(p, goals)

	meals := make([]DietPlanEntry, 0, len(MealShares))
	for _, ms := range MealShares {
		content := contentFor(ms.MealType)
		meals = append(meals, DietPlanEntry{
			MealType:      ms.MealType,
			MealName:      content.name,
			Description:   content.description,
			SuggestedTime: content.suggestedTime,
			Calories:      roundInt(float64(targets.Calories) * ms.Share.Calories),
			ProteinGrams:  roundInt(targets.ProteinGrams * ms.Share.Protein),
			CarbsGrams:    roundInt(targets.CarbGrams * ms.Share.Carbs),
			FatsGrams:     roundInt(targets.FatGrams * ms.Share.Fats),
			Foods:         content.foods,
		})
	}
	return meals
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
