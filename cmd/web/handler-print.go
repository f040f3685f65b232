package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/fitplan/internal/plan"
)

type planPrintTemplateData struct {
	Markdown string
}

// planPrintGET renders the weekly plan as a printable HTML page.
func (app *application) planPrintGET(w http.ResponseWriter, r *http.Request) {
	overview, err := app.planService.Overview(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "plan-print", planPrintTemplateData{Markdown: planMarkdown(overview)})
}

// planMarkdown formats the plan as a markdown document with one section per workout.
func planMarkdown(o plan.Overview) string {
	var b strings.Builder
	b.WriteString("# Weekly fitness plan\n\n## Workouts\n\n")
	for _, w := range o.Workouts {
		fmt.Fprintf(&b, "### %s: %s\n\n", time.Weekday(w.DayOfWeek), w.Title)
		fmt.Fprintf(&b, "*%s, %d minutes, %s intensity*\n\n", w.ExerciseType, w.DurationMinutes, w.Intensity)
		fmt.Fprintf(&b, "%s\n\n", w.Description)
		if len(w.EquipmentNeeded) > 0 {
			fmt.Fprintf(&b, "Equipment: %s\n\n", strings.Join(w.EquipmentNeeded, ", "))
		}
		for i, step := range w.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Nutrition\n\n")
	b.WriteString("| Meal | Time | Calories | Protein | Carbs | Fats |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	total := 0
	for _, m := range o.Meals {
		fmt.Fprintf(&b, "| %s | %s | %d | %d g | %d g | %d g |\n",
			m.MealName, m.SuggestedTime, m.Calories, m.ProteinGrams, m.CarbsGrams, m.FatsGrams)
		total += m.Calories
	}
	fmt.Fprintf(&b, "\nDaily total: **%d calories**\n\n", total)

	b.WriteString("## Sleep\n\n")
	fmt.Fprintf(&b, "Bedtime **%s**, wake up **%s**, %s hours.\n",
		o.Sleep.Bedtime, o.Sleep.WakeTime, strconv.FormatFloat(o.Sleep.TargetHours, 'f', -1, 64))
	return b.String()
}
