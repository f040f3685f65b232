package main

import (
	"net/http"

	"github.com/myrjola/fitplan/internal/plan"
)

func (app *application) onboardingPOST(w http.ResponseWriter, r *http.Request) {
	var in plan.OnboardingInput
	if !app.decodeJSON(w, r, &in) {
		return
	}
	ctx := r.Context()
	if err := app.planService.Onboard(ctx, in, app.now()); err != nil {
		app.handleError(w, r, err)
		return
	}
	overview, err := app.planService.Overview(ctx)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, overview)
}

func (app *application) profileGET(w http.ResponseWriter, r *http.Request) {
	profile, err := app.planService.GetProfile(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, profile)
}

// profilePUT updates the profile and regenerates the plan.
func (app *application) profilePUT(w http.ResponseWriter, r *http.Request) {
	var in plan.OnboardingInput
	if !app.decodeJSON(w, r, &in) {
		return
	}
	ctx := r.Context()
	if err := app.planService.UpdateProfile(ctx, in, app.now()); err != nil {
		app.handleError(w, r, err)
		return
	}
	profile, err := app.planService.GetProfile(ctx)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, profile)
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	overview, err := app.planService.Overview(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, overview)
}

// tasksGET returns the checklist of the date query parameter, today by default.
func (app *application) tasksGET(w http.ResponseWriter, r *http.Request) {
	date, err := app.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}
	list, err := app.planService.TodayTasks(r.Context(), date)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, list)
}

func (app *application) taskTogglePOST(w http.ResponseWriter, r *http.Request) {
	id, ok := app.parseIDParam(w, r)
	if !ok {
		return
	}
	task, err := app.planService.ToggleTask(r.Context(), id)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, task)
}

func (app *application) weightLogsGET(w http.ResponseWriter, r *http.Request) {
	logs, err := app.planService.WeightLogs(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, logs)
}

func (app *application) weightLogsPOST(w http.ResponseWriter, r *http.Request) {
	var in plan.WeightLogInput
	if !app.decodeJSON(w, r, &in) {
		return
	}
	date, err := app.parseDate(in.Date)
	if err != nil {
		app.clientError(w, r, http.StatusUnprocessableEntity, "date must be formatted as YYYY-MM-DD")
		return
	}
	log, err := app.planService.LogWeight(r.Context(), in.Weight, in.Notes, date)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, log)
}

func (app *application) progressGET(w http.ResponseWriter, r *http.Request) {
	progress, err := app.planService.Progress(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, progress)
}
