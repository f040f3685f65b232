package main

import (
	"net/http"
	"os"

	"github.com/myrjola/fitplan/internal/errors"
)

type credentialsRequest struct {
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=8"`
}

type userResponse struct {
	UserID string `json:"user_id"`
}

func (app *application) signUpPOST(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	userID, err := app.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, userResponse{UserID: userID})
}

func (app *application) signInPOST(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	userID, err := app.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, userResponse{UserID: userID})
}

func (app *application) signOutPOST(w http.ResponseWriter, r *http.Request) {
	if err := app.auth.SignOut(r.Context()); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) accountDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.auth.DeleteAccount(r.Context()); err != nil {
		app.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// accountExportGET sends the user's rows as a standalone SQLite database.
func (app *application) accountExportGET(w http.ResponseWriter, r *http.Request) {
	path, err := app.auth.ExportAccount(r.Context(), app.exportDir)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	defer func() {
		_ = os.Remove(path)
	}()

	f, err := os.Open(path)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "open export"))
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "stat export"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="fitplan-export.sqlite3"`)
	http.ServeContent(w, r, "", stat.ModTime(), f)
}
