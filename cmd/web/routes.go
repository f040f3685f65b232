package main

import (
	"net/http"

	"github.com/myrjola/fitplan/internal/errors"
)

func (app *application) routes() (http.Handler, error) {
	mux := http.NewServeMux()

	var (
		session = func(next http.Handler) http.Handler {
			return noCache(app.sessionManager.LoadAndSave(app.auth.AuthenticateMiddleware(next)))
		}
		mustSession = func(next http.Handler) http.Handler {
			return session(app.mustAuthenticate(next))
		}
	)

	mux.Handle("GET /api/healthy", http.HandlerFunc(app.healthy))
	mux.Handle("POST /api/csp-violation", http.HandlerFunc(app.cspViolation))
	mux.Handle("GET /api/schemas/{name}", http.HandlerFunc(app.schemaGET))

	mux.Handle("POST /api/auth/signup", session(http.HandlerFunc(app.signUpPOST)))
	mux.Handle("POST /api/auth/signin", session(http.HandlerFunc(app.signInPOST)))
	mux.Handle("POST /api/auth/signout", session(http.HandlerFunc(app.signOutPOST)))
	mux.Handle("DELETE /api/account", mustSession(http.HandlerFunc(app.accountDELETE)))
	mux.Handle("GET /api/account/export", mustSession(http.HandlerFunc(app.accountExportGET)))

	mux.Handle("POST /api/onboarding", mustSession(http.HandlerFunc(app.onboardingPOST)))
	mux.Handle("GET /api/profile", mustSession(http.HandlerFunc(app.profileGET)))
	mux.Handle("PUT /api/profile", mustSession(http.HandlerFunc(app.profilePUT)))
	mux.Handle("GET /api/plan", mustSession(http.HandlerFunc(app.planGET)))
	mux.Handle("GET /api/tasks", mustSession(http.HandlerFunc(app.tasksGET)))
	mux.Handle("POST /api/tasks/{id}/toggle", mustSession(http.HandlerFunc(app.taskTogglePOST)))
	mux.Handle("GET /api/weight-logs", mustSession(http.HandlerFunc(app.weightLogsGET)))
	mux.Handle("POST /api/weight-logs", mustSession(http.HandlerFunc(app.weightLogsPOST)))
	mux.Handle("GET /api/progress", mustSession(http.HandlerFunc(app.progressGET)))

	mux.Handle("GET /plan/print", mustSession(http.HandlerFunc(app.planPrintGET)))

	mux.Handle("/", http.HandlerFunc(app.notFound))

	csrf, err := app.crossOriginProtection()
	if err != nil {
		return nil, errors.Wrap(err, "cross-origin protection")
	}
	return app.recoverPanic(app.logAndTraceRequest(app.cors(secureHeaders(csrf(app.timeout(mux)))))), nil
}
