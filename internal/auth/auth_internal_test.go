package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/fitplan/internal/contexthelpers"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/sqlite"
	"github.com/myrjola/fitplan/internal/testhelpers"
)

func newTestHandler(t *testing.T) (*Handler, *scs.SessionManager, *sqlite.Database) {
	t.Helper()
	logger := testhelpers.NewTestLogger(t)
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	sessionManager := NewSessionManager(t.Context(), db, time.Hour, false)
	h, err := New(logger, sessionManager, db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h, sessionManager, db
}

func sessionContext(t *testing.T, sessionManager *scs.SessionManager) context.Context {
	t.Helper()
	ctx, err := sessionManager.Load(t.Context(), "")
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return ctx
}

func TestHandler_SignUp(t *testing.T) {
	t.Parallel()
	h, sessionManager, db := newTestHandler(t)

	ctx := sessionContext(t, sessionManager)
	userID, err := h.SignUp(ctx, "  Jane@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if got := sessionManager.GetString(ctx, userIDSessionKey); got != userID {
		t.Errorf("session user = %q, want %q", got, userID)
	}

	var profiles int
	if err = db.ReadOnly.QueryRowContext(ctx, `SELECT count(*) FROM profiles WHERE user_id = ?`,
		userID).Scan(&profiles); err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	if profiles != 1 {
		t.Errorf("got %d profiles, want 1", profiles)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "taken email differing in case", email: "JANE@example.com", password: "another one", wantErr: ErrEmailTaken},
		{name: "invalid email", email: "not an email", password: "long enough", wantErr: ErrInvalidSignup},
		{name: "short password", email: "joe@example.com", password: "short", wantErr: ErrInvalidSignup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.SignUp(sessionContext(t, sessionManager), tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SignUp() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHandler_SignIn(t *testing.T) {
	t.Parallel()
	h, sessionManager, _ := newTestHandler(t)
	userID, err := h.SignUp(sessionContext(t, sessionManager), "jane@example.com", "correct horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "jane@example.com", password: "correct horse", wantErr: nil},
		{name: "email is case insensitive", email: "Jane@Example.com", password: "correct horse", wantErr: nil},
		{name: "wrong password", email: "jane@example.com", password: "battery staple", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "joe@example.com", password: "correct horse", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := sessionContext(t, sessionManager)
			got, err := h.SignIn(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SignIn() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if sessionManager.Exists(ctx, userIDSessionKey) {
					t.Error("failed sign in stored a user in the session")
				}
				return
			}
			if got != userID {
				t.Errorf("SignIn() = %q, want %q", got, userID)
			}
			if err = h.SignOut(ctx); err != nil {
				t.Fatalf("SignOut: %v", err)
			}
			if sessionManager.Exists(ctx, userIDSessionKey) {
				t.Error("user still in session after sign out")
			}
		})
	}
}

func TestHandler_AuthenticateMiddleware(t *testing.T) {
	t.Parallel()
	h, sessionManager, _ := newTestHandler(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /signup", func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.SignUp(r.Context(), "jane@example.com", "correct horse"); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(contexthelpers.AuthenticatedUserID(r.Context())))
	})
	mux.HandleFunc("DELETE /me", func(w http.ResponseWriter, r *http.Request) {
		if err := h.DeleteAccount(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	handler := sessionManager.LoadAndSave(h.AuthenticateMiddleware(mux))

	do := func(method string, target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequestWithContext(t.Context(), method, target, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodGet, "/me", nil); rec.Body.String() != "" {
		t.Errorf("anonymous request authenticated as %q", rec.Body.String())
	}

	rec := do(http.MethodPost, "/signup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sign up status = %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()

	if rec = do(http.MethodGet, "/me", cookies); rec.Body.String() == "" {
		t.Error("signed up user is not authenticated")
	}

	if rec = do(http.MethodDelete, "/me", cookies); rec.Code != http.StatusOK {
		t.Fatalf("delete account status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec = do(http.MethodGet, "/me", cookies); rec.Body.String() != "" {
		t.Errorf("deleted user still authenticated as %q", rec.Body.String())
	}
}

func TestHandler_DeleteAccount_anonymous(t *testing.T) {
	t.Parallel()
	h, sessionManager, _ := newTestHandler(t)
	if err := h.DeleteAccount(sessionContext(t, sessionManager)); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("DeleteAccount() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestHandler_ExportAccount(t *testing.T) {
	t.Parallel()
	h, sessionManager, _ := newTestHandler(t)
	ctx := sessionContext(t, sessionManager)
	userID, err := h.SignUp(ctx, "jane@example.com", "correct horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	path, err := h.ExportAccount(contexthelpers.WithAuthenticatedUser(ctx, userID), t.TempDir())
	if err != nil {
		t.Fatalf("ExportAccount: %v", err)
	}
	if path == "" {
		t.Error("empty export path")
	}
}
