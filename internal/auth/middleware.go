package auth

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/myrjola/fitplan/internal/contexthelpers"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/logging"
)

// AuthenticateMiddleware puts the session's user into the request context. It must run inside
// scs.SessionManager.LoadAndSave. Sessions pointing at deleted users stay anonymous.
func (h *Handler) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := h.sessionManager.GetString(ctx, userIDSessionKey)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		var exists bool
		err := h.database.ReadOnly.QueryRowContext(ctx, `SELECT TRUE FROM users WHERE id = ?`, userID).Scan(&exists)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			userID = ""
		case err != nil:
			h.logger.LogAttrs(ctx, slog.LevelError, "unable to fetch user", errors.SlogError(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		default:
			r = contexthelpers.AuthenticateContext(r, userID)
		}

		// The raw token must never reach the logs.
		tokenHash := sha256.Sum256([]byte(h.sessionManager.Token(ctx)))
		ctx = logging.WithAttrs(r.Context(),
			slog.String("session_hash", hex.EncodeToString(tokenHash[:])),
			slog.String("user_id", userID),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
