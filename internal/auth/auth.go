// Package auth implements email and password accounts on top of cookie sessions.
package auth

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/fitplan/internal/contexthelpers"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/sqlite"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.NewSentinel("invalid email or password")
	ErrEmailTaken         = errors.NewSentinel("email already registered")
	ErrInvalidSignup      = errors.NewSentinel("invalid sign up")
	ErrNotAuthenticated   = errors.NewSentinel("not authenticated")
)

// MinPasswordLength is the shortest accepted password in bytes.
const MinPasswordLength = 8

const userIDSessionKey = "user_id"

type Handler struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	database       *sqlite.Database
	// dummyHash is compared against when the email is unknown so that sign in takes the same time either way.
	dummyHash []byte
}

func New(logger *slog.Logger, sessionManager *scs.SessionManager, db *sqlite.Database) (*Handler, error) {
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not a real password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "generate dummy hash")
	}
	return &Handler{
		logger:         logger,
		sessionManager: sessionManager,
		database:       db,
		dummyHash:      dummyHash,
	}, nil
}

// NewSessionManager stores sessions in the sessions table of db. Expired sessions are cleaned up until ctx is done.
func NewSessionManager(
	ctx context.Context,
	db *sqlite.Database,
	lifetime time.Duration,
	secureCookies bool,
) *scs.SessionManager {
	store := sqlite3store.NewWithCleanupInterval(db.ReadWrite, time.Hour)
	go func() {
		<-ctx.Done()
		store.StopCleanup()
	}()
	sessionManager := scs.New()
	sessionManager.Store = store
	sessionManager.Lifetime = lifetime
	sessionManager.Cookie.Name = "fitplan_session"
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = secureCookies
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	return sessionManager
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the account with an empty profile and logs it in. It returns the new user id.
func (h *Handler) SignUp(ctx context.Context, email string, password string) (string, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.Wrap(ErrInvalidSignup, "invalid email", slog.String("reason", err.Error()))
	}
	if len(password) < MinPasswordLength {
		return "", errors.Wrap(ErrInvalidSignup, "password too short", slog.Int("min_length", MinPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	userID := uuid.NewString()
	err = h.database.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err = tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`,
			userID, email, hash); err != nil {
			return errors.Wrap(err, "insert user")
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO profiles (user_id) VALUES (?)`, userID); err != nil {
			return errors.Wrap(err, "insert profile")
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrEmailTaken
		}
		return "", err
	}

	if err = h.login(ctx, userID); err != nil {
		return "", err
	}
	h.logger.LogAttrs(ctx, slog.LevelInfo, "user signed up", slog.String("user_id", userID))
	return userID, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// SignIn verifies the credentials and logs the user in. It returns the user id.
func (h *Handler) SignIn(ctx context.Context, email string, password string) (string, error) {
	var (
		userID string
		hash   []byte
	)
	err := h.database.ReadOnly.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email = ?`,
		normalizeEmail(email)).Scan(&userID, &hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	case err != nil:
		return "", errors.Wrap(err, "query user")
	}
	if err = bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	if err = h.login(ctx, userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (h *Handler) login(ctx context.Context, userID string) error {
	// Renewing prevents session fixation.
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		return errors.Wrap(err, "renew session token")
	}
	h.sessionManager.Put(ctx, userIDSessionKey, userID)
	return nil
}

func (h *Handler) SignOut(ctx context.Context) error {
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		return errors.Wrap(err, "renew session token")
	}
	h.sessionManager.Remove(ctx, userIDSessionKey)
	return nil
}

// DeleteAccount removes the authenticated user and, through cascading foreign keys, all of their data.
func (h *Handler) DeleteAccount(ctx context.Context) error {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if userID == "" {
		return ErrNotAuthenticated
	}
	if _, err := h.database.ReadWrite.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return errors.Wrap(err, "delete user", slog.String("user_id", userID))
	}
	if err := h.sessionManager.Destroy(ctx); err != nil {
		return errors.Wrap(err, "destroy session")
	}
	h.logger.LogAttrs(ctx, slog.LevelInfo, "user deleted account", slog.String("user_id", userID))
	return nil
}

// ExportAccount writes the authenticated user's data to a SQLite file in dir and returns its path.
func (h *Handler) ExportAccount(ctx context.Context, dir string) (string, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	path, err := h.database.ExportUserDB(ctx, userID, dir)
	if err != nil {
		return "", errors.Wrap(err, "export user db", slog.String("user_id", userID))
	}
	return path, nil
}
