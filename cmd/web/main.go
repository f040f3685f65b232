package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/fitplan/internal/auth"
	"github.com/myrjola/fitplan/internal/envstruct"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/flightrecorder"
	"github.com/myrjola/fitplan/internal/logging"
	"github.com/myrjola/fitplan/internal/plan"
	"github.com/myrjola/fitplan/internal/sqlite"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type application struct {
	logger         *slog.Logger
	auth           *auth.Handler
	sessionManager *scs.SessionManager
	planService    *plan.Service
	templateFS     fs.FS
	markdown       goldmark.Markdown
	allowedOrigins []string
	exportDir      string
	// flightRecorder is nil unless a traces directory is configured.
	flightRecorder *flightrecorder.Recorder
	// now is the clock used to pick "today". Tests replace it.
	now func() time.Time
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"FITPLAN_ADDR" envDefault:"localhost:8082"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"FITPLAN_SQLITE_URL" envDefault:"./fitplan.sqlite3"`
	// TemplatePath is the path to the directory containing the HTML templates. Empty means ui/templates under the
	// module root.
	TemplatePath string `env:"FITPLAN_TEMPLATE_PATH" envDefault:""`
	// AllowedOrigins is a comma separated list of origins allowed to call the API from a browser. Empty allows
	// same-origin browser access only.
	AllowedOrigins string `env:"FITPLAN_ALLOWED_ORIGINS" envDefault:""`
	// SecureCookies must only be disabled for plain HTTP development and tests.
	SecureCookies   bool          `env:"FITPLAN_SECURE_COOKIES" envDefault:"true"`
	SessionLifetime time.Duration `env:"FITPLAN_SESSION_LIFETIME" envDefault:"720h"`
	// ExportDir holds the temporary per-user database exports. Empty means the OS temp dir.
	ExportDir string `env:"FITPLAN_EXPORT_DIR" envDefault:""`
	// TracesDirectory enables the flight recorder. Request timeouts write a runtime trace there.
	TracesDirectory string `env:"FITPLAN_TRACES_DIRECTORY" envDefault:""`
}

func splitOrigins(origins string) []string {
	var out []string
	for o := range strings.SplitSeq(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	var htmlTemplatePath string
	if htmlTemplatePath, err = resolveAndVerifyTemplatePath(cfg.TemplatePath); err != nil {
		return errors.Wrap(err, "resolve template path")
	}

	exportDir := cfg.ExportDir
	if exportDir == "" {
		exportDir = os.TempDir()
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	sessionManager := auth.NewSessionManager(ctx, db, cfg.SessionLifetime, cfg.SecureCookies)
	authHandler, err := auth.New(logger, sessionManager, db)
	if err != nil {
		return errors.Wrap(err, "new auth handler")
	}

	var recorder *flightrecorder.Recorder
	if cfg.TracesDirectory != "" {
		if recorder, err = flightrecorder.New(logger, flightrecorder.Config{Dir: cfg.TracesDirectory}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	app := application{
		logger:         logger,
		auth:           authHandler,
		sessionManager: sessionManager,
		planService:    plan.NewService(db, logger),
		templateFS:     os.DirFS(htmlTemplatePath),
		markdown:       goldmark.New(goldmark.WithExtensions(extension.Table)),
		allowedOrigins: splitOrigins(cfg.AllowedOrigins),
		exportDir:      exportDir,
		flightRecorder: recorder,
		now:            time.Now,
	}

	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "routes")
	}
	if err = app.configureAndStartServer(ctx, cfg.Addr, handler); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	logger := logging.New(os.Stdout, slog.LevelDebug)
	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env", errors.SlogError(err))
		os.Exit(1)
	}
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
