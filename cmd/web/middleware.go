package main

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"slices"
	"time"

	"github.com/myrjola/fitplan/internal/contexthelpers"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/logging"
	"github.com/rs/cors"
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		headerWritten:  false,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	written, err := mw.ResponseWriter.Write(b)
	if err != nil {
		return written, fmt.Errorf("write response: %w", err)
	}
	return written, nil
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The nonce allows the inline style of the printable plan page.
		cspNonce := rand.Text()
		csp := fmt.Sprintf(`default-src 'none';
style-src 'nonce-%s';
img-src 'self';
frame-ancestors 'none';
form-action 'none';
base-uri 'none';
report-uri /api/csp-violation;`, cspNonce)

		w.Header().Set("Content-Security-Policy", csp)
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")

		r = contexthelpers.SetCSPNonce(r, cspNonce)

		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		ctx := r.Context()
		traceID := rand.Text()
		ctx = logging.WithAttrs(
			ctx,
			slog.String("trace_id", traceID),
			slog.String("proto", proto),
			slog.String("method", method),
			slog.String("uri", uri),
		)
		r = r.WithContext(ctx)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")

		sw := newStatusResponseWriter(w)

		if trace.IsEnabled() {
			traceCtx, task := trace.NewTask(ctx, fmt.Sprintf("HTTP %s %s", method, r.URL.Path))
			trace.Log(traceCtx, "trace_id", traceID)
			defer task.End()
			r = r.WithContext(traceCtx)
		}
		next.ServeHTTP(sw, r)

		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(r.Context(), level, "request completed",
			slog.Int("status_code", sw.statusCode), slog.Duration("duration", time.Since(start)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := errors.DecoratePanic(recover()); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// mustAuthenticate answers 401 unless the session belongs to a user.
func (app *application) mustAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !contexthelpers.IsAuthenticated(r.Context()) {
			app.clientError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cors lets browser builds of the mobile client on the allowed origins call the API with credentials.
//
// Browsers refuse a wildcard origin on credentialed requests, so "*" is ignored. Without any concrete origin no
// CORS headers are sent at all, because the cors package treats an empty list as allow-all.
func (app *application) cors(next http.Handler) http.Handler {
	origins := slices.DeleteFunc(slices.Clone(app.allowedOrigins), func(o string) bool { return o == "*" })
	if len(origins) == 0 {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((time.Hour).Seconds()),
	}).Handler(next)
}

// crossOriginProtection rejects unsafe cross-origin browser requests except from the allowed origins.
func (app *application) crossOriginProtection() (func(http.Handler) http.Handler, error) {
	protection := http.NewCrossOriginProtection()
	for _, origin := range app.allowedOrigins {
		if origin == "*" {
			continue
		}
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, errors.Wrap(err, "add trusted origin", slog.String("origin", origin))
		}
	}
	return protection.Handler, nil
}

// timeout answers 503 when the handler does not finish before the server's write deadline. With the flight recorder
// enabled the runtime trace leading up to the timeout is written to disk.
func (app *application) timeout(next http.Handler) http.Handler {
	const writeMargin = 200 * time.Millisecond
	h := http.TimeoutHandler(next, defaultTimeout-writeMargin, `{"error":"timed out"}`)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := newStatusResponseWriter(w)
		h.ServeHTTP(sw, r)
		if sw.statusCode != http.StatusServiceUnavailable || app.flightRecorder == nil {
			return
		}
		ctx := r.Context()
		if _, err := app.flightRecorder.CaptureTimeoutTrace(ctx); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "failed to capture timeout trace", errors.SlogError(err))
		}
	})
}
