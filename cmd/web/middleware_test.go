package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/myrjola/fitplan/internal/contexthelpers"
	"github.com/myrjola/fitplan/internal/flightrecorder"
	"github.com/myrjola/fitplan/internal/testhelpers"
)

func Test_application_timeout(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		sleep    time.Duration
		timesOut bool
	}{
		{name: "completes within timeout", sleep: 500 * time.Millisecond, timesOut: false},
		{name: "times out", sleep: 3 * time.Second, timesOut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			synctest.Test(t, func(t *testing.T) {
				app := &application{logger: testhelpers.NewLogger(io.Discard)} //nolint:exhaustruct // only logging is needed.
				handler := app.timeout(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					time.Sleep(tt.sleep)
					w.WriteHeader(http.StatusOK)
				}))
				rec := httptest.NewRecorder()

				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
				// Let the abandoned handler finish inside the bubble.
				time.Sleep(tt.sleep)

				if tt.timesOut {
					if rec.Code != http.StatusServiceUnavailable {
						t.Errorf("status = %d, want 503", rec.Code)
					}
					if !strings.Contains(rec.Body.String(), "timed out") {
						t.Errorf("body = %q, want timeout message", rec.Body.String())
					}
				} else if rec.Code != http.StatusOK {
					t.Errorf("status = %d, want 200", rec.Code)
				}
			})
		})
	}
}

func Test_application_timeout_capturesTrace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := t.Context()
	logger := testhelpers.NewTestLogger(t)
	recorder, err := flightrecorder.New(logger, flightrecorder.Config{Dir: dir})
	if err != nil {
		t.Fatalf("new flight recorder: %v", err)
	}
	if err = recorder.Start(ctx); err != nil {
		t.Fatalf("start flight recorder: %v", err)
	}
	defer recorder.Stop(ctx)

	app := &application{logger: logger, flightRecorder: recorder} //nolint:exhaustruct // only tracing is needed.
	handler := app.timeout(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read traces directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d trace files, want 1", len(entries))
	}
}

func Test_application_mustAuthenticate(t *testing.T) {
	t.Parallel()
	app := &application{logger: testhelpers.NewTestLogger(t)} //nolint:exhaustruct // only logging is needed.
	handler := app.mustAuthenticate(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plan", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("anonymous content type = %q, want application/json", got)
	}

	rec = httptest.NewRecorder()
	req := contexthelpers.AuthenticateContext(httptest.NewRequest(http.MethodGet, "/api/plan", nil), "user-1")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Errorf("authenticated status = %d, want 418", rec.Code)
	}
}

func Test_application_recoverPanic(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	app := &application{logger: testhelpers.NewLogger(&logs)} //nolint:exhaustruct // only logging is needed.
	handler := app.recoverPanic(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(logs.String(), "panic: boom") {
		t.Errorf("log does not contain the panic:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "middleware_test.go") {
		t.Errorf("log does not point at the panicking function:\n%s", logs.String())
	}
}

func Test_application_cors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name            string
		allowedOrigins  []string
		origin          string
		wantAllowOrigin string
		wantCredentials string
	}{
		{
			name:            "allowed origin",
			allowedOrigins:  []string{"https://app.example"},
			origin:          "https://app.example",
			wantAllowOrigin: "https://app.example",
			wantCredentials: "true",
		},
		{
			name:            "foreign origin",
			allowedOrigins:  []string{"https://app.example"},
			origin:          "https://evil.example",
			wantAllowOrigin: "",
			wantCredentials: "",
		},
		{
			name:            "wildcard is ignored",
			allowedOrigins:  []string{"*"},
			origin:          "https://evil.example",
			wantAllowOrigin: "",
			wantCredentials: "",
		},
		{
			name:            "no origins",
			allowedOrigins:  nil,
			origin:          "https://evil.example",
			wantAllowOrigin: "",
			wantCredentials: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := &application{allowedOrigins: tt.allowedOrigins} //nolint:exhaustruct // only origins are needed.
			handler := app.cors(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			req.Header.Set("Origin", tt.origin)
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllowOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, tt.wantCredentials)
			}
		})
	}
}
