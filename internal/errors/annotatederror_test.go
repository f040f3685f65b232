package errors_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/testhelpers"
)

var errTaskNotFound = errors.NewSentinel("task not found")

type validationError struct {
	field string
}

func (e *validationError) Error() string {
	return e.field + " is invalid"
}

func TestError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel", errTaskNotFound, "task not found"},
		{"new", errors.New("plan missing", slog.String("user_id", "u1")), "plan missing"},
		{"wrapped", errors.Wrap(errTaskNotFound, "toggle task", slog.Int64("task_id", 7)), "toggle task: task not found"},
		{
			"nested",
			errors.Wrap(errors.Wrap(errTaskNotFound, "toggle task"), "handle request"),
			"handle request: toggle task: task not found",
		},
		{"wrap nil", errors.Wrap(nil, "nothing underneath"), "nothing underneath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAs(t *testing.T) {
	t.Parallel()
	wrapped := errors.Wrap(fmt.Errorf("query: %w", errTaskNotFound), "toggle task")
	if !errors.Is(wrapped, errTaskNotFound) {
		t.Error("Is() = false through fmt and Wrap layers")
	}
	if errors.Is(wrapped, errors.NewSentinel("task not found")) {
		t.Error("Is() matched a different sentinel with the same message")
	}

	invalid := &validationError{field: "age"}
	var target *validationError
	if !errors.As(errors.Wrap(invalid, "onboard"), &target) || target != invalid {
		t.Errorf("As() target = %v, want %v", target, invalid)
	}
	if errors.As(wrapped, &target) {
		t.Error("As() matched an error tree without a validation error")
	}

	if got := errors.Unwrap(errors.Wrap(errTaskNotFound, "toggle")); got != errTaskNotFound { //nolint:errorlint // identity.
		t.Errorf("Unwrap() = %v, want the sentinel", got)
	}
}

func TestSlogError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := testhelpers.NewLogger(&buf)

	err := errors.Wrap(
		errors.Wrap(errTaskNotFound, "toggle task", slog.Int64("task_id", 7)),
		"handle request", slog.Duration("elapsed", time.Second),
	)
	logger.Info("request failed", errors.SlogError(err))
	line := buf.String()
	for _, want := range []string{
		"error.message=\"handle request: toggle task: task not found\"",
		"error.annotations.task_id=7",
		"error.annotations.elapsed=1s",
		"annotatederror_test.go:",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q does not contain %q", line, want)
		}
	}
	if strings.Contains(line, "annotatederror.go:") {
		t.Errorf("source points into the errors package: %q", line)
	}

	// Unusual trees must not panic.
	for _, e := range []error{
		nil,
		errors.Join(nil, nil, errTaskNotFound, errors.New("joined")),
		fmt.Errorf("plain: %w", errTaskNotFound),
		errors.Wrap(errors.Join(nil, nil), "empty join"),
	} {
		_ = errors.SlogError(e)
	}
	if attr := errors.SlogError(nil); !attr.Equal(slog.Attr{}) {
		t.Errorf("SlogError(nil) = %v, want empty attr", attr)
	}
}

func TestDecoratePanic(t *testing.T) {
	t.Parallel()
	if errors.DecoratePanic(nil) != nil {
		t.Error("DecoratePanic(nil) returned an error")
	}
	tests := []struct {
		name      string
		recovered any
		want      string
	}{
		{"string", "boom", "panic: boom"},
		{"error", errTaskNotFound, "panic: task not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := func() (err error) {
				defer func() {
					err = errors.DecoratePanic(recover())
				}()
				panic(tt.recovered)
			}()
			if err == nil {
				t.Fatal("DecoratePanic() = nil")
			}
			if got := err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if src := errors.SlogError(err).String(); !strings.Contains(src, "annotatederror_test.go:") {
				t.Errorf("source %q does not point at the panicking test", src)
			}
		})
	}
}
