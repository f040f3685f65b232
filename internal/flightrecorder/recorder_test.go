package flightrecorder_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/myrjola/fitplan/internal/flightrecorder"
	"github.com/myrjola/fitplan/internal/testhelpers"
)

// Only one flight recorder may run per process so these tests are sequential.

func TestRecorder_CaptureTimeoutTrace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")
	ctx := t.Context()
	recorder, err := flightrecorder.New(testhelpers.NewTestLogger(t), flightrecorder.Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err = recorder.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer recorder.Stop(ctx)

	path, err := recorder.CaptureTimeoutTrace(ctx)
	if err != nil {
		t.Fatalf("CaptureTimeoutTrace: %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "timeout-") || !strings.HasSuffix(name, ".trace") {
		t.Errorf("unexpected trace file name %q", name)
	}
	stat, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat trace: %v", err)
	}
	if stat.Size() == 0 {
		t.Error("trace file is empty")
	}

	second, err := recorder.CaptureTimeoutTrace(ctx)
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if second != "" {
		t.Errorf("capture within cooldown wrote %q", second)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read traces directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d trace files, want 1", len(entries))
	}
}

func TestRecorder_noCooldown(t *testing.T) {
	dir := t.TempDir()
	ctx := t.Context()
	recorder, err := flightrecorder.New(testhelpers.NewTestLogger(t), flightrecorder.Config{
		Dir:      dir,
		Cooldown: time.Nanosecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err = recorder.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer recorder.Stop(ctx)

	first, err := recorder.CaptureTimeoutTrace(ctx)
	if err != nil || first == "" {
		t.Fatalf("first capture = %q, %v", first, err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := recorder.CaptureTimeoutTrace(ctx)
	if err != nil || second == "" {
		t.Fatalf("second capture = %q, %v", second, err)
	}
	if first == second {
		t.Errorf("captures share the file %q", first)
	}
}

func TestNew_invalidDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	tests := []struct {
		name string
		dir  string
	}{
		{"empty", ""},
		{"below a file", filepath.Join(file, "traces")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := flightrecorder.New(testhelpers.NewTestLogger(t), flightrecorder.Config{Dir: tt.dir}); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}
