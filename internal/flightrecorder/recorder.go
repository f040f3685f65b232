// Package flightrecorder keeps a rolling runtime trace in memory and writes it to disk when a request times out.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"

	"github.com/myrjola/fitplan/internal/errors"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024
	defaultCooldown = 30 * time.Minute
)

// Recorder wraps a [trace.FlightRecorder]. Captures are rate limited by a cooldown.
type Recorder struct {
	logger      *slog.Logger
	recorder    *trace.FlightRecorder
	dir         string
	cooldown    time.Duration
	lastCapture atomic.Int64
	now         func() time.Time
}

type Config struct {
	// Dir receives the trace files. It is created if missing.
	Dir      string
	MinAge   time.Duration
	MaxBytes uint64
	// Cooldown is the minimum time between two captures.
	Cooldown time.Duration
}

func New(logger *slog.Logger, cfg Config) (*Recorder, error) {
	if cfg.Dir == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil { //nolint:mnd // owner only.
		return nil, errors.Wrap(err, "create traces directory", slog.String("dir", cfg.Dir))
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	return &Recorder{
		logger:      logger,
		recorder:    trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}),
		dir:         cfg.Dir,
		cooldown:    cfg.Cooldown,
		lastCapture: atomic.Int64{},
		now:         time.Now,
	}, nil
}

func (r *Recorder) Start(ctx context.Context) error {
	if err := r.recorder.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("dir", r.dir), slog.Duration("cooldown", r.cooldown))
	return nil
}

func (r *Recorder) Stop(ctx context.Context) {
	r.recorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// CaptureTimeoutTrace writes the buffered trace to a timeout-<timestamp>.trace file and returns its path. It returns
// the empty string when a capture happened within the cooldown.
func (r *Recorder) CaptureTimeoutTrace(ctx context.Context) (string, error) {
	now := r.now()
	last := r.lastCapture.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < r.cooldown {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture during cooldown",
			slog.Time("last_capture", time.Unix(0, last)))
		return "", nil
	}
	if !r.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		// A concurrent timeout won the race.
		return "", nil
	}

	path := filepath.Join(r.dir, fmt.Sprintf("timeout-%s.trace", now.UTC().Format("20060102-150405.000")))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create trace file", slog.String("path", path))
	}
	n, err := r.recorder.WriteTo(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.Wrap(err, "write trace", slog.String("path", path))
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured timeout trace", slog.String("path", path), slog.Int64("bytes", n))
	return path, nil
}
