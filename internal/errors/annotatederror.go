// Package errors wraps the standard library errors with slog annotations and the source location where the
// error was created or wrapped.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
)

// annotatedError carries structured log attributes and the file:line it was created at.
type annotatedError struct {
	msg    string
	err    error
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return file + ":" + strconv.Itoa(line)
}

// New creates an error annotated with attrs and the caller's source location.
func New(msg string, attrs ...slog.Attr) error {
	return &annotatedError{msg: msg, err: nil, attrs: attrs, source: callerSource(1)}
}

// NewSentinel creates a plain error meant to be declared as a package level variable and compared with [Is].
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:err113 // sentinel constructor.
}

// Wrap adds context to err together with slog attributes that are emitted by [SlogError].
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{msg: msg, err: err, attrs: attrs, source: callerSource(1)}
}

// DecoratePanic converts a recovered panic value into an error pointing at the line that panicked.
// It returns nil when recovered is nil.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	var (
		err error
		msg = "panic"
	)
	if e, ok := recovered.(error); ok {
		err = e
	} else {
		msg = fmt.Sprintf("panic: %v", recovered)
	}
	return &annotatedError{msg: msg, err: err, attrs: nil, source: panicSource()}
}

// panicSource finds the first frame after runtime.gopanic, that is the function that panicked.
func panicSource() string {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	afterPanic := false
	for {
		frame, more := frames.Next()
		if afterPanic {
			return frame.File + ":" + strconv.Itoa(frame.Line)
		}
		if frame.Function == "runtime.gopanic" {
			afterPanic = true
		}
		if !more {
			return ""
		}
	}
}

// SlogError converts err into a slog group with the message, the collected annotations of the whole error chain,
// and the source location of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	var (
		annotations []any
		source      string
	)
	walk(err, func(e *annotatedError) {
		for _, a := range e.attrs {
			annotations = append(annotations, a)
		}
		if e.source != "" {
			source = e.source
		}
	})

	attrs := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Group("error", attrs...)
}

// walk visits every annotated error in the tree rooted at err, outermost first.
func walk(err error, visit func(*annotatedError)) {
	switch e := err.(type) { //nolint:errorlint // walking the tree by hand.
	case nil:
		return
	case *annotatedError:
		visit(e)
		walk(e.err, visit)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(e.Unwrap(), visit)
	}
}

// Is reports whether any error in err's tree matches target. See [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}
