// Package e2etest runs the fitplan server in-process and talks to it over HTTP the way the mobile client does.
package e2etest

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3" // driver for DB().
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/logging"
	"github.com/myrjola/fitplan/internal/sqlite"
)

// LogAddrKey is the key the server logs its listening address with.
const LogAddrKey = "addr"

// LogDsnKey is the key the server logs its read-write SQLite DSN with.
const LogDsnKey = sqlite.DsnLogKey

// RunFunc has the signature of the server's run function.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

type Server struct {
	url    string
	client *Client
	db     *sql.DB
	stop   context.CancelCauseFunc
	done   chan struct{}
}

// scrapeLogger returns a logger writing to sink that reports the first address and DSN it logs.
func scrapeLogger(sink io.Writer) (*slog.Logger, <-chan string, <-chan string) {
	addrCh := make(chan string, 1)
	dsnCh := make(chan string, 1)
	send := func(ch chan string, v string) {
		select {
		case ch <- v:
		default:
		}
	}
	handler := slog.NewTextHandler(sink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case LogAddrKey:
				send(addrCh, a.Value.String())
			case LogDsnKey:
				send(dsnCh, a.Value.String())
			}
			return a
		},
	})
	return slog.New(logging.NewContextHandler(handler)), addrCh, dsnCh
}

// StartServer starts run in the background, waits until /api/healthy answers and returns a handle with a JSON client
// and direct database access. The server is shut down when the test finishes.
//
// logSink receives the server logs, usually a testhelpers.NewWriter. lookupEnv replaces [os.LookupEnv]. run must log
// its address with LogAddrKey and its database DSN with LogDsnKey.
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	ctx, stop := context.WithCancelCause(t.Context())
	done := make(chan struct{})
	logger, addrCh, dsnCh := scrapeLogger(logSink)

	go func() {
		defer close(done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			stop(err)
		}
	}()
	t.Cleanup(func() {
		stop(nil)
		<-done
	})

	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(context.Cause(ctx), "server stopped before it was ready")
		case addr = <-addrCh:
		case dsn = <-dsnCh:
		}
	}

	url := "http://" + addr
	client, err := NewClient(url)
	if err != nil {
		return nil, errors.Wrap(err, "new client")
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, errors.Wrap(err, "wait for ready", slog.String("url", url))
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return &Server{url: url, client: client, db: db, stop: stop, done: done}, nil
}

// Client is the client created together with the server. Use [NewClient] for additional sessions.
func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// DB connects to the server's database, also when it lives in memory.
func (s *Server) DB() *sql.DB {
	return s.db
}

// Shutdown stops the server and waits for run to return.
func (s *Server) Shutdown() {
	s.stop(nil)
	<-s.done
}
