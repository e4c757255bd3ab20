// Package cli is the site-laptop mode of the attendance ledger: an offline
// read-eval-print loop working directly against a local file store, no
// server required. One person operates it at a time, which is exactly the
// single-session semantics the session manager enforces.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/mkarpovs/crewtally/internal/server/areas"
	"github.com/mkarpovs/crewtally/internal/server/backup"
	"github.com/mkarpovs/crewtally/internal/server/designations"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/ledger"
	"github.com/mkarpovs/crewtally/internal/server/session"
	"github.com/mkarpovs/crewtally/internal/server/users"
)

type App struct {
	store    docstore.Store
	users    *users.Service
	sessions *session.Manager
	ledger   *ledger.Service
	areas    *areas.Service
	index    *designations.Index
	backups  *backup.Service
	reader   *bufio.Reader
	out      io.Writer
	date     string
}

// NewApp opens (or creates) the file store in dataDir and wires the full
// service stack over it.
func NewApp(dataDir string) (*App, error) {
	store, err := docstore.NewFileStore(dataDir)
	if err != nil {
		return nil, err
	}
	return NewAppWithStore(store), nil
}

// NewAppWithStore wires an App over an arbitrary store. Used by tests with
// the in-memory implementation.
func NewAppWithStore(store docstore.Store) *App {
	us := users.NewService(store)
	sm := session.NewManager(store, us, 0, 0)
	idx := designations.NewIndex(store)
	ls := ledger.NewService(store, sm, idx)
	as := areas.NewService(store, us, ls, idx)
	bs := backup.NewService(store)

	return &App{
		store:    store,
		users:    us,
		sessions: sm,
		ledger:   ls,
		areas:    as,
		index:    idx,
		backups:  bs,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		date:     time.Now().Format("2006-01-02"),
	}
}

func (a *App) Run(ctx context.Context) {
	runREPL(ctx, a, a.status, a.reader)
}

// status renders the prompt suffix: the working date plus the logged-in
// username, if any.
func (a *App) status(ctx context.Context) string {
	user, err := a.sessions.CurrentUser(ctx)
	if err != nil || user == nil {
		return a.date + " | not logged in"
	}
	return a.date + " | " + user.UserName
}
