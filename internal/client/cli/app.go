package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/vidhub/internal/client/client"
	"github.com/dmitrijs2005/vidhub/internal/client/config"
	"github.com/dmitrijs2005/vidhub/internal/client/services"
)

type App struct {
	config   *config.Config
	auth     services.AuthService
	db       *sql.DB
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	as := services.NewAuthService(api, db)

	return newApp(ctx, c, as, db, os.Stdin, os.Stdout), nil
}

func newApp(ctx context.Context, c *config.Config, as services.AuthService, db *sql.DB, in io.Reader, out io.Writer) *App {
	a := &App{config: c, auth: as, db: db, reader: bufio.NewReader(in), out: out}
	a.restoreSession(ctx)
	return a
}

// restoreSession picks up a login left over from a previous run.
func (a *App) restoreSession(ctx context.Context) {
	s, err := a.auth.Session(ctx)
	if err != nil {
		if !errors.Is(err, services.ErrNotLoggedIn) {
			fmt.Fprintln(a.out, "Could not read session:", err)
		}
		return
	}
	a.userName = s.UserName
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) status() string {
	if a.userName == "" {
		return ""
	}
	return "(" + a.userName + ") "
}

// Run starts the REPL and closes the session database when it ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	fmt.Fprintln(a.out, "vidhub CLI (type 'help' for commands)")
	if err := a.auth.Ping(ctx); err != nil {
		fmt.Fprintln(a.out, "Warning:", err)
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
}
