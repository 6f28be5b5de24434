package cli

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/deckviewer/internal/client/auth"
	"github.com/dmitrijs2005/deckviewer/internal/client/client"
	"github.com/dmitrijs2005/deckviewer/internal/client/config"
	"github.com/dmitrijs2005/deckviewer/internal/client/loader"
	"github.com/dmitrijs2005/deckviewer/internal/client/pagination"
	"github.com/dmitrijs2005/deckviewer/internal/client/render"
	"github.com/dmitrijs2005/deckviewer/internal/client/report"
	"github.com/dmitrijs2005/deckviewer/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/deckviewer/internal/client/tour"
	"github.com/dmitrijs2005/deckviewer/internal/client/viewer"
	"github.com/dmitrijs2005/deckviewer/internal/common"
	"github.com/dmitrijs2005/deckviewer/internal/logging"
)

// Release is reported to the error collector. It is set at build time.
var Release = "deckviewer@dev"

const closeTimeout = 10 * time.Second

var errUsage = errors.New("invalid arguments")

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	api      *client.HTTPClient
	reporter report.Reporter
	viewer   *viewer.Viewer

	in  *bufio.Scanner
	out io.Writer

	mu   sync.Mutex
	last viewer.View

	closeOnce sync.Once
}

// NewApp wires a viewer for c.Slug. Input is read from in; prompts are
// written to out.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logger := logging.New(os.Stderr, c.LogLevel, c.LogFormat)

	reporter := report.Multi{report.NewLogReporter(logger)}
	if c.SentryDSN != "" {
		sr, err := report.NewSentryReporter(c.SentryDSN, Release)
		if err != nil {
			logger.Warn(ctx, "sentry disabled", "error", err)
		} else {
			reporter = append(reporter, sr)
		}
	}

	db, err := client.InitDatabase(ctx, c.StateDB)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	api, err := client.NewDeckClient(c.APIBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithRetry(1, c.CreateRetryDelay),
		client.WithUserAgent(c.UserAgent),
		client.WithLogger(logger),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	httpSource := &loader.HTTPSource{Client: &http.Client{}}
	sources := loader.Mux{"http": httpSource, "https": httpSource}
	if s3src, err := loader.NewS3Source(ctx, c.S3()); err != nil {
		logger.Warn(ctx, "s3 documents disabled", "error", err)
	} else {
		sources["s3"] = s3src
	}

	flag := tour.NewMetadataStore(
		metadata.NewSQLiteRepository(db),
		tour.FlagKey(tour.Scope(c.TourScope), c.Slug),
	)

	v := viewer.New(viewer.Deps{
		Client:   api,
		Loader:   loader.New(sources, loader.WithChunkSize(c.ChunkSize), loader.WithLogger(logger)),
		Renderer: render.NewPDFRenderer(logger),
		TourFlag: flag,
		Reporter: reporter,
		Logger:   logger,
	}, viewer.Options{
		Slug:             c.Slug,
		UserAgent:        c.UserAgent,
		FlushInterval:    c.FlushInterval,
		TourSettleDelay:  c.TourSettleDelay,
		TourPollInterval: c.TourPollInterval,
		TourReadyTimeout: c.TourReadyTimeout,
	})

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		api:      api,
		reporter: reporter,
		viewer:   v,
		in:       bufio.NewScanner(in),
		out:      out,
	}, nil
}

// Run opens the deck and serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.viewer.OnChange(a.onView)
	printlnFn("Deck viewer (type 'help' for commands)")

	if err := a.viewer.Open(ctx); err != nil {
		a.printErr(err)
	}
	runREPL(ctx, a, a.status, a.in)
}

// Close sends the final engagement report and releases resources. It is
// safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		a.viewer.Close(ctx)
		if err := a.api.Close(); err != nil {
			a.logger.Warn(ctx, "closing api client", "error", err)
		}
		if err := a.db.Close(); err != nil {
			a.logger.Warn(ctx, "closing state database", "error", err)
		}
	})
}

// onView prints what changed since the previous view. Views can arrive from
// several goroutines; the lock keeps the output in order.
func (a *App) onView(v viewer.View) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, line := range describeChange(a.last, v) {
		printlnFn(line)
	}
	a.last = v
}

func (a *App) status() string {
	return statusLine(a.viewer.View())
}

func (a *App) printErr(err error) {
	printlnFn("Error:", common.Message(err, err.Error()))
}

func (a *App) Help() string {
	return helpText
}

func (a *App) Status(ctx context.Context) error {
	for _, line := range describeView(a.viewer.View()) {
		printlnFn(line)
	}
	return nil
}

func (a *App) Next(ctx context.Context) error {
	return a.key(ctx, pagination.KeyArrowRight)
}

func (a *App) Prev(ctx context.Context) error {
	return a.key(ctx, pagination.KeyArrowLeft)
}

func (a *App) key(ctx context.Context, key string) error {
	if !a.viewer.HandleKey(ctx, key, false) {
		return viewer.ErrNotReady
	}
	return nil
}

func (a *App) GoTo(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: goto <page>", errUsage)
	}
	if _, err := strconv.Atoi(args[0]); err != nil {
		return fmt.Errorf("%w: %q is not a page number", errUsage, args[0])
	}
	if !a.viewer.EnterPage(args[0]) {
		return viewer.ErrNotReady
	}
	return nil
}

func (a *App) Password(ctx context.Context, args []string) error {
	var (
		pw  []byte
		err error
	)
	if len(args) > 0 {
		pw = []byte(args[0])
	} else if pw, err = GetPassword(a.in, a.out); err != nil {
		return err
	}
	defer clear(pw)
	return a.viewer.SubmitPassword(ctx, string(pw))
}

func (a *App) Email(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = GetSimpleText(a.in, "Email address", a.out); err != nil {
			return err
		}
	}
	return a.viewer.SubmitEmail(ctx, email)
}

func (a *App) Dismiss(ctx context.Context, args []string) error {
	p, err := promptArg(args)
	if err != nil {
		return err
	}
	return a.viewer.DismissPrompt(p)
}

func (a *App) OpenPrompt(ctx context.Context, args []string) error {
	p, err := promptArg(args)
	if err != nil {
		return err
	}
	return a.viewer.OpenPrompt(p)
}

func promptArg(args []string) (auth.Prompt, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected password or email", errUsage)
	}
	p, ok := auth.ParsePrompt(args[0])
	if !ok {
		return 0, fmt.Errorf("%w: unknown prompt %q", errUsage, args[0])
	}
	return p, nil
}

func (a *App) SetVisible(ctx context.Context, visible bool) error {
	a.viewer.SetVisible(visible)
	return nil
}

func (a *App) Tour(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.viewer.StartTour(ctx)
	}
	switch args[0] {
	case "next":
		return a.viewer.TourNext(ctx)
	case "back":
		return a.viewer.TourBack()
	case "cancel", "skip":
		return a.viewer.TourCancel(ctx)
	default:
		return fmt.Errorf("%w: usage: tour [next|back|cancel]", errUsage)
	}
}

func (a *App) RestartTour(ctx context.Context) error {
	return a.key(ctx, tour.RestartKey)
}

func (a *App) Toggle(ctx context.Context, what string) error {
	switch what {
	case "sidebar":
		a.viewer.ToggleSidebar()
	case "fullscreen":
		a.viewer.ToggleFullscreen()
	case "theme":
		a.viewer.ToggleTheme()
	default:
		return fmt.Errorf("%w: cannot toggle %q", errUsage, what)
	}
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: download <path>", errUsage)
	}

	// Nothing touches the target until the viewer hands the document over.
	var buf bytes.Buffer
	if err := a.viewer.Download(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	printlnFn("Saved to", args[0])
	return nil
}

func (a *App) Retry(ctx context.Context) error {
	return a.viewer.Retry(ctx)
}
