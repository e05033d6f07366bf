// Package server assembles the blog from its configuration: storage,
// search, mail, services and the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"blog/app/config"
	"blog/app/mailer"
	"blog/app/repositories"
	"blog/app/repositories/postgres"
	"blog/app/routes"
	"blog/app/search"
	"blog/app/services"
	"blog/app/views"
)

// App is a fully wired blog.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    repositories.Store
	Posts    *services.PostService
	Comments *services.CommentService
	Share    *services.ShareService
	Mailer   mailer.Mailer

	closers []io.Closer
}

// OpenStore opens the content store selected by storage.driver. With the
// postgres driver the returned index is the database's own full-text
// search; otherwise it is nil and the caller provides one.
func OpenStore(ctx context.Context, cfg *config.Config) (repositories.Store, services.SearchIndex, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := postgres.New(ctx, cfg.Storage.DSN, cfg.Location())
		if err != nil {
			return nil, nil, err
		}
		return store, store.Searcher(), nil
	default:
		store, err := repositories.OpenBadgerStore(cfg.Storage.Path, cfg.Location())
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

// NewMailer builds the mailer selected by mail.backend.
func NewMailer(cfg *config.Config, logger *slog.Logger) mailer.Mailer {
	if cfg.Mail.Backend == "smtp" {
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
		}, logger)
	}
	return mailer.NewOutbox()
}

// New opens storage and builds the services. A bleve index that does not
// exist yet is built from the store; an on-disk one is reused as is.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	store, index, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Driver, err)
	}
	app.Store = store
	app.closers = append(app.closers, store)

	rebuild := false
	if index == nil {
		// An existing on-disk index is kept in sync by every write and
		// reused; a new or in-memory one is filled from the store.
		rebuild = !search.Exists(cfg.Search.Path)
		idx, err := search.Open(cfg.Search.Path)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, idx)
		index = idx
	}

	app.Posts = services.NewPostService(store, index,
		services.WithLocation(cfg.Location()),
		services.WithPageSize(cfg.Blog.PageSize),
		services.WithLogger(logger),
	)
	app.Comments = services.NewCommentService(store, logger)
	app.Mailer = NewMailer(cfg, logger)
	app.Share = services.NewShareService(app.Posts, app.Mailer, cfg.Mail.From, cfg.Server.BaseURL, logger)

	if rebuild {
		if _, err := app.Posts.Reindex(ctx); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

// Handler returns the application router.
func (a *App) Handler() (http.Handler, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, err
	}
	return routes.Setup(routes.Deps{
		Posts:    a.Posts,
		Comments: a.Comments,
		Share:    a.Share,
		Views:    renderer,
		BaseURL:  a.Config.Server.BaseURL,
		Logger:   a.Logger,
	}), nil
}

// Serve listens on server.addr until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Config.Server.Addr, err)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	handler, err := a.Handler()
	if err != nil {
		ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("blog listening", "addr", ln.Addr().String(), "storage", a.Config.Storage.Driver)
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the index and the store.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
