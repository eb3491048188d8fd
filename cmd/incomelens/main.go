package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"IncomeLens/internal/collector"
	"IncomeLens/internal/config"
	"IncomeLens/internal/fetch"
	"IncomeLens/internal/httpapi"
	"IncomeLens/internal/presenter"
	"IncomeLens/internal/scheduler"
	"IncomeLens/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "incomelens: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger, os.Stdin, os.Stdout)
}

// serve wires the session and runs the HTTP adapter or the command line until
// ctx ends or in is exhausted. Everything it starts is stopped before it
// returns.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, in io.Reader, out io.Writer) error {
	logger.Info("IncomeLens starting",
		zap.String("symbol", cfg.DataSource.Symbol),
		zap.String("period", cfg.DataSource.Period))

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Mock {
		fetcher = collector.NewMockFetcher(collector.SampleRecords())
	} else {
		fetcher = collector.NewFMPFetcher(collector.FMPOptions{
			BaseURL:       cfg.DataSource.BaseURL,
			APIKey:        cfg.DataSource.APIKey,
			Symbol:        cfg.DataSource.Symbol,
			Period:        cfg.DataSource.Period,
			Proxy:         cfg.Proxy,
			Timeout:       cfg.DataSource.Timeout,
			RatePerSecond: cfg.DataSource.RatePerSecond,
		}, logger)
	}
	logger.Info("data source", zap.String("fetcher", fetcher.Name()))

	ctx, cancel := context.WithCancel(ctx)
	sess := session.New(fetch.NewController(fetcher, logger), logger)
	stopped := make(chan struct{})
	go func() {
		sess.Run(ctx)
		close(stopped)
	}()
	defer func() {
		cancel()
		<-stopped
		logger.Info("IncomeLens stopped")
	}()

	// Ready/error notices are handed to the command loop so that only one
	// goroutine writes to out.
	notices := make(chan presenter.Snapshot, 4)
	last := sess.Snapshot().Status
	sess.Subscribe(func(snap presenter.Snapshot) {
		if snap.Status == last {
			return
		}
		last = snap.Status
		if snap.Status != "ready" && snap.Status != "error" {
			return
		}
		select {
		case notices <- snap:
		default:
		}
	})

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, sess, logger)
	if err := sched.RegisterAutoRetry(cfg.Schedule.AutoRetryCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if err := sess.Dispatch(ctx, session.Start{}); err != nil {
		return fmt.Errorf("start load: %w", err)
	}

	if cfg.Server.ListenAddr != "" {
		return serveHTTP(ctx, cfg.Server.ListenAddr, sess, logger)
	}
	runCLI(ctx, sess, notices, in, out, logger)
	return nil
}

func newLogger(level string, development bool) (*zap.Logger, error) {
	var config zap.Config

	switch {
	case development || level == "debug":
		config = zap.NewDevelopmentConfig()
	case level == "warn":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case level == "error":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config = zap.NewProductionConfig()
	}

	// stdout carries the rendered view in CLI mode.
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build()
}

func serveHTTP(ctx context.Context, addr string, sess *session.Session, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.New(sess, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping...")
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return nil
}

// runCLI reads commands from in until EOF or ctx ends, and reprints the
// view for every notice. It is the only writer to out.
func runCLI(ctx context.Context, sess *session.Session, notices <-chan presenter.Snapshot, in io.Reader, out io.Writer, logger *zap.Logger) {
	fmt.Fprintln(out, "IncomeLens. Type help for commands.")
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("read stdin", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-notices:
			_ = presenter.Render(out, snap)
			fmt.Fprint(out, "> ")
		case line, ok := <-lines:
			if !ok {
				// Flush notices already queued before leaving.
				for {
					select {
					case snap := <-notices:
						_ = presenter.Render(out, snap)
					default:
						return
					}
				}
			}
			reply, err := sess.HandleCommand(ctx, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			} else {
				fmt.Fprint(out, reply)
			}
			fmt.Fprint(out, "> ")
		}
	}
}
