// main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gewnthar/rfiarchive/config"
	"github.com/gewnthar/rfiarchive/database"
	"github.com/gewnthar/rfiarchive/handlers"
	"github.com/gewnthar/rfiarchive/parser"
	"github.com/gewnthar/rfiarchive/receivers"
	"github.com/gewnthar/rfiarchive/scraper"
	"github.com/gewnthar/rfiarchive/services"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const usage = `usage: rfiarchive [-config config.yaml] <command> [flags]

commands:
  ingest   ingest the scan files of a directory (default)
  fetch    download scan files from the remote index
  serve    run the admin HTTP API
  schema   create the archive tables if absent
`

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	cmd, args := "ingest", flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cmd, args, cfg, logger); err != nil {
		logger.Error("command failed", zap.String("command", cmd), zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

func run(ctx context.Context, cmd string, args []string, cfg config.Config, logger *zap.Logger) error {
	if cmd == "fetch" {
		return runFetch(ctx, args, cfg, logger)
	}

	switch cmd {
	case "ingest", "serve", "schema":
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	cfg.Database = promptPassword(cfg.Database)
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	store := database.NewStore(db, cfg.Database.Driver, cfg.Tables, logger.Named("database"))
	defer store.Close()
	logger.Info("connected to archive", zap.String("driver", cfg.Database.Driver), zap.String("dbname", cfg.Database.DBName))

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	switch cmd {
	case "ingest":
		return runIngest(ctx, args, cfg, store, logger)
	case "serve":
		return runServe(ctx, cfg, store, logger)
	}
	return nil
}

// promptPassword asks for the database password on the terminal when none is
// configured.
func promptPassword(cfg config.DatabaseConfig) config.DatabaseConfig {
	if cfg.Driver != config.DriverMySQL || cfg.Password != "" {
		return cfg
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return cfg
	}
	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", cfg.User, cfg.Host)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err == nil {
		cfg.Password = string(pw)
	}
	return cfg
}

func newBatchRunner(cfg config.Config, store *database.Store, logger *zap.Logger) *services.BatchRunner {
	table := receivers.Default()
	p := parser.New(parser.Options{
		MandatoryColumns: cfg.MandatoryColumns(),
		MainTable:        cfg.Tables.Main,
		DirtyTable:       cfg.Tables.Dirty,
		Receivers:        table,
	}, logger.Named("parser"))

	ingestor := services.NewIngestor(p,
		services.NewReconciler(store, cfg.Tables.Main, cfg.CompositeKey(), logger.Named("reconciler")),
		services.NewRotationTracker(store, table, logger.Named("rotation")),
		store, logger.Named("ingest"))
	return services.NewBatchRunner(ingestor, store, cfg.Tables.Main, logger.Named("batch"))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runIngest(ctx context.Context, args []string, cfg config.Config, store *database.Store, logger *zap.Logger) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	dir := fs.String("dir", cfg.Ingest.Directory, "directory of scan files")
	selection := fs.String("select", strings.Join(cfg.Ingest.Selection, ","), "comma separated filename substrings to ingest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	summary, err := newBatchRunner(cfg, store, logger).Run(ctx, *dir, splitList(*selection))
	if err != nil {
		return err
	}
	fmt.Println(summary.String())
	return nil
}

func runFetch(ctx context.Context, args []string, cfg config.Config, logger *zap.Logger) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	index := fs.String("index", cfg.Remote.IndexURL, "URL of the remote scan index")
	dir := fs.String("dir", cfg.Remote.DownloadDir, "download directory")
	selection := fs.String("select", strings.Join(cfg.Ingest.Selection, ","), "comma separated filename substrings to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *index == "" {
		return errors.New("no remote index URL configured")
	}

	fetcher := scraper.NewFetcher(cfg.Remote.Timeout, logger.Named("fetch"))
	paths, err := fetcher.FetchAll(ctx, *index, *dir, splitList(*selection))
	logger.Info("fetch finished", zap.Int("files", len(paths)), zap.String("dir", *dir))
	return err
}

func runServe(ctx context.Context, cfg config.Config, store *database.Store, logger *zap.Logger) error {
	mux := http.NewServeMux()
	handlers.NewAdminHandler(newBatchRunner(cfg, store, logger), store,
		cfg.Ingest.Directory, cfg.Ingest.Selection, logger.Named("http")).Register(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
