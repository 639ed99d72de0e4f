package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/phrasedrill/internal/audio"
	"github.com/conorfennell/phrasedrill/internal/config"
	"github.com/conorfennell/phrasedrill/internal/practice"
	"github.com/conorfennell/phrasedrill/internal/quiz"
	"github.com/conorfennell/phrasedrill/internal/review"
	"github.com/conorfennell/phrasedrill/internal/storage"
	"github.com/conorfennell/phrasedrill/internal/web"
)

const usage = `Usage: phrasedrill [flags] <command> [args]

Commands:
  serve                  Start the HTTP API
  sync                   Load every source and report the corpus
  add-source <path|url>  Register a local directory or git repository
  save <id>              Save a sentence for practice
  unsave <id>            Remove a saved sentence and its review card
  due                    List saved sentences due for review
  quiz                   Take a quiz in the terminal
  review                 Review due sentences in the terminal

Flags:
`

func main() {
	fs := pflag.NewFlagSet("phrasedrill", pflag.ContinueOnError)
	config.Flags(fs)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, fs.Arg(0), fs.Args()[1:]); err != nil {
		slog.Error("Command failed", "command", fs.Arg(0), "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// newService wires the store, generator and scheduler from cfg.
func newService(cfg *config.Config, db *storage.DB) (*practice.Service, error) {
	sched, err := review.NewScheduler(cfg.Ladder(), cfg.Review.MaxDifficulty)
	if err != nil {
		return nil, err
	}

	var chain audio.Chain
	if cfg.Audio.Dir != "" {
		chain = append(chain, audio.DirResolver{Dir: cfg.Audio.Dir})
	}
	if cfg.Audio.BaseURL != "" {
		chain = append(chain, audio.URLResolver{Base: cfg.Audio.BaseURL})
	}
	var resolver quiz.AudioResolver
	if len(chain) > 0 {
		resolver = chain
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	gen := quiz.NewGenerator(rng, resolver, cfg.Generator(), slog.Default().With("component", "quiz"))

	return practice.New(db, gen, sched, practice.Options{
		LearningLang: cfg.LearningLang,
		KnownLang:    cfg.KnownLang,
		Topic:        cfg.Topic,
		Entitled:     cfg.Entitled,
		ReposDir:     cfg.ReposDir,
		PruneOrphans: cfg.PruneOrphans,
		RecentWindow: cfg.RecentWindow(),
	}, slog.Default()), nil
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	slog.Debug("Database opened successfully", "path", cfg.DB)

	svc, err := newService(cfg, db)
	if err != nil {
		return err
	}

	switch command {
	case "serve":
		return serve(ctx, cfg.Addr, svc)
	case "sync":
		return syncCorpus(ctx, svc)
	case "add-source":
		if len(args) != 1 {
			return errors.New("usage: phrasedrill add-source <path|url>")
		}
		id, err := svc.AddSource(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Added source %d: %s\n", id, args[0])
		return nil
	case "save", "unsave":
		if len(args) != 1 {
			return fmt.Errorf("usage: phrasedrill %s <id>", command)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid sentence id %q", args[0])
		}
		if command == "unsave" {
			return svc.Unsave(id)
		}
		if _, err := svc.Reload(ctx); err != nil {
			return err
		}
		return svc.Save(id)
	case "due":
		if _, err := svc.Reload(ctx); err != nil {
			return err
		}
		return printDue(os.Stdout, svc, cfg.LearningLang)
	case "quiz":
		if _, err := svc.Reload(ctx); err != nil {
			return err
		}
		return runQuiz(os.Stdin, os.Stdout, svc)
	case "review":
		if _, err := svc.Reload(ctx); err != nil {
			return err
		}
		return runReview(os.Stdin, os.Stdout, svc, cfg.LearningLang, cfg.KnownLang)
	}
	return fmt.Errorf("unknown command %q", command)
}

func syncCorpus(ctx context.Context, svc *practice.Service) error {
	res, err := svc.Reload(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d sentences, %d errors, %d orphaned saves.\n", len(svc.Corpus()), len(res.Errors), len(res.Orphans))
	if len(res.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range res.Errors {
			fmt.Printf("- %s\n", e)
		}
	}
	return nil
}

func serve(ctx context.Context, addr string, svc *practice.Service) error {
	if _, err := svc.Reload(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           web.NewServer(svc, slog.Default().With("component", "web")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
