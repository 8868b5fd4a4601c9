package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conorfennell/tango/internal/config"
	"github.com/conorfennell/tango/internal/deck"
	"github.com/conorfennell/tango/internal/goal"
	"github.com/conorfennell/tango/internal/ledger"
	"github.com/conorfennell/tango/internal/reminder"
	"github.com/conorfennell/tango/internal/source"
	"github.com/conorfennell/tango/internal/srs"
	"github.com/conorfennell/tango/internal/storage"
	"github.com/conorfennell/tango/internal/trainer"
	"github.com/conorfennell/tango/internal/web"
	"github.com/spf13/pflag"
)

func main() {
	// 1. Resolve configuration
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tango: %v\n", err)
		os.Exit(2)
	}
	log := cfg.Logger(os.Stderr)
	slog.SetDefault(log)

	src := source.Source{
		Location: cfg.Deck,
		Entry:    cfg.Entry,
		Sheet:    cfg.Sheet,
		ReposDir: cfg.Repos,
		Logger:   log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Check {
		if err := runCheck(ctx, cfg, src); err != nil {
			log.Error("Deck check failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, src, log); err != nil {
		log.Error("tango stopped", "error", err)
		os.Exit(1)
	}
}

// runCheck loads the deck and prints a short report, including study
// progress when the database already exists.
func runCheck(ctx context.Context, cfg *config.Config, src source.Source) error {
	cards, err := src.Fetch(ctx)
	if err != nil {
		return err
	}
	d := deck.New(cards)
	fmt.Printf("Found %d cards, %d blocks.\n", d.Len(), d.MaxBlock())

	var slotted, noted int
	for _, c := range d.Cards() {
		if c.HasSlots() {
			slotted++
		}
		if c.Note != "" {
			noted++
		}
	}
	fmt.Printf("%d cards with slots, %d with notes.\n", slotted, noted)

	if _, err := os.Stat(cfg.DB); err != nil {
		return nil
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	l, err := ledger.Load(db)
	if err != nil {
		fmt.Printf("Review ledger unreadable: %v\n", err)
	}
	today := srs.DayNumber(time.Now())
	var learned, due int
	for _, c := range d.Cards() {
		if l.Learned(c.No) {
			learned++
		}
		if l.Due(c.No, today) {
			due++
		}
	}
	reviews, err := db.ReviewsOnDay(today)
	if err != nil {
		return err
	}
	fmt.Printf("%d learned, %d due today, %d reviews today.\n", learned, due, len(reviews))

	for _, b := range d.Blocks(l.Learned) {
		fmt.Printf("  %d-%d %d%%\n", b.First, b.Last, b.Percent)
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, src source.Source, log *slog.Logger) error {
	// 2. Open the database
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	log.Info("Database opened successfully", "path", cfg.DB)

	// 3. Restore study state; unreadable state starts empty
	l, err := ledger.Load(db)
	if err != nil {
		log.Warn("Review ledger could not be read, starting empty", "error", err)
	}
	today := srs.DayNumber(time.Now())
	g, err := goal.Load(db, cfg.Goal, today)
	if err != nil {
		log.Warn("Daily goal could not be read, starting fresh", "error", err)
	}

	t := trainer.New(trainer.Options{
		Ledger:  l,
		Goals:   g,
		History: db,
		Logger:  log,
	})

	// 4. Load the deck in the background; the UI shows a loading state until then
	go func() {
		if err := t.Load(ctx, src.Fetch); err != nil {
			return
		}
		sum := t.Summary()
		log.Info("Study status", "cards", sum.Cards, "learned", sum.Learned, "due", sum.Due)
	}()

	if cfg.Remind > 0 {
		r := reminder.New(t, reminder.LogNotifier{Logger: log}, cfg.Remind, log)
		if err := r.Start(); err != nil {
			return err
		}
		defer r.Stop()
	}

	// 5. Serve
	srv, err := web.NewServer(t, log)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening", "addr", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
