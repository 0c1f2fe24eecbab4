// Command verifone-demo drives a full till shift against the terminal
// simulator: initialize, login, session, basket, payment, refund and
// reconciliation, with receipts archived and transactions journaled.
// With -listen it also serves health and Prometheus metrics endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/basket"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/config"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/events"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/journal"
	vplog "github.com/johanhenningsson4-hash/VerifonePayment/internal/log"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/receipt"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/session"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/terminal/sim"
	"github.com/johanhenningsson4-hash/VerifonePayment/internal/userinput"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	vplog.Configure(vplog.Config{Level: "info", Service: "verifone-demo"})
	logger := vplog.WithComponent("demo")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(vplog.FieldEvent, "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}

	vplog.SetLevel(cfg.LogLevel)

	sdkLogPath, err := cfg.PrepareLogFile()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare SDK log file")
	}

	logger.Info().
		Str(vplog.FieldEvent, "startup").
		Str("version", version).
		Str("sdk_log", sdkLogPath).
		Msg(cfg.Summary())

	dispatcher := events.NewDispatcher()
	term := sim.New(dispatcher, nil)
	orch := session.New(session.Config{
		DeviceAddress:      cfg.DeviceIPAddress,
		ConnectionType:     cfg.ConnectionType,
		ConnectTimeout:     cfg.ConnectionTimeout(),
		TransactionTimeout: cfg.TransactionTimeout(),
	}, term, dispatcher)

	// Terminal prompts answer themselves: no operator handler means
	// every input request falls through to the safe default.
	mediator := userinput.NewMediator(term, nil)
	term.SetPromptFunc(func(ctx context.Context, inputType, prompt, message string, options []string) {
		mediator.HandlePrompt(ctx, inputType, prompt, message, options)
	})

	var jnl *journal.Journal
	if cfg.JournalPath != "" {
		jnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.JournalPath).Msg("failed to open journal")
		}
		defer func() {
			if err := jnl.Close(); err != nil {
				logger.Warn().Err(err).Msg("journal close failed")
			}
		}()
		jnl.Follow(dispatcher,
			events.CategoryStatus,
			events.CategoryCommerce,
			events.CategoryNotification,
			events.CategoryPaymentCompleted,
			events.CategoryRefundCompleted,
			events.CategoryReconciliation,
		)
	}

	var archive *receipt.Archive
	if cfg.ReceiptDir != "" {
		archive, err = receipt.NewArchive(cfg.ReceiptDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", cfg.ReceiptDir).Msg("failed to create receipt archive")
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ListenAddr != "" {
		srv := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           newRouter(jnl),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", cfg.ListenAddr).Msg("serving health and metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if *configPath != "" {
		g.Go(func() error {
			err := config.Watch(gctx, *configPath, func(next config.Config) {
				logger.Info().Msg(next.Summary())
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		defer stop()
		return runShift(gctx, cfg, orch, jnl, archive)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("demo failed")
	}
	logger.Info().Msg("demo finished")
}

func newRouter(jnl *journal.Journal) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if jnl != nil {
		r.Get("/transactions", func(w http.ResponseWriter, req *http.Request) {
			recs, err := jnl.Transactions(req.Context(), 100)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			for _, rec := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\trefund=%t\t%s\n",
					rec.LocalID, rec.Invoice, rec.Currency, rec.Amount, rec.Refund,
					rec.CompletedAt.Format(time.RFC3339))
			}
		})
	}
	return r
}

// runShift executes one scripted cashier shift end to end.
func runShift(ctx context.Context, cfg config.Config, orch *session.Orchestrator, jnl *journal.Journal, archive *receipt.Archive) error {
	logger := vplog.WithComponent("shift")
	defer orch.TearDown(context.Background())

	if err := orch.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := orch.Login(ctx, cfg.DefaultUsername, cfg.DefaultPassword, cfg.DefaultShiftNumber); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	invoice := fmt.Sprintf("INV-%d", time.Now().Unix())
	if err := orch.StartSession(ctx, invoice); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	items := []basket.Item{
		{Name: "Coffee", Price: 3500, Tax: 700},
		{Name: "Sandwich", Price: 6500, Tax: 1300},
		{Name: "Water", Price: 1500, Tax: 300},
	}
	for _, it := range items {
		if err := orch.AddItem(ctx, it); err != nil {
			return fmt.Errorf("add %s: %w", it.Name, err)
		}
	}
	// The customer changed their mind about the water.
	if err := orch.RemoveItem(ctx); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}

	totals, _ := orch.Basket().Totals()
	if err := orch.Pay(ctx, totals.Total(), invoice, "SEK"); err != nil {
		return fmt.Errorf("pay: %w", err)
	}
	logger.Info().
		Str(vplog.FieldInvoice, invoice).
		Int64(vplog.FieldAmount, totals.Total()).
		Msg("payment approved")

	if archive != nil {
		rcpt := &receipt.Receipt{
			Type:        "Customer",
			PlainText:   fmt.Sprintf("Invoice %s\nTotal %d\n", invoice, totals.Total()),
			CashierName: cfg.DefaultUsername,
			GeneratedAt: time.Now(),
		}
		path, err := archive.Store(invoice, rcpt, receipt.FormatText)
		if err != nil {
			logger.Warn().Err(err).Msg("receipt archival failed")
		} else {
			logger.Info().Str("path", path).Msg("receipt archived")
		}
		if orch.PrintingSupported(ctx) {
			if err := orch.PrintReceipt(ctx, rcpt, 1); err != nil {
				logger.Warn().Err(err).Msg("receipt print failed")
			} else {
				logger.Info().Msg("receipt printed")
			}
		}
	}

	payments := orch.Payments()
	if len(payments) == 0 {
		return errors.New("no payment recorded after approval")
	}
	last := payments[len(payments)-1]

	if err := orch.LinkedRefund(ctx, last.LocalID, nil, "SEK"); err != nil {
		return fmt.Errorf("linked refund: %w", err)
	}
	logger.Info().Str("original", last.LocalID).Msg("linked refund approved")

	if err := orch.EndSession(ctx); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if err := orch.ClosePeriodAndReconcile(ctx); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if jnl != nil {
		for _, rec := range orch.Payments() {
			if err := jnl.RecordTransaction(ctx, rec); err != nil {
				logger.Warn().Err(err).Str("local_id", rec.LocalID).Msg("journal write failed")
			}
		}
	}

	return nil
}
