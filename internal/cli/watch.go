package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/ndb/internal/boundary"
	"github.com/roach88/ndb/ndb"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	FilterFlags
	Count       int
	MetricsAddr string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print matching notes as they arrive",
		Long: `Subscribe to notes matching the given criteria and print each new one,
oldest first, until interrupted.

Only notes stored after the watch starts are printed. Notes ingested by
other processes into the same database are picked up on the next poll
(watch.poll_interval).

Examples:
  ndb watch --kind 1
  ndb watch --tag t=nostr --count 10
  ndb watch --metrics-addr :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	opts.FilterFlags.register(cmd)
	cmd.Flags().IntVar(&opts.Count, "count", 0, "exit after printing this many notes (0 = run until interrupted)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	log := opts.Logger

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.MetricsAddr != "" {
		srv, err := serveMetrics(opts.MetricsAddr, log)
		if err != nil {
			return err
		}
		defer srv.Shutdown(context.Background())
	}

	db, err := opts.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	filter, err := opts.FilterFlags.build(cmd, 0)
	if err != nil {
		return err
	}
	sub, err := db.Subscribe(filter)
	filter.Close()
	if err != nil {
		return WrapDBError("subscribe failed", err)
	}
	defer sub.Close()

	interval := opts.Config.Watch.PollInterval
	batch := opts.Config.Watch.BatchSize
	log.Info("watching", "sub", sub.ID(), "poll_interval", interval, "batch_size", batch)

	out := opts.formatter(cmd)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped", "printed", printed)
			return nil
		case <-ticker.C:
		}

		// Drain: a full batch means more may be waiting.
		for {
			keys, err := sub.Poll(batch)
			if err != nil {
				return WrapDBError("poll failed", err)
			}
			n, err := printKeys(db, out, keys, opts.Count-printed, opts.Count > 0)
			printed += n
			if err != nil {
				return err
			}
			if opts.Count > 0 && printed >= opts.Count {
				return nil
			}
			if len(keys) < batch {
				break
			}
		}
	}
}

// printKeys prints the notes for keys, at most remaining of them when bounded.
func printKeys(db *ndb.Database, out *OutputFormatter, keys []int64, remaining int, bounded bool) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	printed := 0
	err := db.View(func(txn *ndb.Transaction) error {
		for _, key := range keys {
			if bounded && printed >= remaining {
				return nil
			}
			n, found, err := db.GetNoteByKey(txn, key)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			if err := out.Success(n); err != nil {
				return err
			}
			printed++
		}
		return nil
	})
	if err != nil {
		return printed, WrapDBError("fetch failed", err)
	}
	return printed, nil
}

// serveMetrics exposes the boundary metrics at /metrics.
func serveMetrics(addr string, log *slog.Logger) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	if err := boundary.Register(reg); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to register metrics", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	return srv, nil
}
