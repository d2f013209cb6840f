package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hyperjump/datawizard/internal/cli"
	"github.com/hyperjump/datawizard/internal/models"
	"github.com/hyperjump/datawizard/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process every document dropped into the inbox directory",
	Long:  "Watches watch.inbox and runs each new or changed file with watch.instruction, watch.format, and watch.mode, writing outputs to watch.outbox. Files already processed (same content) are skipped.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var (
	watchInbox  string
	watchOutbox string
)

func init() {
	watchCmd.Flags().StringVar(&watchInbox, "inbox", "", "inbox directory (overrides watch.inbox)")
	watchCmd.Flags().StringVar(&watchOutbox, "outbox", "", "outbox directory (overrides watch.outbox)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := setup(configPath, debugFlag)
	if err != nil {
		return err
	}
	defer a.Close()

	wcfg := a.cfg.Watch
	if watchInbox != "" {
		wcfg.Inbox = watchInbox
	}
	if watchOutbox != "" {
		wcfg.Outbox = watchOutbox
	}
	if wcfg.Inbox == "" || wcfg.Outbox == "" {
		return fmt.Errorf("watch needs an inbox and an outbox (set watch.inbox and watch.outbox or use --inbox/--outbox)")
	}
	if _, err := models.ParseFormat(wcfg.Format); err != nil {
		return fmt.Errorf("invalid watch.format: %w", err)
	}
	if _, err := models.ParseMode(wcfg.Mode); err != nil {
		return fmt.Errorf("invalid watch.mode: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.openHistory()
	a.buildPipeline(ctx)

	procOpts := []watcher.ProcessorOption{
		watcher.WithProcessorLogger(a.logger),
		watcher.WithResultHandler(resultPrinter(cmd.OutOrStdout(), a.logger)),
	}
	if store := a.historyStore(); store != nil {
		procOpts = append(procOpts, watcher.WithFingerprintChecker(store))
	}
	proc := watcher.NewProcessor(a.pipeline, wcfg, procOpts...)

	w := watcher.NewWatcher(wcfg.Inbox, wcfg.Extensions, proc.Enqueue, watcher.WithLogger(a.logger))
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", wcfg.Inbox, err)
	}
	defer w.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		proc.Run(gctx)
		return nil
	})
	g.Go(func() error {
		// files dropped while the watcher was down
		if err := w.SyncExisting(); err != nil {
			a.logger.Warn("inbox sync failed", zap.Error(err))
		}
		return nil
	})

	a.logger.Info("watching inbox", zap.String("inbox", wcfg.Inbox), zap.String("outbox", wcfg.Outbox))
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s -> %s (Ctrl+C to stop)\n", wcfg.Inbox, wcfg.Outbox)
	return g.Wait()
}

// resultPrinter prints one summary line per processed inbox file.
func resultPrinter(out io.Writer, logger *zap.Logger) func(string, *models.RunResult, error) {
	var mu sync.Mutex
	return func(path string, res *models.RunResult, err error) {
		if err != nil {
			logger.Warn("inbox run failed", zap.String("path", path), zap.Error(err))
		}
		if res == nil {
			return
		}
		lines := cli.RunLines(res, false)
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "%s: %s\n", path, lines[len(lines)-1])
	}
}
