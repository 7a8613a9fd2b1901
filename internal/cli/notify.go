package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/sitetask/internal/client"
	"github.com/existflow/sitetask/internal/db"
	"github.com/existflow/sitetask/internal/logger"
	"github.com/spf13/cobra"
)

// seenRetention is how long acknowledged approvals are remembered
const seenRetention = 30 * 24 * time.Hour

var notifyCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notify"},
	Short:   "Show newly approved tasks",
	Long: `Show tasks approved recently that you have not seen yet.

With --watch, keep polling and print approvals as they arrive.

Examples:
  sitetask notifications
  sitetask notify --watch`,
	RunE: runNotify,
}

var (
	notifyWatch bool
	notifyPeek  bool
)

func init() {
	notifyCmd.Flags().BoolVarP(&notifyWatch, "watch", "w", false, "Keep watching for approvals")
	notifyCmd.Flags().BoolVar(&notifyPeek, "peek", false, "Do not mark shown approvals as seen")
}

func runNotify(cmd *cobra.Command, args []string) error {
	c, err := requireLogin()
	if err != nil {
		return err
	}

	cache, err := db.OpenDefault()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() {
		_ = cache.Close()
	}()

	pruneSeen(cache)

	watcher := client.NewWatcher(c, cache, currentConfig().PollInterval)
	defer watcher.Stop()

	if !notifyWatch {
		ctx, cancel := commandContext()
		defer cancel()

		fresh, err := watcher.Check(ctx)
		if err != nil {
			return explain(err)
		}
		if len(fresh) == 0 {
			fmt.Println("No new approvals.")
			return nil
		}
		return announce(ctx, watcher, fresh)
	}

	fmt.Println("👀 Watching for approvals (Ctrl+C to stop)...")
	watcher.SetOnApproved(func(tasks []client.Task) {
		ctx, cancel := commandContext()
		defer cancel()
		if err := announce(ctx, watcher, tasks); err != nil {
			logger.Warn("Failed to mark approvals seen", logger.Err(err))
		}
	})
	watcher.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println()
	return nil
}

func announce(ctx context.Context, w *client.Watcher, tasks []client.Task) error {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		fmt.Printf("🔔 Approved: \"%s\" %s (%s)\n", t.Title, location(t), t.CompanyName)
		ids = append(ids, t.ID)
	}
	if notifyPeek {
		return nil
	}
	return w.Acknowledge(ctx, ids)
}

// pruneSeen drops old seen marks at most once a day
func pruneSeen(cache *db.DB) {
	ctx, cancel := commandContext()
	defer cancel()

	today := time.Now().Format("2006-01-02")
	last, err := cache.GetState(ctx, "last_prune")
	if err != nil || last == today {
		return
	}

	n, err := cache.Prune(ctx, time.Now().Add(-seenRetention))
	if err != nil {
		logger.Warn("Failed to prune seen cache", logger.Err(err))
		return
	}
	_ = cache.SetState(ctx, "last_prune", today)
	logger.Debug("Pruned seen cache", logger.F("removed", n))
}
