package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/IronSpiderMan/OneSite/internal/cli/config"
	"github.com/IronSpiderMan/OneSite/internal/cli/ui"
	"github.com/IronSpiderMan/OneSite/internal/syncer"
	"github.com/IronSpiderMan/OneSite/internal/watch"
)

var (
	watchReloadPort int
	watchVerbose    bool
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch model files and regenerate artifacts on change",
		Long: `Watch the models directory for changes to .site files and re-run
the sync pipeline automatically. A local WebSocket endpoint notifies
connected browsers so they can reload after each regeneration.`,
		RunE: runWatch,
	}

	cmd.Flags().IntVar(&watchReloadPort, "reload-port", 35729, "Port for the browser reload WebSocket server")
	cmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !config.InProject() {
		return fmt.Errorf("not inside a OneSite project; run 'onesite new' first")
	}

	logger := zap.NewNop()
	if watchVerbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}
	defer logger.Sync()

	resync := func(ctx context.Context) error {
		result, err := syncer.Sync(ctx, syncer.Options{
			ModelsDir:   cfg.ModelsDir,
			ProjectRoot: ".",
			PageSize:    cfg.Sync.PageSize,
			PublicPath:  cfg.Sync.PublicPath,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Synced: %d written, %d unchanged", len(result.Written), len(result.Skipped))))
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := resync(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatSyncError(err))
	}

	reload := watch.NewReloadServer(watchReloadPort, logger)
	go func() {
		if err := reload.Start(); err != nil {
			logger.Error("reload server failed", zap.Error(err))
		}
	}()

	watcher, err := watch.NewModelWatcher(cfg.ModelsDir, logger, func(files []string) {
		fmt.Println(ui.Info(fmt.Sprintf("Change detected in %d file(s), regenerating...", len(files))))
		if err := resync(ctx); err != nil {
			fmt.Fprintln(os.Stderr, ui.FormatSyncError(err))
			reload.NotifyError(err)
			return
		}
		reload.NotifyReload(files)
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}

	fmt.Println(ui.Info(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", cfg.ModelsDir)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println(ui.Info("Shutting down..."))
	if err := watcher.Stop(); err != nil {
		logger.Warn("watcher stop failed", zap.Error(err))
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	return reload.Shutdown(shutdownCtx)
}
