package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/IronSpiderMan/OneSite/internal/cli/config"
	"github.com/IronSpiderMan/OneSite/internal/cli/ui"
	"github.com/IronSpiderMan/OneSite/internal/syncer"
)

var (
	syncInstall bool
	syncPrune   bool
	syncVerbose bool
)

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync models into backend and frontend artifacts",
		Long: `Read every .site file in the models directory and regenerate the
backend schemas, CRUD modules and API routes, plus the frontend
services, stores, pages, route table and menu.

Sync is idempotent: unchanged files are left untouched, and re-running
it on the same models produces byte-identical output. With --prune,
artifacts belonging to removed models are deleted as well.`,
		RunE: runSync,
	}

	cmd.Flags().BoolVarP(&syncInstall, "install", "i", false, "Install backend and frontend dependencies after syncing")
	cmd.Flags().BoolVar(&syncPrune, "prune", false, "Remove artifacts of deleted models")
	cmd.Flags().BoolVarP(&syncVerbose, "verbose", "v", false, "Log every pipeline step")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if syncVerbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	result, err := syncer.Sync(cmd.Context(), syncer.Options{
		ModelsDir:   cfg.ModelsDir,
		ProjectRoot: ".",
		Prune:       syncPrune,
		PageSize:    cfg.Sync.PageSize,
		PublicPath:  cfg.Sync.PublicPath,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.FormatSyncError(err))
		return err
	}

	fmt.Println(ui.Success(fmt.Sprintf("Sync complete: %d written, %d unchanged, %d pruned",
		len(result.Written), len(result.Skipped), len(result.Pruned))))

	if syncInstall {
		if err := installDependencies(cfg); err != nil {
			return err
		}
	}
	return nil
}

// installDependencies runs pip and npm installs for the generated project.
func installDependencies(cfg *config.Config) error {
	infoColor := color.New(color.FgCyan)

	if _, err := os.Stat(filepath.Join(cfg.Backend.Dir, "requirements.txt")); err == nil {
		infoColor.Println("Installing backend dependencies...")
		pip := exec.Command("pip", "install", "-r", "requirements.txt")
		pip.Dir = cfg.Backend.Dir
		pip.Stdout = os.Stdout
		pip.Stderr = os.Stderr
		if err := pip.Run(); err != nil {
			return fmt.Errorf("pip install failed: %w", err)
		}
	}

	if _, err := os.Stat(filepath.Join(cfg.Frontend.Dir, "package.json")); err == nil {
		infoColor.Println("Installing frontend dependencies...")
		npm := exec.Command("npm", "install")
		npm.Dir = cfg.Frontend.Dir
		npm.Stdout = os.Stdout
		npm.Stderr = os.Stderr
		if err := npm.Run(); err != nil {
			return fmt.Errorf("npm install failed: %w", err)
		}
	}
	return nil
}
