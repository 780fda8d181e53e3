package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/IronSpiderMan/OneSite/internal/cli/config"
)

var runComponent string

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the backend and frontend dev servers",
		Long: `Start uvicorn for the backend and the vite dev server for the
frontend. Both run until interrupted; --component restricts the run to
one side.`,
		RunE: runRun,
	}

	cmd.Flags().StringVarP(&runComponent, "component", "c", "all", "Component to run: backend, frontend, or all")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if runComponent != "all" && runComponent != "backend" && runComponent != "frontend" {
		return fmt.Errorf("unknown component %q (expected backend, frontend, or all)", runComponent)
	}

	infoColor := color.New(color.FgCyan)
	g, ctx := errgroup.WithContext(cmd.Context())

	if runComponent == "all" || runComponent == "backend" {
		if _, err := os.Stat(cfg.Backend.Dir); err != nil {
			return fmt.Errorf("backend directory %s not found; run 'onesite sync' first", cfg.Backend.Dir)
		}
		g.Go(func() error {
			infoColor.Printf("Starting backend on port %d...\n", cfg.Backend.Port)
			uvicorn := exec.CommandContext(ctx, "uvicorn", "app.main:app",
				"--reload", "--port", strconv.Itoa(cfg.Backend.Port))
			uvicorn.Dir = cfg.Backend.Dir
			uvicorn.Stdout = os.Stdout
			uvicorn.Stderr = os.Stderr
			return uvicorn.Run()
		})
	}

	if runComponent == "all" || runComponent == "frontend" {
		if _, err := os.Stat(filepath.Join(cfg.Frontend.Dir, "package.json")); err != nil {
			return fmt.Errorf("frontend package.json not found; run 'onesite sync' first")
		}
		g.Go(func() error {
			if _, err := os.Stat(filepath.Join(cfg.Frontend.Dir, "node_modules")); err != nil {
				infoColor.Println("node_modules not found, installing frontend dependencies...")
				npmInstall := exec.CommandContext(ctx, "npm", "install")
				npmInstall.Dir = cfg.Frontend.Dir
				npmInstall.Stdout = os.Stdout
				npmInstall.Stderr = os.Stderr
				if err := npmInstall.Run(); err != nil {
					return fmt.Errorf("npm install failed: %w", err)
				}
			}
			infoColor.Println("Starting frontend (npm run dev)...")
			npm := exec.CommandContext(ctx, "npm", "run", "dev", "--", "--port", strconv.Itoa(cfg.Frontend.Port))
			npm.Dir = cfg.Frontend.Dir
			npm.Stdout = os.Stdout
			npm.Stderr = os.Stderr
			return npm.Run()
		})
	}

	return g.Wait()
}
