package commands

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// NewComposeCommand creates the compose command
func NewComposeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose [args...]",
		Short: "Run the container engine's compose with the project's docker-compose.yml",
		Long: `Pass arguments through to 'docker compose' (or 'podman compose')
using the docker-compose.yml generated by 'onesite build'.

Examples:
  onesite compose up -d
  onesite compose logs -f backend
  onesite compose down`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE:               runCompose,
	}

	return cmd
}

func runCompose(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat("docker-compose.yml"); err != nil {
		return fmt.Errorf("docker-compose.yml not found; run 'onesite build' first")
	}

	engine := os.Getenv("ONESITE_ENGINE")
	if engine == "" {
		engine = "docker"
	}

	composeArgs := append([]string{"compose"}, args...)
	proc := exec.Command(engine, composeArgs...)
	proc.Stdout = os.Stdout
	proc.Stderr = os.Stderr
	proc.Stdin = os.Stdin
	return proc.Run()
}
