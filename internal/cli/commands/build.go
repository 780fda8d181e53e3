package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IronSpiderMan/OneSite/internal/cli/config"
)

var (
	buildComponent string
	buildEngine    string
	buildTag       string
	buildPort      int
)

// NewBuildCommand creates the build command
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build container images and generate docker-compose.yml",
		Long: `Build backend and frontend container images from the project
Dockerfiles and write a docker-compose.yml wiring them together.`,
		RunE: runBuild,
	}

	cmd.Flags().StringVarP(&buildComponent, "component", "c", "all", "Component to build: backend, frontend, or all")
	cmd.Flags().StringVarP(&buildEngine, "engine", "e", "docker", "Container engine: docker or podman")
	cmd.Flags().StringVarP(&buildTag, "tag", "t", "latest", "Image tag")
	cmd.Flags().IntVarP(&buildPort, "port", "p", 3000, "Frontend exposed port")

	return cmd
}

// composeFile mirrors the docker-compose.yml structure we emit.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Image     string   `yaml:"image"`
	Ports     []string `yaml:"ports,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	Volumes   []string `yaml:"volumes,omitempty"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	switch buildComponent {
	case "all", "backend", "frontend":
	default:
		return fmt.Errorf("invalid component %q: must be backend, frontend, or all", buildComponent)
	}
	switch buildEngine {
	case "docker", "podman":
	default:
		return fmt.Errorf("invalid engine %q: must be docker or podman", buildEngine)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	projectName := cfg.ProjectName
	if projectName == "" {
		projectName = strings.ToLower(filepath.Base(cwd))
	}

	backendImage := fmt.Sprintf("%s-backend:%s", projectName, buildTag)
	frontendImage := fmt.Sprintf("%s-frontend:%s", projectName, buildTag)

	if buildComponent == "all" || buildComponent == "backend" {
		if err := buildImage(cfg.Backend.Dir, backendImage); err != nil {
			return err
		}
	}
	if buildComponent == "all" || buildComponent == "frontend" {
		if err := buildImage(cfg.Frontend.Dir, frontendImage); err != nil {
			return err
		}
	}

	compose := composeFile{
		Services: map[string]composeService{
			"backend": {
				Image:   backendImage,
				Ports:   []string{fmt.Sprintf("%d:8000", cfg.Backend.Port)},
				Volumes: []string{"./data:/app/data", "./uploads:/app/uploads"},
			},
			"frontend": {
				Image:     frontendImage,
				Ports:     []string{fmt.Sprintf("%d:80", buildPort)},
				DependsOn: []string{"backend"},
			},
		},
	}

	data, err := yaml.Marshal(compose)
	if err != nil {
		return fmt.Errorf("failed to encode docker-compose.yml: %w", err)
	}
	if err := os.WriteFile("docker-compose.yml", data, 0o644); err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("Generated docker-compose.yml (%s, %s, frontend port %d)\n",
		backendImage, frontendImage, buildPort)
	return nil
}

func buildImage(dir, image string) error {
	if _, err := os.Stat(filepath.Join(dir, "Dockerfile")); err != nil {
		return fmt.Errorf("no Dockerfile in %s; run 'onesite sync' first", dir)
	}

	color.New(color.FgCyan).Printf("Building %s with %s...\n", image, buildEngine)
	build := exec.Command(buildEngine, "build", "-t", image, ".")
	build.Dir = dir
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		return fmt.Errorf("failed to build %s: %w", image, err)
	}
	return nil
}
