package commands

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

//go:embed all:scaffold
var scaffoldFS embed.FS

var (
	newBackendPort  int
	newFrontendPort int
)

var projectNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateProjectName validates project name with security checks
func validateProjectName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) == 0 || len(name) > 100 {
		return fmt.Errorf("project name must be 1-100 characters")
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("project name cannot be an absolute path")
	}
	if !projectNameRe.MatchString(name) {
		return fmt.Errorf("project name can only contain letters, numbers, dashes, and underscores")
	}
	return nil
}

// NewNewCommand creates the new command
func NewNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [project-name]",
		Short: "Create a new OneSite project",
		Long: `Create a new OneSite project: a site.yml config, a models/ directory
with a sample model, and the backend and frontend scaffolding the
generated code plugs into.

If no project name is provided, you will be prompted to enter one.

Examples:
  onesite new my-blog
  onesite new my-shop --backend-port 9000`,
		RunE: runNew,
	}

	cmd.Flags().IntVar(&newBackendPort, "backend-port", 8000, "Backend server port")
	cmd.Flags().IntVar(&newFrontendPort, "frontend-port", 5173, "Frontend dev server port")

	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	var projectName string
	if len(args) > 0 {
		projectName = args[0]
	} else {
		prompt := &survey.Input{
			Message: "Project name:",
			Help:    "Letters, numbers, dashes, and underscores only",
		}
		if err := survey.AskOne(prompt, &projectName, survey.WithValidator(func(ans interface{}) error {
			return validateProjectName(ans.(string))
		})); err != nil {
			return err
		}
	}

	if err := validateProjectName(projectName); err != nil {
		return err
	}

	if _, err := os.Stat(projectName); err == nil {
		return fmt.Errorf("directory %s already exists", projectName)
	}

	infoColor := color.New(color.FgCyan)
	infoColor.Printf("Creating project %s...\n", projectName)

	data := scaffoldData{
		ProjectName:  projectName,
		BackendPort:  newBackendPort,
		FrontendPort: newFrontendPort,
	}
	if err := writeScaffold(projectName, data); err != nil {
		// Leave nothing half-created
		os.RemoveAll(projectName)
		return err
	}

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Printf("Project %s created successfully!\n\n", projectName)
	fmt.Println("Next steps:")
	fmt.Printf("  cd %s\n", projectName)
	fmt.Println("  onesite sync --install")
	fmt.Println("  onesite run")
	return nil
}

// scaffoldData feeds the *.tmpl files in the embedded scaffold.
type scaffoldData struct {
	ProjectName  string
	BackendPort  int
	FrontendPort int
}

// writeScaffold copies the embedded scaffold into dest, rendering
// *.tmpl files with the project settings.
func writeScaffold(dest string, data scaffoldData) error {
	return fs.WalkDir(scaffoldFS, "scaffold", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(path, "scaffold")
		rel = strings.TrimPrefix(rel, "/")
		target := filepath.Join(dest, filepath.FromSlash(rel))

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		content, err := scaffoldFS.ReadFile(path)
		if err != nil {
			return err
		}

		if strings.HasSuffix(rel, ".tmpl") {
			tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
			if err != nil {
				return fmt.Errorf("failed to parse scaffold template %s: %w", rel, err)
			}
			var b strings.Builder
			if err := tmpl.Execute(&b, data); err != nil {
				return fmt.Errorf("failed to render scaffold template %s: %w", rel, err)
			}
			content = []byte(b.String())
			target = strings.TrimSuffix(target, ".tmpl")
		}

		return os.WriteFile(target, content, 0o644)
	})
}
