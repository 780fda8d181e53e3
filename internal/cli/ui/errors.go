// Package ui renders CLI diagnostics. Everything here writes plain strings;
// callers decide the output stream.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/IronSpiderMan/OneSite/internal/compiler/loader"
	"github.com/IronSpiderMan/OneSite/internal/compiler/resolve"
)

// ErrorLevel represents the severity of a diagnostic message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the diagnostic formatting
type ErrorOptions struct {
	Level       ErrorLevel
	Context     string
	Problem     string
	Suggestions []string
	NoColor     bool
}

// FormatError creates a standardized diagnostic with optional suggestions.
//
// Example output:
//
//	✗ MODEL ERROR: link table PostTag: must declare exactly two foreign key fields, found 1
//	  → A link table needs two @fk fields that together form its primary key
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "!"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "i"
	default:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "✗"
	}

	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, s := range opts.Suggestions {
		bodyColor.Fprintf(&b, "  → %s\n", s)
	}

	return b.String()
}

// FormatSyncError maps a pipeline error onto a diagnostic with a suggestion
// matched to the failure kind.
func FormatSyncError(err error) string {
	opts := ErrorOptions{Level: ErrorLevelError, Problem: err.Error()}

	var le *loader.LoadError
	var lte *resolve.LinkTableError
	var re *resolve.ResolveError
	switch {
	case errors.As(err, &le):
		opts.Context = "model error"
		if le.File != "" {
			opts.Suggestions = append(opts.Suggestions,
				fmt.Sprintf("Check %s near line %d", le.File, le.Line))
		}
	case errors.As(err, &lte):
		opts.Context = "link table error"
		opts.Suggestions = append(opts.Suggestions,
			"A link table needs two @fk fields that together form its primary key")
	case errors.As(err, &re):
		opts.Context = "relationship error"
		opts.Suggestions = append(opts.Suggestions,
			"Every @fk must point at an existing model and column, e.g. @fk(Post.id)")
	default:
		opts.Context = "sync failed"
	}

	return FormatError(opts)
}

// Success formats a green success line.
func Success(message string) string {
	return color.New(color.FgGreen).Sprintf("✓ %s", message)
}

// Info formats a neutral progress line.
func Info(message string) string {
	return color.New(color.FgCyan).Sprintf("• %s", message)
}
