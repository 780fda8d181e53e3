// Package syncer drives one full model-to-artifact synchronization: load,
// resolve, classify, generate, write. It is the only package that writes
// into the target project tree.
package syncer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IronSpiderMan/OneSite/internal/compiler/codegen"
	"github.com/IronSpiderMan/OneSite/internal/compiler/loader"
	"github.com/IronSpiderMan/OneSite/internal/compiler/resolve"
)

// Options configures one sync run.
type Options struct {
	// ModelsDir holds the .site model sources.
	ModelsDir string
	// ProjectRoot is the directory containing backend/ and frontend/.
	ProjectRoot string
	// Prune removes artifacts recorded in the manifest whose model no
	// longer exists.
	Prune bool
	// PageSize and PublicPath come from the sync section of site.yml and
	// are baked into the generated modules. Zero values fall back to the
	// generator defaults.
	PageSize   int
	PublicPath string

	Logger *zap.Logger
}

// Result summarizes what a sync run did to the target tree.
type Result struct {
	RunID   string
	Written []string
	Skipped []string
	Pruned  []string
}

// Sync runs the full pipeline. Loading and resolution complete for all
// models before any artifact is rendered, and all artifacts are rendered
// in memory before any file is written, so a load or resolve failure leaves
// the target tree untouched.
func Sync(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	reg, err := loader.LoadDir(opts.ModelsDir)
	if err != nil {
		return nil, err
	}
	edges, err := resolve.Resolve(reg)
	if err != nil {
		return nil, err
	}
	logger.Info("models resolved",
		zap.Int("models", reg.Len()),
		zap.Int("edges", len(edges)))

	gen, err := codegen.New()
	if err != nil {
		return nil, err
	}

	// Per-model artifact sets are disjoint, so render them in parallel
	// once resolution has finished. Order is restored by index.
	contexts := codegen.BuildContexts(reg, edges, codegen.Settings{
		PageSize:   opts.PageSize,
		PublicPath: opts.PublicPath,
	})
	sets := make([][]codegen.Artifact, len(contexts))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, mc := range contexts {
		i, mc := i, mc
		g.Go(func() error {
			set, err := gen.ModelArtifacts(mc)
			if err != nil {
				return fmt.Errorf("failed to generate artifacts for %s: %w", mc.Name, err)
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var artifacts []codegen.Artifact
	for _, set := range sets {
		artifacts = append(artifacts, set...)
	}
	global, err := gen.GlobalArtifacts(contexts)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, global...)

	result := &Result{RunID: runID}
	current := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		current[a.Path] = true
		changed, err := writeArtifact(opts.ProjectRoot, a)
		if err != nil {
			return nil, err
		}
		if changed {
			logger.Info("wrote artifact", zap.String("path", a.Path))
			result.Written = append(result.Written, a.Path)
		} else {
			result.Skipped = append(result.Skipped, a.Path)
		}
	}

	previous, err := LoadManifest(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if opts.Prune {
		for _, stale := range previous.Stale(current) {
			dest := filepath.Join(opts.ProjectRoot, filepath.FromSlash(stale))
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to prune %s: %w", stale, err)
			}
			logger.Info("pruned stale artifact", zap.String("path", stale))
			result.Pruned = append(result.Pruned, stale)
		}
	}

	manifest := &Manifest{Files: make([]string, 0, len(current))}
	for path := range current {
		manifest.Files = append(manifest.Files, path)
	}
	if err := manifest.Write(opts.ProjectRoot); err != nil {
		return nil, err
	}

	logger.Info("sync complete",
		zap.Int("written", len(result.Written)),
		zap.Int("unchanged", len(result.Skipped)),
		zap.Int("pruned", len(result.Pruned)))
	return result, nil
}

// writeArtifact writes one artifact if its content differs from what is on
// disk. The write goes to a temp file in the destination directory and is
// renamed into place, so a crash never leaves a truncated file.
func writeArtifact(root string, a codegen.Artifact) (bool, error) {
	dest := filepath.Join(root, filepath.FromSlash(a.Path))
	if existing, err := os.ReadFile(dest); err == nil && bytes.Equal(existing, a.Content) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, err
	}
	if err := atomicWrite(dest, a.Content); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", a.Path, err)
	}
	return true, nil
}

func atomicWrite(dest string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".onesite-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
