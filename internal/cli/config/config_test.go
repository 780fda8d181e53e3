package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "models", cfg.ModelsDir)
	assert.Equal(t, "backend", cfg.Backend.Dir)
	assert.Equal(t, 8000, cfg.Backend.Port)
	assert.Equal(t, "frontend", cfg.Frontend.Dir)
	assert.Equal(t, 5173, cfg.Frontend.Port)
	assert.Equal(t, 10, cfg.Sync.PageSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := inTempDir(t)

	yml := `
project_name: blog
models_dir: schema
backend:
  port: 9000
sync:
  page_size: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.yml"), []byte(yml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "blog", cfg.ProjectName)
	assert.Equal(t, "schema", cfg.ModelsDir)
	assert.Equal(t, 9000, cfg.Backend.Port)
	assert.Equal(t, 5173, cfg.Frontend.Port)
	assert.Equal(t, 25, cfg.Sync.PageSize)
}

func TestLoadRejectsBadPort(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.yml"), []byte("backend:\n  port: 99999\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend port")
}

func TestGetProjectRoot(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.yml"), []byte("project_name: t\n"), 0o644))

	nested := filepath.Join(dir, "backend", "app")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.Chdir(nested))

	root, err := GetProjectRoot()
	require.NoError(t, err)
	resolved, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, resolved, got)
}

func TestGetProjectRootNotFound(t *testing.T) {
	inTempDir(t)
	_, err := GetProjectRoot()
	require.Error(t, err)
}
