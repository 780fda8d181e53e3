package syncer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IronSpiderMan/OneSite/internal/compiler/resolve"
)

func writeModels(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func syncProject(t *testing.T, models map[string]string, prune bool) (*Result, string, error) {
	t.Helper()
	root := t.TempDir()
	modelsDir := filepath.Join(root, "models")
	writeModels(t, modelsDir, models)
	res, err := Sync(context.Background(), Options{
		ModelsDir:   modelsDir,
		ProjectRoot: root,
		Prune:       prune,
	})
	return res, root, err
}

const postModel = `
model Post {
  id: int @pk
  title: string
}
`

func TestSyncWritesArtifacts(t *testing.T) {
	res, root, err := syncProject(t, map[string]string{"post.site": postModel}, false)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.NotEmpty(t, res.Written)
	assert.Empty(t, res.Skipped)

	for _, path := range []string{
		"backend/app/models/post.py",
		"backend/app/schemas/post.py",
		"backend/app/api/api.py",
		"frontend/src/pages/post/index.tsx",
		"frontend/src/Routes.tsx",
	} {
		_, err := os.Stat(filepath.Join(root, path))
		assert.NoError(t, err, path)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	root := t.TempDir()
	modelsDir := filepath.Join(root, "models")
	writeModels(t, modelsDir, map[string]string{"post.site": postModel})
	opts := Options{ModelsDir: modelsDir, ProjectRoot: root}

	first, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	require.NotEmpty(t, first.Written)

	before, err := os.ReadFile(filepath.Join(root, "backend/app/models/post.py"))
	require.NoError(t, err)

	second, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, second.Written, "second run must not rewrite unchanged files")
	assert.NotEmpty(t, second.Skipped)

	after, err := os.ReadFile(filepath.Join(root, "backend/app/models/post.py"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestSyncFailsFastBeforeWriting(t *testing.T) {
	root := t.TempDir()
	modelsDir := filepath.Join(root, "models")
	writeModels(t, modelsDir, map[string]string{"post.site": postModel})
	opts := Options{ModelsDir: modelsDir, ProjectRoot: root}

	_, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(root, "backend/app/models/post.py"))
	require.NoError(t, err)

	// A broken link table must abort the run and leave the tree untouched
	writeModels(t, modelsDir, map[string]string{"bad.site": `
model PostExtra @link_table {
  post_id: int @pk @fk(Post.id)
}
`})

	_, err = Sync(context.Background(), opts)
	require.Error(t, err)
	var lte *resolve.LinkTableError
	assert.True(t, errors.As(err, &lte))

	after, err := os.ReadFile(filepath.Join(root, "backend/app/models/post.py"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	_, err = os.Stat(filepath.Join(root, "backend/app/models/postextra.py"))
	assert.True(t, os.IsNotExist(err), "no artifact may be written for a failed run")
}

func TestSyncPrunesRemovedModels(t *testing.T) {
	root := t.TempDir()
	modelsDir := filepath.Join(root, "models")
	writeModels(t, modelsDir, map[string]string{
		"post.site": postModel,
		"tag.site":  "model Tag { id: int @pk name: string }",
	})
	opts := Options{ModelsDir: modelsDir, ProjectRoot: root, Prune: true}

	_, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "backend/app/models/tag.py"))
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(modelsDir, "tag.site")))

	res, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, res.Pruned, "backend/app/models/tag.py")
	assert.Contains(t, res.Pruned, "frontend/src/pages/tag/index.tsx")

	_, err = os.Stat(filepath.Join(root, "backend/app/models/tag.py"))
	assert.True(t, os.IsNotExist(err))
}

func TestSyncWithoutPruneKeepsStaleFiles(t *testing.T) {
	root := t.TempDir()
	modelsDir := filepath.Join(root, "models")
	writeModels(t, modelsDir, map[string]string{
		"post.site": postModel,
		"tag.site":  "model Tag { id: int @pk name: string }",
	})
	opts := Options{ModelsDir: modelsDir, ProjectRoot: root}

	_, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(modelsDir, "tag.site")))

	res, err := Sync(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, res.Pruned)
	_, err = os.Stat(filepath.Join(root, "backend/app/models/tag.py"))
	assert.NoError(t, err, "stale files stay without --prune")
}

func TestManifestIsSorted(t *testing.T) {
	_, root, err := syncProject(t, map[string]string{"post.site": postModel}, false)
	require.NoError(t, err)

	m, err := LoadManifest(root)
	require.NoError(t, err)
	require.NotEmpty(t, m.Files)
	assert.True(t, sort.StringsAreSorted(m.Files))
	assert.Contains(t, m.Files, "backend/app/models/post.py")
}

func TestLoadManifestMissing(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, m.Files)
}
