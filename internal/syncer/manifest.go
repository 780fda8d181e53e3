package syncer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// manifestPath is where the generated-file manifest lives, relative to the
// project root.
const manifestPath = ".onesite/manifest.yaml"

// Manifest records the files the last sync generated. It exists solely so
// a later run can prune artifacts whose models were renamed or removed;
// it carries no content hashes, keeping repeated syncs byte-identical.
type Manifest struct {
	Files []string `yaml:"files"`
}

// LoadManifest reads the manifest from the project root. A missing
// manifest is not an error; it just means nothing can be pruned.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(manifestPath)))
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Write saves the manifest with a sorted file list, atomically.
func (m *Manifest) Write(root string) error {
	sort.Strings(m.Files)
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	dest := filepath.Join(root, filepath.FromSlash(manifestPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return atomicWrite(dest, data)
}

// Stale returns the files present in the manifest but absent from the
// current artifact set, sorted.
func (m *Manifest) Stale(current map[string]bool) []string {
	var stale []string
	for _, f := range m.Files {
		if !current[f] {
			stale = append(stale, f)
		}
	}
	sort.Strings(stale)
	return stale
}
