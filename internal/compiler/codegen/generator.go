// Package codegen renders the backend and frontend artifact sets from the
// resolved, classified registry. Rendering is pure: identical contexts
// produce byte-identical artifacts, and nothing here touches the
// filesystem; the sync orchestrator owns all writes.
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/go-openapi/inflect"

	"github.com/IronSpiderMan/OneSite/internal/schema"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Artifact is one rendered output file, with its path relative to the
// project root.
type Artifact struct {
	Path    string
	Content []byte
}

// Generator renders artifacts from parsed templates. Safe for concurrent
// use; template execution does not mutate generator state.
type Generator struct {
	templates *template.Template
}

// New parses the embedded template set.
func New() (*Generator, error) {
	funcs := template.FuncMap{
		"lower":  strings.ToLower,
		"plural": inflect.Pluralize,
		"pascal": inflect.Camelize,
	}
	t, err := template.New("codegen").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Generator{templates: t}, nil
}

// ModelArtifacts renders the per-model artifact set. Link tables only get
// their SQLModel table; they carry no schemas, routes or pages of their own.
func (g *Generator) ModelArtifacts(mc ModelContext) ([]Artifact, error) {
	artifacts := []Artifact{}

	add := func(tmpl, outPath string) error {
		content, err := g.render(tmpl, mc)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, Artifact{Path: outPath, Content: content})
		return nil
	}

	if err := add("model.py.tmpl", path.Join("backend", "app", "models", mc.LowerName+".py")); err != nil {
		return nil, err
	}
	if mc.IsLinkTable {
		return artifacts, nil
	}

	steps := []struct {
		tmpl string
		path string
	}{
		{"schema.py.tmpl", path.Join("backend", "app", "schemas", mc.LowerName+".py")},
		{"crud.py.tmpl", path.Join("backend", "app", "cruds", mc.LowerName+".py")},
		{"api.py.tmpl", path.Join("backend", "app", "api", "endpoints", mc.LowerName+".py")},
		{"service.ts.tmpl", path.Join("frontend", "src", "services", mc.LowerName+".ts")},
		{"store.ts.tmpl", path.Join("frontend", "src", "stores", "use"+mc.Name+"Store.ts")},
		{"page_list.tsx.tmpl", path.Join("frontend", "src", "pages", mc.LowerName, "index.tsx")},
		{"page_detail.tsx.tmpl", path.Join("frontend", "src", "pages", mc.LowerName, "detail.tsx")},
	}
	for _, s := range steps {
		if err := add(s.tmpl, s.path); err != nil {
			return nil, err
		}
	}
	return artifacts, nil
}

// GlobalArtifacts renders the cross-cutting registries: the API router,
// the frontend route table and the navigation menu. These are regenerated
// whole on every run, so entries replace rather than accumulate.
func (g *Generator) GlobalArtifacts(models []ModelContext) ([]Artifact, error) {
	pages := make([]ModelContext, 0, len(models))
	for _, m := range models {
		if !m.IsLinkTable {
			pages = append(pages, m)
		}
	}
	data := struct{ Models []ModelContext }{Models: pages}

	steps := []struct {
		tmpl string
		path string
	}{
		{"api_router.py.tmpl", path.Join("backend", "app", "api", "api.py")},
		{"routes.tsx.tmpl", path.Join("frontend", "src", "Routes.tsx")},
		{"menu.tsx.tmpl", path.Join("frontend", "src", "Menu.tsx")},
	}

	var artifacts []Artifact
	for _, s := range steps {
		content, err := g.render(s.tmpl, data)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{Path: s.path, Content: content})
	}
	return artifacts, nil
}

// All renders every artifact for the registry in deterministic order:
// per-model sets in registry order, then the global registries.
func (g *Generator) All(reg *schema.Registry, edges []schema.RelationshipEdge, settings Settings) ([]Artifact, error) {
	contexts := BuildContexts(reg, edges, settings)

	var artifacts []Artifact
	for _, mc := range contexts {
		set, err := g.ModelArtifacts(mc)
		if err != nil {
			return nil, fmt.Errorf("failed to generate artifacts for %s: %w", mc.Name, err)
		}
		artifacts = append(artifacts, set...)
	}

	global, err := g.GlobalArtifacts(contexts)
	if err != nil {
		return nil, err
	}
	return append(artifacts, global...), nil
}

func (g *Generator) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
