package index

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/reoring/goserde"
)

// Project describes the workspace an index belongs to. Paths under Root are
// persisted relative to it so artifacts survive moving the checkout.
type Project struct {
	Root string
}

type projectKey struct{}

// WithProject returns a context carrying p.
func WithProject(ctx context.Context, p Project) context.Context {
	return context.WithValue(ctx, projectKey{}, p)
}

// ProjectFrom returns the Project carried by ctx, if any.
func ProjectFrom(ctx context.Context) (Project, bool) {
	if ctx == nil {
		return Project{}, false
	}
	p, ok := ctx.Value(projectKey{}).(Project)
	return p, ok && p.Root != ""
}

// Relativize returns path relative to the project root when it lies under it.
func (p Project) Relativize(path string) string {
	if p.Root == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Resolve is the inverse of Relativize.
func (p Project) Resolve(path string) string {
	if p.Root == "" || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, filepath.FromSlash(path))
}

// projectPath binds a path string that is stored relative to the project root
// found in the visitor's context.
type projectPath struct{ p *string }

func ProjectPath(p *string) goserde.Reflector { return projectPath{p: p} }

func (pp projectPath) Read(r goserde.Reader) error {
	s, err := r.GetString()
	if err != nil {
		return err
	}
	if proj, ok := ProjectFrom(r.Context()); ok {
		s = proj.Resolve(s)
	}
	*pp.p = s
	return nil
}

func (pp projectPath) Write(w goserde.Writer) error {
	s := *pp.p
	if proj, ok := ProjectFrom(w.Context()); ok {
		s = proj.Relativize(s)
	}
	w.String(s)
	return nil
}
