// Package output resolves where a recording is written.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eleven-am/movierec/internal/domain"
)

// Path expands a file name template against a session. Relative templates
// resolve against Root.
type Path struct {
	Root       string
	Template   string
	Format     domain.OutputFormat
	AssetRoots []string
}

func NewPath(root, template string, format domain.OutputFormat, assetRoots ...string) *Path {
	return &Path{
		Root:       root,
		Template:   template,
		Format:     format,
		AssetRoots: assetRoots,
	}
}

func (p *Path) AbsolutePath(session *domain.Session) string {
	r := strings.NewReplacer(
		"{session}", session.ID,
		"{ext}", p.Format.Extension(),
	)
	name := filepath.Clean(r.Replace(p.Template))
	if !filepath.IsAbs(name) {
		name = filepath.Join(p.root(), name)
	}
	return name
}

func (p *Path) CreateDirectory(session *domain.Session) error {
	dir := filepath.Dir(p.AbsolutePath(session))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// InAssetTree reports whether the output file lies under one of the asset
// roots.
func (p *Path) InAssetTree(session *domain.Session) bool {
	file := p.AbsolutePath(session)
	for _, root := range p.AssetRoots {
		rel, err := filepath.Rel(p.resolve(root), file)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (p *Path) root() string {
	if p.Root == "" {
		wd, _ := os.Getwd()
		return wd
	}
	abs, err := filepath.Abs(p.Root)
	if err != nil {
		return filepath.Clean(p.Root)
	}
	return abs
}

func (p *Path) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(p.root(), dir)
}
