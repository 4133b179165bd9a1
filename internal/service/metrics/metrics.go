// Package metrics reads category metric bundles written by external analyzers.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/panbanda/qscore/pkg/models"
	"gopkg.in/yaml.v3"
)

// extensions are tried in order for each category file.
var extensions = []string{".json", ".yaml", ".yml"}

// FileProvider loads one category's bundle from <dir>/<category>.json,
// .yaml or .yml. A missing file yields a nil bundle and no error.
type FileProvider struct {
	dir      string
	category models.Category
}

// NewFileProvider creates a provider for a category.
func NewFileProvider(dir string, cat models.Category) *FileProvider {
	return &FileProvider{dir: dir, category: cat}
}

// FileProviders returns one provider per scored category.
func FileProviders(dir string) map[models.Category]*FileProvider {
	out := make(map[models.Category]*FileProvider, len(models.Categories))
	for _, cat := range models.Categories {
		out[cat] = NewFileProvider(dir, cat)
	}
	return out
}

// Category returns the category the provider loads.
func (p *FileProvider) Category() models.Category {
	return p.category
}

// Path returns the first existing bundle file, or "" when there is none.
func (p *FileProvider) Path() string {
	for _, ext := range extensions {
		path := filepath.Join(p.dir, string(p.category)+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Collect reads and decodes the bundle file. The file list is not used; the
// external analyzer has already looked at the sources.
func (p *FileProvider) Collect(ctx context.Context, _ []string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := p.Path()
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	bundle := newBundle(p.category)
	if bundle == nil {
		return nil, fmt.Errorf("unknown category %q", p.category)
	}
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, bundle)
	} else {
		err = yaml.Unmarshal(data, bundle)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return bundle, nil
}

func newBundle(cat models.Category) any {
	switch cat {
	case models.CategoryCodeQuality:
		return &models.CodeQualityMetrics{}
	case models.CategoryTestCoverage:
		return &models.TestCoverageMetrics{}
	case models.CategoryArchitecture:
		return &models.ArchitectureMetrics{}
	case models.CategorySecurity:
		return &models.SecurityMetrics{}
	default:
		return nil
	}
}
