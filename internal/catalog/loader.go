package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"codearena/pkg/utils/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed problems/default.yaml
var defaultCatalogYAML []byte

// catalogFile is the on-disk YAML shape: a flat list of templates.
type catalogFile struct {
	Challenges []Template `yaml:"challenges"`
}

// Default returns the built-in challenge set.
func Default() (*Catalog, error) {
	templates, err := parseFile(defaultCatalogYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return New(templates)
}

// LoadDir loads every *.yaml / *.yml file in dir and merges their
// challenge lists in file-name order.
func LoadDir(ctx context.Context, dir string) (*Catalog, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files in %s", dir)
	}

	var templates []Template
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		parsed, err := parseFile(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		templates = append(templates, parsed...)
	}

	logger.Info(ctx, "catalog loaded",
		zap.Int("files", len(files)),
		zap.Int("challenges", len(templates)),
	)
	return New(templates)
}

func parseFile(data []byte) ([]Template, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(f.Challenges) == 0 {
		return nil, fmt.Errorf("no challenges defined")
	}
	return f.Challenges, nil
}
