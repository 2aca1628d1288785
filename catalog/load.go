package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalogYAML []byte

// Default returns the catalog bundled with the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("bundled catalog: %v", err))
	}
	return c
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML mapping of category name to a mapping of entry name to URL.
// Document order is kept. Repeated category or entry names are rejected rather
// than collapsed.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return New()
		}
		root = root.Content[0]
	}
	root = resolve(root)
	if root.Kind == 0 || isNull(root) {
		return New()
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: top level must be a mapping of categories", ErrInvalidCatalog, root.Line)
	}

	categories := make([]Category, 0, len(root.Content)/2)
	seen := make(map[string]int, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := resolve(root.Content[i]), resolve(root.Content[i+1])
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: category name must be a scalar", ErrInvalidCatalog, key.Line)
		}
		if first, ok := seen[key.Value]; ok {
			return nil, fmt.Errorf("%w: %q on line %d (first defined on line %d)", ErrDuplicateCategory, key.Value, key.Line, first)
		}
		seen[key.Value] = key.Line

		entries, err := parseEntries(key.Value, value)
		if err != nil {
			return nil, err
		}
		categories = append(categories, Category{Name: key.Value, Entries: entries})
	}
	return New(categories...)
}

func parseEntries(category string, node *yaml.Node) ([]Entry, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: category %q must map form names to URLs", ErrInvalidCatalog, node.Line, category)
	}
	entries := make([]Entry, 0, len(node.Content)/2)
	seen := make(map[string]int, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := resolve(node.Content[i]), resolve(node.Content[i+1])
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: form name in %q must be a scalar", ErrInvalidCatalog, key.Line, category)
		}
		if value.Kind != yaml.ScalarNode || isNull(value) {
			return nil, fmt.Errorf("%w: line %d: form %q in %q needs a URL", ErrInvalidCatalog, value.Line, key.Value, category)
		}
		if first, ok := seen[key.Value]; ok {
			return nil, fmt.Errorf("%w: %q in category %q on line %d (first defined on line %d)", ErrDuplicateEntry, key.Value, category, key.Line, first)
		}
		seen[key.Value] = key.Line
		entries = append(entries, Entry{Name: key.Value, URL: value.Value})
	}
	return entries, nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}
