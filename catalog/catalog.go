// Package catalog holds the immutable form directory and the query filter over it.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateCategory = errors.New("duplicate category name")
	ErrDuplicateEntry    = errors.New("duplicate entry name")
	ErrInvalidCatalog    = errors.New("invalid catalog")
)

// Entry is a single external form link.
type Entry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Category groups entries under a display name.
type Category struct {
	ID      string
	Name    string
	Entries []Entry
}

type indexedCategory struct {
	Category
	folded []string
}

// Catalog is the ordered, read-only set of categories. The zero value is an empty catalog.
type Catalog struct {
	categories []indexedCategory
	digest     string
}

// New validates and copies the provided categories into a catalog.
// Category names and entry names within a category must be unique.
func New(categories ...Category) (*Catalog, error) {
	c := &Catalog{categories: make([]indexedCategory, 0, len(categories))}
	seen := make(map[string]struct{}, len(categories))
	ids := make(map[string]struct{}, len(categories))
	for i, cat := range categories {
		if _, ok := seen[cat.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, cat.Name)
		}
		seen[cat.Name] = struct{}{}

		names := make(map[string]struct{}, len(cat.Entries))
		entries := make([]Entry, len(cat.Entries))
		folded := make([]string, len(cat.Entries))
		for j, entry := range cat.Entries {
			if _, ok := names[entry.Name]; ok {
				return nil, fmt.Errorf("%w: %q in category %q", ErrDuplicateEntry, entry.Name, cat.Name)
			}
			names[entry.Name] = struct{}{}
			entries[j] = entry
			folded[j] = fold(entry.Name)
		}

		id := strings.TrimSpace(cat.ID)
		if id == "" {
			id = slugify(cat.Name)
		}
		if _, taken := ids[id]; id == "" || taken {
			id = fallbackID(ids, i+1)
		}
		ids[id] = struct{}{}

		c.categories = append(c.categories, indexedCategory{
			Category: Category{ID: id, Name: cat.Name, Entries: entries},
			folded:   folded,
		})
	}
	c.digest = c.computeDigest()
	return c, nil
}

// Categories returns a copy of every category, placeholders included.
func (c *Catalog) Categories() []Category {
	if c == nil {
		return nil
	}
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{ID: cat.ID, Name: cat.Name, Entries: append([]Entry(nil), cat.Entries...)}
	}
	return out
}

// Len reports the number of categories.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.categories)
}

// EntryCount reports the number of entries across all categories.
func (c *Catalog) EntryCount() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, cat := range c.categories {
		total += len(cat.Entries)
	}
	return total
}

// Placeholders lists the names of categories without entries.
func (c *Catalog) Placeholders() []string {
	if c == nil {
		return nil
	}
	var names []string
	for _, cat := range c.categories {
		if len(cat.Entries) == 0 {
			names = append(names, cat.Name)
		}
	}
	return names
}

// Digest is a stable content hash of the catalog.
func (c *Catalog) Digest() string {
	if c == nil || c.digest == "" {
		return (&Catalog{}).computeDigest()
	}
	return c.digest
}

func (c *Catalog) computeDigest() string {
	h := sha256.New()
	for _, cat := range c.categories {
		fmt.Fprintf(h, "c%d:%s\n", len(cat.Name), cat.Name)
		for _, entry := range cat.Entries {
			fmt.Fprintf(h, "e%d:%s%d:%s\n", len(entry.Name), entry.Name, len(entry.URL), entry.URL)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// fallbackID returns the first free positional ID, starting at category-n.
func fallbackID(taken map[string]struct{}, n int) string {
	for ; ; n++ {
		id := fmt.Sprintf("category-%d", n)
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}

func slugify(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var sb strings.Builder
	lastDash := false
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if sb.Len() == 0 || lastDash {
				continue
			}
			sb.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(sb.String(), "-")
}
