package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Section is one category of a filtered view. It always holds at least one entry.
type Section struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// FilteredCatalog is the subset of a catalog visible for a query.
type FilteredCatalog struct {
	Query    string    `json:"query"`
	Sections []Section `json:"sections"`
}

// Filter returns the categories and entries whose names contain query, compared
// case-folded. The query is not trimmed. Categories left without entries are
// dropped and the catalog order is kept.
func Filter(c *Catalog, query string) FilteredCatalog {
	result := FilteredCatalog{Query: query, Sections: []Section{}}
	if c == nil {
		return result
	}
	needle := fold(query)
	for _, cat := range c.categories {
		var matched []Entry
		for i, entry := range cat.Entries {
			if strings.Contains(cat.folded[i], needle) {
				matched = append(matched, entry)
			}
		}
		if len(matched) == 0 {
			continue
		}
		result.Sections = append(result.Sections, Section{ID: cat.ID, Name: cat.Name, Entries: matched})
	}
	return result
}

// Empty reports whether nothing matched.
func (f FilteredCatalog) Empty() bool {
	return len(f.Sections) == 0
}

// EntryCount reports the number of matched entries.
func (f FilteredCatalog) EntryCount() int {
	total := 0
	for _, section := range f.Sections {
		total += len(section.Entries)
	}
	return total
}

// Catalog turns the filtered view back into a catalog, keeping section IDs.
func (f FilteredCatalog) Catalog() *Catalog {
	categories := make([]Category, len(f.Sections))
	for i, section := range f.Sections {
		categories[i] = Category{ID: section.ID, Name: section.Name, Entries: section.Entries}
	}
	c, err := New(categories...)
	if err != nil {
		// sections come from a validated catalog
		panic(err)
	}
	return c
}

// NoMatches reports whether a non-empty query produced an empty result.
func NoMatches(f FilteredCatalog) bool {
	return f.Query != "" && f.Empty()
}

func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}
