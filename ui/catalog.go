package ui

import (
	"fmt"
	"sort"
	"strings"

	"docchat/web/types"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	// DefaultModelID is selected after loading when it is available.
	DefaultModelID = "openai/gpt-oss-20b:free"

	// MaxResults caps the number of models shown in the dropdown.
	MaxResults = 10
)

// Catalog is an immutable, name-sorted snapshot of the model list.
type Catalog struct {
	models []types.Model
	keys   []string // lowercased "name id" per model, for fuzzy search
	fuzzy  bool
}

// NewCatalog copies models and sorts them by name using locale collation.
// With fuzzyMatch, Filter ranks by fuzzy score instead of substring match.
func NewCatalog(models []types.Model, fuzzyMatch bool) *Catalog {
	sorted := append([]types.Model(nil), models...)
	col := collate.New(language.Und)
	sort.SliceStable(sorted, func(i, j int) bool {
		return col.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})

	keys := make([]string, len(sorted))
	for i, m := range sorted {
		keys[i] = strings.ToLower(m.Name + " " + m.ID)
	}
	return &Catalog{models: sorted, keys: keys, fuzzy: fuzzyMatch}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.models)
}

// Initial returns the first MaxResults models.
func (c *Catalog) Initial() []types.Model {
	if c == nil {
		return nil
	}
	return head(c.models)
}

// Filter returns up to MaxResults models matching query. The query is
// trimmed and lowercased; an empty query behaves like Initial.
func (c *Catalog) Filter(query string) []types.Model {
	if c == nil {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.Initial()
	}
	if c.fuzzy {
		return c.fuzzyFilter(q)
	}

	var out []types.Model
	for _, m := range c.models {
		if strings.Contains(strings.ToLower(m.Name), q) || strings.Contains(strings.ToLower(m.ID), q) {
			out = append(out, m)
			if len(out) == MaxResults {
				break
			}
		}
	}
	return out
}

func (c *Catalog) fuzzyFilter(q string) []types.Model {
	matches := fuzzy.Find(q, c.keys)
	out := make([]types.Model, 0, min(len(matches), MaxResults))
	for _, m := range matches {
		out = append(out, c.models[m.Index])
		if len(out) == MaxResults {
			break
		}
	}
	return out
}

// Find looks a model up by id.
func (c *Catalog) Find(id string) (types.Model, bool) {
	if c == nil {
		return types.Model{}, false
	}
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return types.Model{}, false
}

// Label is the text placed in the search box for a selected model.
func Label(m types.Model) string {
	return fmt.Sprintf("%s (%s)", m.Name, m.ID)
}

func head(models []types.Model) []types.Model {
	n := min(len(models), MaxResults)
	return append([]types.Model(nil), models[:n]...)
}
