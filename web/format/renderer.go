package format

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Renderer turns raw answer text into HTML.
type Renderer func(text string) string

// Renderer names accepted by Lookup.
const (
	RendererDialect    = "dialect"
	RendererCommonMark = "commonmark"
)

var renderers = map[string]Renderer{
	RendererDialect:    FormatText,
	RendererCommonMark: Markdown,
}

// Lookup returns the renderer registered under name. An empty name selects
// the dialect renderer.
func Lookup(name string) (Renderer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = RendererDialect
	}
	r, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown renderer %q (available: %s)", name, strings.Join(RendererNames(), ", "))
	}
	return r, nil
}

// RendererNames lists the registered renderer names in sorted order.
func RendererNames() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^` + TableClass + `$`)).OnElements("table")
	return p
}

// Sanitize strips anything from rendered HTML that is unsafe to place in a
// page, keeping the markup the renderers emit.
func Sanitize(rendered string) string {
	return policy.Sanitize(rendered)
}
