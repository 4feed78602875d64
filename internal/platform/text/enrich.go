// Package text enriches authored item descriptions for display: Markdown is
// rendered to HTML, document references become inline links, and the result
// is sanitized.
package text

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// referencePattern matches @UUID[Item.abc]{Label} document references.
var referencePattern = regexp.MustCompile(`@UUID\[([A-Za-z0-9._-]+)\](?:\{([^}]*)\})?`)

// Enricher renders raw descriptions to sanitized HTML. It is safe for
// concurrent use.
type Enricher struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewEnricher builds an Enricher with GitHub-flavoured Markdown and a
// user-generated-content sanitization policy. Raw HTML passes through the
// Markdown renderer so reference spans survive; the policy filters it.
func NewEnricher() *Enricher {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^content-link$`)).OnElements("span")
	policy.AllowAttrs("data-uuid").Matching(regexp.MustCompile(`^[A-Za-z0-9._-]+$`)).OnElements("span")
	return &Enricher{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy:   policy,
	}
}

// Enrich converts raw to display HTML. Blank input yields "".
func (e *Enricher) Enrich(ctx context.Context, raw string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if raw == "" {
		return "", nil
	}
	linked := referencePattern.ReplaceAllStringFunc(raw, func(match string) string {
		parts := referencePattern.FindStringSubmatch(match)
		label := parts[2]
		if label == "" {
			label = parts[1]
		}
		return fmt.Sprintf(`<span class="content-link" data-uuid="%s">%s</span>`, parts[1], html.EscapeString(label))
	})

	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(linked), &buf); err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	return e.policy.Sanitize(buf.String()), nil
}
