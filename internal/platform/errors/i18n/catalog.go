// Package i18n renders localized user-facing messages for domain error codes.
//
// Templates live in the "errors" namespace of the embedded message catalog
// and are executed with the error's metadata, for example
// "Unknown feature type \"{{.Key}}\"".
package i18n

import (
	"strings"
	"sync"
	"text/template"

	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
	i18ncatalog "github.com/louisbranch/featurebook/internal/platform/i18n/catalog"
)

const namespace = "errors"

// Catalog holds the parsed error templates of one locale.
type Catalog struct {
	locale    string
	raw       map[string]string
	templates map[string]*template.Template
}

var catalogs sync.Map // resolved locale -> *Catalog

// GetCatalog returns the catalog closest to locale. Unknown or blank
// locales get the base locale; codes a locale does not translate use the
// base template.
func GetCatalog(locale string) *Catalog {
	bundle := i18ncatalog.Default()
	resolved := bundle.Match(strings.TrimSpace(locale))
	if cached, ok := catalogs.Load(resolved); ok {
		return cached.(*Catalog)
	}

	_, messages := bundle.NamespaceMessagesWithFallback(resolved, namespace)
	if resolved != i18ncatalog.BaseLocale {
		_, base := bundle.NamespaceMessagesWithFallback(i18ncatalog.BaseLocale, namespace)
		for code, text := range base {
			if _, ok := messages[code]; !ok {
				messages[code] = text
			}
		}
	}
	actual, _ := catalogs.LoadOrStore(resolved, NewCatalog(resolved, messages))
	return actual.(*Catalog)
}

// NewCatalog parses messages as templates keyed by error code. A message
// that is not a valid template is kept and printed verbatim.
func NewCatalog(locale string, messages map[string]string) *Catalog {
	c := &Catalog{
		locale:    locale,
		raw:       make(map[string]string, len(messages)),
		templates: make(map[string]*template.Template, len(messages)),
	}
	for code, text := range messages {
		c.raw[code] = text
		if tmpl, err := template.New(code).Option("missingkey=zero").Parse(text); err == nil {
			c.templates[code] = tmpl
		}
	}
	return c
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the template for code with metadata. Unknown codes render
// as the code itself.
func (c *Catalog) Format(code string, metadata map[string]string) string {
	text, ok := c.raw[code]
	if !ok {
		return code
	}
	tmpl, ok := c.templates[code]
	if !ok {
		return text
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, metadata); err != nil {
		return text
	}
	return out.String()
}

// Localize returns the user-facing text of err in locale. Errors without a
// domain code are reported verbatim.
func Localize(locale string, err error) string {
	if err == nil {
		return ""
	}
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		return err.Error()
	}
	return GetCatalog(locale).Format(string(code), apperrors.MetadataOf(err))
}
