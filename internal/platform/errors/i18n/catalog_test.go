package i18n

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
)

func TestGetCatalogMatchesLocale(t *testing.T) {
	t.Parallel()
	tests := []struct {
		requested string
		want      string
	}{
		{requested: "", want: "en-US"},
		{requested: "en-US", want: "en-US"},
		{requested: "pt", want: "pt-BR"},
		{requested: "not a locale", want: "en-US"},
	}
	for _, tc := range tests {
		if got := GetCatalog(tc.requested).Locale(); got != tc.want {
			t.Fatalf("GetCatalog(%q).Locale() = %q, want %q", tc.requested, got, tc.want)
		}
	}
	if GetCatalog("en-US") != GetCatalog("") {
		t.Fatal("expected catalogs to be cached per resolved locale")
	}
}

func TestPartialLocaleInheritsBaseTemplates(t *testing.T) {
	t.Parallel()
	cat := GetCatalog("pt-BR")
	if got := cat.Format("NOT_FOUND", map[string]string{"ID": "abc"}); got != `Item "abc" não encontrado` {
		t.Fatalf("translated Format() = %q", got)
	}
	if got := cat.Format("ITEM_EMPTY_NAME", nil); got != "Item name cannot be empty" {
		t.Fatalf("inherited Format() = %q", got)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()
	cat := NewCatalog("test", map[string]string{
		"greet":  "hello {{.Name}}",
		"broken": "{{ if .Name }}",
	})
	tests := []struct {
		name     string
		code     string
		metadata map[string]string
		want     string
	}{
		{name: "metadata", code: "greet", metadata: map[string]string{"Name": "Ana"}, want: "hello Ana"},
		{name: "missing metadata", code: "greet", want: "hello "},
		{name: "unknown code", code: "nope", want: "nope"},
		{name: "invalid template", code: "broken", metadata: map[string]string{"Name": "X"}, want: "{{ if .Name }}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := cat.Format(tc.code, tc.metadata); got != tc.want {
				t.Fatalf("Format(%q) = %q, want %q", tc.code, got, tc.want)
			}
		})
	}
}

func TestLocalize(t *testing.T) {
	t.Parallel()
	coded := apperrors.WithMetadata(apperrors.CodeFeatureUnknownType, "unknown feature type", map[string]string{"Key": "spell"})
	wrapped := fmt.Errorf("set type: %w", coded)

	if got := Localize("en-US", wrapped); got != `Unknown feature type "spell"` {
		t.Fatalf("Localize(en-US) = %q", got)
	}
	if got := Localize("pt-BR", wrapped); got != `Tipo de característica desconhecido "spell"` {
		t.Fatalf("Localize(pt-BR) = %q", got)
	}
	if got := Localize("en-US", errors.New("disk full")); got != "disk full" {
		t.Fatalf("Localize(plain) = %q", got)
	}
	if got := Localize("en-US", nil); got != "" {
		t.Fatalf("Localize(nil) = %q", got)
	}
}
