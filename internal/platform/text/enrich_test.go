package text

import (
	"context"
	"strings"
	"testing"
)

func TestEnrichRendersMarkdown(t *testing.T) {
	t.Parallel()

	got, err := NewEnricher().Enrich(context.Background(), "Deal **extra** damage.")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if want := "<p>Deal <strong>extra</strong> damage.</p>"; strings.TrimSpace(got) != want {
		t.Fatalf("Enrich() = %q, want %q", got, want)
	}
}

func TestEnrichBlank(t *testing.T) {
	t.Parallel()

	got, err := NewEnricher().Enrich(context.Background(), "")
	if err != nil || got != "" {
		t.Fatalf("Enrich(\"\") = %q, %v", got, err)
	}
}

func TestEnrichStripsScripts(t *testing.T) {
	t.Parallel()

	got, err := NewEnricher().Enrich(context.Background(), "Hi<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if strings.Contains(got, "<script") || strings.Contains(got, "alert(1)") && strings.Contains(got, "script") {
		t.Fatalf("expected script to be removed, got %q", got)
	}
}

func TestEnrichLinksReferences(t *testing.T) {
	t.Parallel()

	got, err := NewEnricher().Enrich(context.Background(), "See @UUID[Item.abc123]{Guard} and @UUID[Item.xyz].")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if !strings.Contains(got, `<span class="content-link" data-uuid="Item.abc123">Guard</span>`) {
		t.Fatalf("expected labelled link, got %q", got)
	}
	if !strings.Contains(got, `data-uuid="Item.xyz">Item.xyz</span>`) {
		t.Fatalf("expected unlabelled link, got %q", got)
	}
}

func TestEnrichCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEnricher().Enrich(ctx, "x"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestEnrichFiltersAuthoredHTML(t *testing.T) {
	t.Parallel()

	got, err := NewEnricher().Enrich(context.Background(),
		`<span class="evil" onclick="steal()">Boo</span> <span class="content-link" data-uuid="bad uuid!">X</span>`)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	for _, banned := range []string{"onclick", "steal()", "evil", "bad uuid!"} {
		if strings.Contains(got, banned) {
			t.Fatalf("Enrich() kept %q: %q", banned, got)
		}
	}
	if !strings.Contains(got, "Boo") || !strings.Contains(got, `class="content-link"`) {
		t.Fatalf("Enrich() dropped allowed content: %q", got)
	}
}
