package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

func TestTerminalConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "yes word", input: "Yes\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "other", input: "maybe\n", want: false},
		{name: "empty uses default no", input: "\n", want: false},
		{name: "empty uses default yes", input: "\n", defaultYes: true, want: true},
		{name: "eof uses default", input: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			terminal := NewTerminal(strings.NewReader(tt.input), &out, "y", "n")
			got, err := terminal.Confirm(context.Background(), Dialog{Title: "Title", DefaultYes: tt.defaultYes})
			if err != nil {
				t.Fatalf("confirm: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Confirm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTerminalConfirmPrintsPlainContent(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	terminal := NewTerminal(strings.NewReader("n\n"), &out, "s", "n")
	_, err := terminal.Confirm(context.Background(), Dialog{
		Title:   "Regenerar FUID",
		Content: `<div class="warning-message"><p>First</p><p>Second</p></div>`,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	want := "Regenerar FUID\nFirst\nSecond\n[s/N] "
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestTerminalConfirmLocalizedYes(t *testing.T) {
	t.Parallel()

	terminal := NewTerminal(strings.NewReader("sim\n"), &bytes.Buffer{}, "s", "n")
	got, err := terminal.Confirm(context.Background(), Dialog{})
	if err != nil || !got {
		t.Fatalf("Confirm() = %v, %v", got, err)
	}
}

func TestTerminalConfirmCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	terminal := NewTerminal(strings.NewReader("y\n"), &bytes.Buffer{}, "y", "n")
	if _, err := terminal.Confirm(ctx, Dialog{}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestTerminalConfirmKeepsAnswerAfterTimeout(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })
	terminal := NewTerminal(reader, io.Discard, "y", "n")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := terminal.Confirm(ctx, Dialog{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Confirm() error = %v, want deadline exceeded", err)
	}

	go func() { _, _ = io.WriteString(writer, "y\n") }()
	got, err := terminal.Confirm(context.Background(), Dialog{})
	if err != nil || !got {
		t.Fatalf("Confirm() after timeout = %v, %v, want true", got, err)
	}
}

func TestFixed(t *testing.T) {
	t.Parallel()

	for _, want := range []bool{true, false} {
		got, err := Fixed(want).Confirm(context.Background(), Dialog{})
		if err != nil || got != want {
			t.Fatalf("Fixed(%v).Confirm() = %v, %v", want, got, err)
		}
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	got := PlainText(bluemonday.StrictPolicy(), "\n  <p>Hello   <b>there</b></p>\n<p></p><br>world ")
	if got != "Hello there\nworld" {
		t.Fatalf("PlainText() = %q", got)
	}
}
