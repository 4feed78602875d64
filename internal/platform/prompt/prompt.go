// Package prompt asks the user to confirm destructive operations.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Dialog is a yes/no confirmation request. Content may contain HTML; text
// front ends strip it.
type Dialog struct {
	Title      string
	Content    string
	DefaultYes bool
	Classes    []string
}

// Terminal confirms dialogs on a line-oriented terminal. It is not safe for
// concurrent use.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	yes    string
	no     string
	strict *bluemonday.Policy

	// pending is a read left outstanding by a cancelled Confirm; the next
	// Confirm takes its line instead of starting a second reader.
	pending chan answer
}

type answer struct {
	line string
	err  error
}

// NewTerminal reads answers from in and writes prompts to out. yes and no
// are the localized answer letters (for example "y" and "n").
func NewTerminal(in io.Reader, out io.Writer, yes, no string) *Terminal {
	if yes == "" {
		yes = "y"
	}
	if no == "" {
		no = "n"
	}
	return &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		yes:    strings.ToLower(yes),
		no:     strings.ToLower(no),
		strict: bluemonday.StrictPolicy(),
	}
}

// Confirm prints the dialog and reads one answer line. An empty answer or
// end of input selects the dialog default. A cancelled ctx returns at once,
// but the blocked read stays attached to the Terminal and its line answers
// the next Confirm.
func (t *Terminal) Confirm(ctx context.Context, dialog Dialog) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	choices := t.yes + "/" + strings.ToUpper(t.no)
	if dialog.DefaultYes {
		choices = strings.ToUpper(t.yes) + "/" + t.no
	}
	if dialog.Title != "" {
		fmt.Fprintf(t.out, "%s\n", dialog.Title)
	}
	if text := PlainText(t.strict, dialog.Content); text != "" {
		fmt.Fprintf(t.out, "%s\n", text)
	}
	fmt.Fprintf(t.out, "[%s] ", choices)

	read := t.pending
	t.pending = nil
	if read == nil {
		read = make(chan answer, 1)
		go func() {
			line, err := t.in.ReadString('\n')
			read <- answer{line: line, err: err}
		}()
	}

	var got answer
	select {
	case <-ctx.Done():
		t.pending = read
		return false, ctx.Err()
	case got = <-read:
	}
	if got.err != nil && got.err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", got.err)
	}

	switch reply := strings.ToLower(strings.TrimSpace(got.line)); {
	case reply == "":
		return dialog.DefaultYes, nil
	case strings.HasPrefix(reply, t.yes):
		return true, nil
	default:
		return false, nil
	}
}

// Fixed answers every dialog with the same value, for non-interactive runs.
type Fixed bool

// Confirm returns the fixed answer.
func (f Fixed) Confirm(ctx context.Context, _ Dialog) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(f), nil
}

// PlainText strips markup from html and joins its lines with single line
// breaks.
func PlainText(policy *bluemonday.Policy, content string) string {
	// Paragraph boundaries survive as line breaks.
	content = strings.NewReplacer("</p>", "</p>\n", "<br>", "\n", "<br/>", "\n").Replace(content)
	stripped := html.UnescapeString(policy.Sanitize(content))
	lines := strings.Split(stripped, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
