// Package check posts item checks to the chat log: the generic display card
// and accuracy rolls.
package check

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/louisbranch/featurebook/internal/platform/id"
	"github.com/louisbranch/featurebook/internal/services/item/domain/actor"
	"github.com/louisbranch/featurebook/internal/services/item/domain/classfeature"
	"github.com/louisbranch/featurebook/internal/services/item/render"
	"github.com/louisbranch/featurebook/internal/services/item/storage"
	"golang.org/x/text/message"
)

const (
	// CheckDisplay is the check type of the generic item card.
	CheckDisplay = "display"
	// CheckAccuracy is the check type of an accuracy roll.
	CheckAccuracy = "accuracy"
)

//go:embed templates/*.html
var templateFS embed.FS

// MessagePoster appends messages to the chat log.
type MessagePoster interface {
	PostMessage(ctx context.Context, message storage.ChatMessage) error
}

// Displayer renders item check cards from the render pipeline and posts
// them to the chat log.
type Displayer struct {
	pipeline  *render.Pipeline
	poster    MessagePoster
	printer   *message.Printer
	templates *template.Template
	newID     func() (string, error)
	now       func() time.Time
}

// NewDisplayer builds a displayer that renders with pipeline and posts
// through poster.
func NewDisplayer(pipeline *render.Pipeline, poster MessagePoster, printer *message.Printer) (*Displayer, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("render pipeline is required")
	}
	if poster == nil {
		return nil, fmt.Errorf("message poster is required")
	}
	if printer == nil {
		return nil, fmt.Errorf("printer is required")
	}
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse check templates: %w", err)
	}
	return &Displayer{
		pipeline:  pipeline,
		poster:    poster,
		printer:   printer,
		templates: templates,
		newID:     id.NewID,
		now:       time.Now,
	}, nil
}

// Display posts the generic card of item.
func (d *Displayer) Display(ctx context.Context, owner *actor.Actor, item *classfeature.Feature) error {
	_, err := d.post(ctx, CheckDisplay, owner, item, nil)
	return err
}

// DisplayAccuracy posts the card of item with an accuracy result.
func (d *Displayer) DisplayAccuracy(ctx context.Context, owner *actor.Actor, item *classfeature.Feature, result AccuracyResult) error {
	_, err := d.post(ctx, CheckAccuracy, owner, item, &result)
	return err
}

type cardView struct {
	Type     string
	Title    string
	Accuracy *accuracyView
	Sections []template.HTML
}

type accuracyView struct {
	AccuracyResult
	Label        string
	OutcomeLabel string
	Class        string
}

type descriptionView struct {
	CollapseDescriptions bool
	Summary              string
	Description          template.HTML
}

func (d *Displayer) post(ctx context.Context, checkType string, owner *actor.Actor, item *classfeature.Feature, result *AccuracyResult) (storage.ChatMessage, error) {
	if item == nil {
		return storage.ChatMessage{}, fmt.Errorf("item is required")
	}
	title := d.printer.Sprintf("FU.Check.Title", item.Name)
	sections, err := d.pipeline.Render(ctx, render.EventRenderCheck, render.Check{Type: checkType, Title: title}, owner, item)
	if err != nil {
		return storage.ChatMessage{}, fmt.Errorf("render %s check for item %s: %w", checkType, item.ID, err)
	}

	card := cardView{Type: checkType, Title: title}
	if result != nil {
		card.Accuracy = d.accuracyView(*result)
	}
	for _, section := range sections {
		rendered, err := d.renderSection(section)
		if err != nil {
			return storage.ChatMessage{}, err
		}
		card.Sections = append(card.Sections, rendered)
	}
	var buf bytes.Buffer
	if err := d.templates.ExecuteTemplate(&buf, "chat-card", card); err != nil {
		return storage.ChatMessage{}, fmt.Errorf("render chat card: %w", err)
	}

	messageID, err := d.newID()
	if err != nil {
		return storage.ChatMessage{}, err
	}
	msg := storage.ChatMessage{
		ID:          messageID,
		SpeakerName: owner.DisplayName(item.Name),
		Flavor:      title,
		Content:     buf.String(),
		CreatedAt:   d.now().UTC(),
	}
	if owner != nil {
		msg.SpeakerID = owner.ID
	}
	if err := d.poster.PostMessage(ctx, msg); err != nil {
		return storage.ChatMessage{}, fmt.Errorf("post %s check for item %s: %w", checkType, item.ID, err)
	}
	return msg, nil
}

func (d *Displayer) renderSection(section render.Section) (template.HTML, error) {
	tmpl := d.templates.Lookup(section.Template)
	if tmpl == nil {
		return "", fmt.Errorf("unknown section template %q", section.Template)
	}
	view := descriptionView{
		CollapseDescriptions: section.Data.CollapseDescriptions,
		Summary:              section.Data.Summary,
		// Descriptions are sanitized by the enricher.
		Description: template.HTML(section.Data.Description),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render section %s: %w", section.Template, err)
	}
	return template.HTML(buf.String()), nil
}

func (d *Displayer) accuracyView(result AccuracyResult) *accuracyView {
	view := &accuracyView{AccuracyResult: result, Label: d.printer.Sprintf("FU.Check.Accuracy")}
	switch result.Outcome {
	case OutcomeCritical:
		view.OutcomeLabel = d.printer.Sprintf("FU.Check.Critical")
		view.Class = "critical"
	case OutcomeFumble:
		view.OutcomeLabel = d.printer.Sprintf("FU.Check.Fumble")
		view.Class = "fumble"
	}
	return view
}

var _ classfeature.CheckDisplayer = (*Displayer)(nil)
