package classfeature

import (
	"context"
	"fmt"

	"github.com/louisbranch/featurebook/internal/services/item/domain/actor"
	"github.com/louisbranch/featurebook/internal/services/item/render"
)

const (
	// DescriptionHookName identifies the description contribution in the
	// render pipeline.
	DescriptionHookName = "classfeature.description"
	// DescriptionTemplate is the partial that renders description sections.
	DescriptionTemplate = "chat-item-description"
)

// Settings are the display preferences read by the render hooks.
type Settings struct {
	CollapseDescriptions bool
}

// RegisterRenderHooks subscribes the class-feature description hook to
// check renders. Repeated calls against the same pipeline are no-ops and
// report false.
func RegisterRenderHooks(pipeline *render.Pipeline, enricher render.Enricher, settings Settings) (bool, error) {
	if pipeline == nil {
		return false, fmt.Errorf("render pipeline is required")
	}
	if enricher == nil {
		return false, fmt.Errorf("enricher is required")
	}
	return pipeline.Subscribe(render.EventRenderCheck, DescriptionHookName, descriptionHook(enricher, settings))
}

func descriptionHook(enricher render.Enricher, settings Settings) render.Hook {
	return func(ctx context.Context, sections *render.Sections, _ render.Check, _ *actor.Actor, subject any) {
		item, ok := subject.(*Feature)
		if !ok || item == nil {
			return
		}
		summary := item.Summary
		description := item.Description()
		if summary == "" && description == "" {
			return
		}
		sections.PushDeferred(render.Go(ctx, func(ctx context.Context) (render.Section, error) {
			enriched, err := enricher.Enrich(ctx, description)
			if err != nil {
				return render.Section{}, fmt.Errorf("enrich description of item %s: %w", item.ID, err)
			}
			return render.Section{
				Template: DescriptionTemplate,
				Data: render.SectionData{
					CollapseDescriptions: settings.CollapseDescriptions,
					Summary:              summary,
					Description:          enriched,
				},
			}, nil
		}))
	}
}
