// Package app exposes class-feature item operations over storage, the
// feature registry, the check display and the rename workflow.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/featurebook/internal/platform/id"
	"github.com/louisbranch/featurebook/internal/platform/otel"
	"github.com/louisbranch/featurebook/internal/services/item/domain/actor"
	"github.com/louisbranch/featurebook/internal/services/item/domain/classfeature"
	"github.com/louisbranch/featurebook/internal/services/item/domain/feature"
	"github.com/louisbranch/featurebook/internal/services/item/render"
	"github.com/louisbranch/featurebook/internal/services/item/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/featurebook/internal/services/item/app"

// Deps are the collaborators of a Service.
type Deps struct {
	Registry  *feature.Registry
	Items     storage.ItemStore
	Pipeline  *render.Pipeline
	Displayer classfeature.CheckDisplayer
	Renamer   *classfeature.FUIDRenamer
}

// Service runs class-feature item operations.
type Service struct {
	registry  *feature.Registry
	items     storage.ItemStore
	pipeline  *render.Pipeline
	displayer classfeature.CheckDisplayer
	renamer   *classfeature.FUIDRenamer
	tracer    trace.Tracer
	newID     func() (string, error)
	now       func() time.Time
}

// NewService validates deps and builds a Service.
func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Registry == nil:
		return nil, fmt.Errorf("feature registry is required")
	case deps.Items == nil:
		return nil, fmt.Errorf("item store is required")
	case deps.Pipeline == nil:
		return nil, fmt.Errorf("render pipeline is required")
	case deps.Displayer == nil:
		return nil, fmt.Errorf("check displayer is required")
	case deps.Renamer == nil:
		return nil, fmt.Errorf("fuid renamer is required")
	}
	return &Service{
		registry:  deps.Registry,
		items:     deps.Items,
		pipeline:  deps.Pipeline,
		displayer: deps.Displayer,
		renamer:   deps.Renamer,
		tracer:    otel.Tracer(tracerName),
		newID:     id.NewID,
		now:       time.Now,
	}, nil
}

// TypeInfo describes one registered feature type.
type TypeInfo struct {
	Key          string
	Default      bool
	Capabilities feature.CapabilitySet
}

// Types lists the registered feature types in registration order.
func (s *Service) Types(ctx context.Context) ([]TypeInfo, error) {
	_, span := s.tracer.Start(ctx, "item.Types")
	defer span.End()

	defaultKey, err := s.registry.DefaultKey()
	if err != nil {
		return nil, fail(span, err)
	}
	keys := s.registry.Keys()
	out := make([]TypeInfo, 0, len(keys))
	for _, key := range keys {
		caps, err := s.registry.Capabilities(key)
		if err != nil {
			return nil, fail(span, err)
		}
		out = append(out, TypeInfo{Key: key, Default: key == defaultKey, Capabilities: caps})
	}
	return out, nil
}

// CreateInput describes a new class-feature item.
type CreateInput struct {
	Name        string
	FeatureType string
	Summary     string
	Source      string
	Owner       *actor.Actor
	// Data optionally seeds the payload; it must be a JSON object.
	Data json.RawMessage
}

// Create stores a new class-feature item.
func (s *Service) Create(ctx context.Context, input CreateInput) (*classfeature.Feature, error) {
	ctx, span := s.tracer.Start(ctx, "item.Create", trace.WithAttributes(
		attribute.String("item.feature_type", input.FeatureType),
	))
	defer span.End()

	itemID, err := s.newID()
	if err != nil {
		return nil, fail(span, err)
	}
	header := classfeature.Header{ID: itemID, Name: strings.TrimSpace(input.Name), Owner: input.Owner}
	item, err := classfeature.New(header, input.FeatureType, s.registry)
	if err != nil {
		return nil, fail(span, err)
	}
	item.Summary = input.Summary
	item.Source = input.Source
	if len(input.Data) > 0 {
		// Seeded data is decoded through the same path as stored state.
		seeded, err := s.withData(item, input.Data)
		if err != nil {
			return nil, fail(span, err)
		}
		item = seeded
	}
	item.PrepareDerivedData()

	if err := s.put(ctx, item); err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("item.id", item.ID))
	return item, nil
}

func (s *Service) withData(item *classfeature.Feature, data json.RawMessage) (*classfeature.Feature, error) {
	state, err := item.MarshalState()
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(state, &fields); err != nil {
		return nil, err
	}
	fields["data"] = data
	state, err = json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return classfeature.Load(classfeature.Header{ID: item.ID, Name: item.Name, Owner: item.Owner}, state, s.registry)
}

func (s *Service) put(ctx context.Context, item *classfeature.Feature) error {
	state, err := item.MarshalState()
	if err != nil {
		return err
	}
	row := storage.Item{
		ID:     item.ID,
		Type:   classfeature.ItemType,
		Name:   item.Name,
		System: state,
	}
	if item.Owner != nil {
		row.OwnerID = item.Owner.ID
		row.OwnerName = item.Owner.Name
	}
	now := s.now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	return s.items.PutItem(ctx, row)
}

// Get loads one class-feature item and prepares its derived data.
func (s *Service) Get(ctx context.Context, itemID string) (*classfeature.Feature, error) {
	ctx, span := s.tracer.Start(ctx, "item.Get", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	item, err := s.load(ctx, itemID)
	if err != nil {
		return nil, fail(span, err)
	}
	return item, nil
}

func (s *Service) load(ctx context.Context, itemID string) (*classfeature.Feature, error) {
	row, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if row.Type != classfeature.ItemType {
		return nil, storage.NotFound(itemID)
	}
	return s.decode(row)
}

func (s *Service) decode(row storage.Item) (*classfeature.Feature, error) {
	header := classfeature.Header{ID: row.ID, Name: row.Name}
	if row.OwnerID != "" || row.OwnerName != "" {
		header.Owner = &actor.Actor{ID: row.OwnerID, Name: row.OwnerName}
	}
	item, err := classfeature.Load(header, row.System, s.registry)
	if err != nil {
		return nil, err
	}
	item.PrepareDerivedData()
	return item, nil
}

// List loads every class-feature item in creation order.
func (s *Service) List(ctx context.Context) ([]*classfeature.Feature, error) {
	ctx, span := s.tracer.Start(ctx, "item.List")
	defer span.End()

	rows, err := s.items.ListItems(ctx, classfeature.ItemType)
	if err != nil {
		return nil, fail(span, err)
	}
	out := make([]*classfeature.Feature, 0, len(rows))
	for _, row := range rows {
		item, err := s.decode(row)
		if err != nil {
			return nil, fail(span, err)
		}
		out = append(out, item)
	}
	span.SetAttributes(attribute.Int("item.count", len(out)))
	return out, nil
}

// SetFeatureType switches an item to another feature type and stores the
// fresh payload.
func (s *Service) SetFeatureType(ctx context.Context, itemID, key string) (*classfeature.Feature, error) {
	ctx, span := s.tracer.Start(ctx, "item.SetFeatureType", trace.WithAttributes(
		attribute.String("item.id", itemID),
		attribute.String("item.feature_type", key),
	))
	defer span.End()

	item, err := s.load(ctx, itemID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := item.SetFeatureType(key); err != nil {
		return nil, fail(span, err)
	}
	item.PrepareDerivedData()
	data, err := json.Marshal(item.Data)
	if err != nil {
		return nil, fail(span, fmt.Errorf("encode item %s payload: %w", item.ID, err))
	}
	if err := s.items.Update(ctx, item.ID, map[string]any{
		"system.featureType": item.FeatureType,
		"system.data":        json.RawMessage(data),
	}); err != nil {
		return nil, fail(span, err)
	}
	return item, nil
}

// Roll performs the roll action of an item.
func (s *Service) Roll(ctx context.Context, itemID string, mods classfeature.Modifiers) (*classfeature.Feature, error) {
	ctx, span := s.tracer.Start(ctx, "item.Roll", trace.WithAttributes(
		attribute.String("item.id", itemID),
		attribute.Bool("item.roll.shift", mods.Shift),
	))
	defer span.End()

	item, err := s.load(ctx, itemID)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(
		attribute.String("item.feature_type", item.FeatureType),
		attribute.Bool("item.rollable", item.Capabilities().Has(feature.CapabilityRollable)),
	)
	if err := item.Roll(ctx, mods, s.displayer); err != nil {
		return nil, fail(span, err)
	}
	return item, nil
}

// RegenerateFUID runs the confirmation-gated identifier rename of an item.
func (s *Service) RegenerateFUID(ctx context.Context, itemID string) (string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "item.RegenerateFUID", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	item, err := s.load(ctx, itemID)
	if err != nil {
		return "", false, fail(span, err)
	}
	fuid, changed, err := s.renamer.RegenerateFUID(ctx, item)
	if err != nil {
		return "", false, fail(span, err)
	}
	span.SetAttributes(attribute.Bool("item.fuid.changed", changed))
	return fuid, changed, nil
}

// Describe renders the check sections of an item without posting them.
func (s *Service) Describe(ctx context.Context, itemID string) (*classfeature.Feature, []render.Section, error) {
	ctx, span := s.tracer.Start(ctx, "item.Describe", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	item, err := s.load(ctx, itemID)
	if err != nil {
		return nil, nil, fail(span, err)
	}
	sections, err := s.pipeline.Render(ctx, render.EventRenderCheck, render.Check{Type: "describe", Title: item.Name}, item.Owner, item)
	if err != nil {
		return nil, nil, fail(span, err)
	}
	return item, sections, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
