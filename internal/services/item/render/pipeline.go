// Package render composes the sections of a chat card from hooks that
// subscribe to render events. Hooks may contribute sections that are still
// being produced; the pipeline waits for all of them and keeps the order in
// which they were pushed.
package render

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/louisbranch/featurebook/internal/platform/timeouts"
	"github.com/louisbranch/featurebook/internal/services/item/domain/actor"
	"golang.org/x/sync/errgroup"
)

// EventKind names a render event.
type EventKind string

// EventRenderCheck fires while a check chat card is being composed.
const EventRenderCheck EventKind = "renderCheck"

// Check describes the check whose card is being composed.
type Check struct {
	Type  string
	Title string
}

// Section is one block of a chat card.
type Section struct {
	// Template names the partial used to render Data.
	Template string
	Data     SectionData
}

// SectionData is the payload of a description section.
type SectionData struct {
	CollapseDescriptions bool
	Summary              string
	// Description is sanitized HTML.
	Description string
}

// Sections collects contributions for one render event.
type Sections struct {
	mu    sync.Mutex
	items []*Deferred[Section]
}

// Push appends a section that is already complete.
func (s *Sections) Push(section Section) {
	s.PushDeferred(Resolved(section))
}

// PushDeferred appends a section that completes later. Its position is
// fixed now, regardless of when it completes.
func (s *Sections) PushDeferred(section *Deferred[Section]) {
	if section == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, section)
}

// Len returns the number of contributions pushed so far.
func (s *Sections) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Sections) snapshot() []*Deferred[Section] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Deferred[Section](nil), s.items...)
}

// Hook contributes sections for a render event. subject is the item being
// displayed; hooks ignore subjects they do not handle.
type Hook func(ctx context.Context, sections *Sections, check Check, owner *actor.Actor, subject any)

type subscription struct {
	name string
	hook Hook
}

// Pipeline dispatches render events to subscribed hooks.
type Pipeline struct {
	mu    sync.RWMutex
	hooks map[EventKind][]subscription
}

// NewPipeline creates a pipeline with no subscriptions.
func NewPipeline() *Pipeline {
	return &Pipeline{hooks: make(map[EventKind][]subscription)}
}

// Subscribe registers hook for kind under name. A name subscribes at most
// once per event kind; later calls return false and change nothing. Hooks
// run in subscription order.
func (p *Pipeline) Subscribe(kind EventKind, name string, hook Hook) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("hook name is required")
	}
	if hook == nil {
		return false, fmt.Errorf("hook is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.hooks[kind] {
		if existing.name == name {
			return false, nil
		}
	}
	p.hooks[kind] = append(p.hooks[kind], subscription{name: name, hook: hook})
	return true, nil
}

// Subscribed reports whether name is subscribed to kind.
func (p *Pipeline) Subscribed(kind EventKind, name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, existing := range p.hooks[kind] {
		if existing.name == name {
			return true
		}
	}
	return false
}

// Render runs every hook subscribed to kind and waits for all
// contributions, at most timeouts.Render. Sections are returned in push
// order. The first failed contribution cancels the wait and its error is
// returned.
func (p *Pipeline) Render(ctx context.Context, kind EventKind, check Check, owner *actor.Actor, subject any) ([]Section, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Render)
	defer cancel()

	p.mu.RLock()
	subs := append([]subscription(nil), p.hooks[kind]...)
	p.mu.RUnlock()

	sections := &Sections{}
	for _, sub := range subs {
		sub.hook(ctx, sections, check, owner, subject)
	}
	return Await(ctx, sections)
}

// Await waits for every contribution in sections.
func Await(ctx context.Context, sections *Sections) ([]Section, error) {
	pending := sections.snapshot()
	out := make([]Section, len(pending))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, deferred := range pending {
		group.Go(func() error {
			section, err := deferred.Await(groupCtx)
			if err != nil {
				return err
			}
			out[i] = section
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Enricher turns raw description text into display HTML.
type Enricher interface {
	Enrich(ctx context.Context, raw string) (string, error)
}
