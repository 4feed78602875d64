// Package storage defines persistence contracts for items and the chat log.
package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// NotFound returns an ErrNotFound match carrying the missing id.
func NotFound(id string) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, fmt.Sprintf("record %s not found", id), map[string]string{"ID": id})
}

// Item stores one item row. System is the JSON state of the item type.
type Item struct {
	ID        string
	Type      string
	Name      string
	OwnerID   string
	OwnerName string
	System    []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage stores one posted chat card.
type ChatMessage struct {
	ID          string
	SpeakerID   string
	SpeakerName string
	Flavor      string
	// Content is rendered HTML.
	Content   string
	CreatedAt time.Time
}

// ItemStore persists items.
type ItemStore interface {
	PutItem(ctx context.Context, item Item) error
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context, itemType string) ([]Item, error)
	// Update applies dot-path changes ("name", "system.<field>") to one item
	// atomically.
	Update(ctx context.Context, id string, changes map[string]any) error
}

// ChatStore persists the chat log.
type ChatStore interface {
	PostMessage(ctx context.Context, message ChatMessage) error
	ListMessages(ctx context.Context, limit int) ([]ChatMessage, error)
}
