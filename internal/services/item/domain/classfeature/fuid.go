package classfeature

import (
	"context"
	"fmt"
	"html"
	"log"

	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
	"github.com/louisbranch/featurebook/internal/platform/prompt"
	"github.com/louisbranch/featurebook/internal/platform/slug"
	"golang.org/x/text/message"
)

// FUIDPath is the update path of the record's stable identifier.
const FUIDPath = "system.fuid"

// ErrEmptyFUID indicates a name with nothing left to derive an identifier
// from once folded to a slug.
var ErrEmptyFUID = apperrors.New(apperrors.CodeItemEmptyFUID, "fuid would be empty")

// Confirmer asks the user to accept or decline a dialog.
type Confirmer interface {
	Confirm(ctx context.Context, dialog prompt.Dialog) (bool, error)
}

// Updater persists field changes on an item. Keys are dot paths such as
// "name" or "system.fuid".
type Updater interface {
	Update(ctx context.Context, itemID string, changes map[string]any) error
}

// FUIDRenamer regenerates the stable identifier of class-feature records
// after the user confirms the change.
type FUIDRenamer struct {
	confirmer Confirmer
	updater   Updater
	printer   *message.Printer
}

// NewFUIDRenamer builds a renamer that localizes its dialog with printer.
func NewFUIDRenamer(confirmer Confirmer, updater Updater, printer *message.Printer) *FUIDRenamer {
	return &FUIDRenamer{confirmer: confirmer, updater: updater, printer: printer}
}

// Dialog returns the confirmation dialog shown before a regeneration.
func (r *FUIDRenamer) Dialog() prompt.Dialog {
	content := fmt.Sprintf(`<div class="warning-message"><p>%s</p><p>%s</p></div>`,
		html.EscapeString(r.printer.Sprintf("FU.FUID.ChangeWarning2")),
		html.EscapeString(r.printer.Sprintf("FU.FUID.ChangeWarning3")),
	)
	return prompt.Dialog{
		Title:      r.printer.Sprintf("FU.FUID.Regenerate"),
		Content:    content,
		DefaultYes: false,
		Classes:    []string{"unique-dialog", "backgroundstyle"},
	}
}

// RegenerateFUID asks for confirmation and, when accepted, derives a new
// identifier from the payload name and writes it with a single update.
// A declined dialog returns changed=false and writes nothing. A name that
// folds to an empty slug fails with ErrEmptyFUID before the dialog is shown.
func (r *FUIDRenamer) RegenerateFUID(ctx context.Context, item *Feature) (string, bool, error) {
	if item == nil {
		return "", false, fmt.Errorf("item is required")
	}
	fuid := slug.Make(item.PayloadName())
	if fuid == "" {
		return "", false, apperrors.WithMetadata(apperrors.CodeItemEmptyFUID,
			fmt.Sprintf("item %s: fuid would be empty", item.ID),
			map[string]string{"ID": item.ID})
	}
	confirmed, err := r.confirmer.Confirm(ctx, r.Dialog())
	if err != nil {
		return "", false, fmt.Errorf("confirm fuid regeneration: %w", err)
	}
	if !confirmed {
		return "", false, nil
	}

	if err := r.updater.Update(ctx, item.ID, map[string]any{FUIDPath: fuid}); err != nil {
		return "", false, fmt.Errorf("update fuid of item %s: %w", item.ID, err)
	}
	item.FUID = fuid
	log.Printf("item %s fuid regenerated: %s", item.ID, fuid)
	return fuid, true, nil
}
