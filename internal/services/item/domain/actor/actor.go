// Package actor identifies the character that owns an item.
package actor

// Actor is the owning character of an item. A nil *Actor means the item is
// not embedded in any character sheet.
type Actor struct {
	ID   string
	Name string
}

// DisplayName returns the actor name, or fallback for unowned items.
func (a *Actor) DisplayName(fallback string) string {
	if a == nil || a.Name == "" {
		return fallback
	}
	return a.Name
}
