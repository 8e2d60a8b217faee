package catalog

import "github.com/radoslav1992/ai-help-center/internal/i18n"

// Store exposes the offerings for HTTP handlers and prompt building.
type Store interface {
	List() []Offering
	FindByID(id string) (Offering, bool)
}

// MemoryStore implements Store over a fixed slice.
type MemoryStore struct {
	items []Offering
}

// NewMemoryStore returns a MemoryStore preloaded with items.
func NewMemoryStore(items []Offering) *MemoryStore {
	return &MemoryStore{items: append([]Offering(nil), items...)}
}

func (s *MemoryStore) List() []Offering {
	return append([]Offering(nil), s.items...)
}

func (s *MemoryStore) FindByID(id string) (Offering, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Offering{}, false
}

// ListIn renders every offering of store in lang.
func ListIn(store Store, lang i18n.Language) []Localized {
	items := store.List()
	out := make([]Localized, 0, len(items))
	for _, item := range items {
		out = append(out, item.In(lang))
	}
	return out
}
