package identity

import (
	"contact-sync/core/record"
)

// Universe is the read side of a record store as seen by the resolver.
type Universe interface {
	// FindByID returns the record whose local id is id.
	FindByID(id string) (record.Record, bool)
	// FindBySecondaryKey returns every record sharing the fallback key.
	FindBySecondaryKey(key string) []Entry
}

// KeyFunc derives the secondary key of a record. ok is false when the record
// carries nothing to match on.
type KeyFunc func(rec record.Record) (key string, ok bool)

// Entry is one existing record together with its local id.
type Entry struct {
	ID     string
	Record record.Record
}

// Index is an in-memory Universe built from an enumerated snapshot of a store.
type Index struct {
	byID  map[string]record.Record
	byKey map[string][]Entry
	order []string
}

// NewIndex indexes entries by id and by the secondary key computed with keyFunc.
// Entries with an empty id are skipped; a repeated id keeps the first entry.
func NewIndex(entries []Entry, keyFunc KeyFunc) *Index {
	idx := &Index{
		byID:  make(map[string]record.Record, len(entries)),
		byKey: make(map[string][]Entry),
		order: make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if _, dup := idx.byID[e.ID]; dup {
			continue
		}
		idx.byID[e.ID] = e.Record
		idx.order = append(idx.order, e.ID)
		if keyFunc == nil {
			continue
		}
		if key, ok := keyFunc(e.Record); ok {
			idx.byKey[key] = append(idx.byKey[key], e)
		}
	}
	return idx
}

func (idx *Index) FindByID(id string) (record.Record, bool) {
	rec, ok := idx.byID[id]
	return rec, ok
}

func (idx *Index) FindBySecondaryKey(key string) []Entry {
	return append([]Entry(nil), idx.byKey[key]...)
}

// Len returns the number of indexed records.
func (idx *Index) Len() int { return len(idx.order) }

// IDs returns the indexed ids in snapshot order.
func (idx *Index) IDs() []string {
	return append([]string(nil), idx.order...)
}
