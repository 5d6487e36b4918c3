package patch

import (
	"contact-sync/core/diff"
	"contact-sync/core/record"
	"contact-sync/core/utils"
)

// Accessor reads and writes the fields of one live record. Paths use the
// change set grammar; mask fields of flag categories are addressed by name.
type Accessor interface {
	Get(path string) (any, bool)
	// Set writes value at path. A nil value removes the field.
	Set(path string, value any) error
	AddListItem(category, slot string, item record.Item) error
	DeleteListItem(category string, index int) error
}

// MapAccessor is an in-memory Accessor over a record.Record. Mask fields are
// derived from the flag categories of the registry: bits owned by a flag follow
// the record, other bits come from the seeded base.
type MapAccessor struct {
	reg   *record.Registry
	rec   record.Record
	bases map[string]int64
	slots map[record.Category][]string
}

// NewMapAccessor wraps rec. The record is modified in place; pass a clone to
// keep the original.
func NewMapAccessor(reg *record.Registry, rec record.Record) *MapAccessor {
	if rec == nil {
		rec = record.Record{}
	}
	return &MapAccessor{
		reg:   reg,
		rec:   rec,
		bases: make(map[string]int64),
		slots: make(map[record.Category][]string),
	}
}

// SeedMask sets the stored value of a mask field, typically the column value
// loaded from the store, and aligns the flag categories with it.
func (m *MapAccessor) SeedMask(field string, value int64) {
	m.bases[field] = value
	m.reg.ApplyMask(m.rec, field, value)
}

// Record returns the wrapped record.
func (m *MapAccessor) Record() record.Record { return m.rec }

// Mask returns the current value of a mask field.
func (m *MapAccessor) Mask(field string) int64 {
	return m.reg.MaskValue(m.rec, field, m.bases[field])
}

// Slots returns the storage slots chosen for items added to category, in order.
func (m *MapAccessor) Slots(category record.Category) []string {
	return append([]string(nil), m.slots[category]...)
}

func (m *MapAccessor) Get(path string) (any, bool) {
	if m.reg.IsMaskField(path) {
		return m.Mask(path), true
	}
	p, err := diff.ParsePath(path)
	if err != nil {
		return nil, false
	}
	v, ok := m.rec[string(p.Category)]
	if !ok || v == nil {
		return nil, false
	}

	switch {
	case p.HasIndex:
		l, ok := record.AsList(v)
		if !ok || p.Index >= len(l) {
			return nil, false
		}
		return l[p.Index], true
	case p.Leaf != "":
		g, ok := record.AsGroup(v)
		if !ok {
			return nil, false
		}
		lv, ok := g[p.Leaf]
		return lv, ok && lv != nil
	default:
		return v, true
	}
}

func (m *MapAccessor) Set(path string, value any) error {
	if m.reg.IsMaskField(path) {
		m.SeedMask(path, utils.ToInt64(value))
		return nil
	}
	p, err := diff.ParsePath(path)
	if err != nil {
		return record.NewFieldError(record.ErrUnmappedField, "", path, "%v", err)
	}
	if _, ok := m.reg.Lookup(p.Category); !ok {
		return record.NewFieldError(record.ErrUnmappedField, p.Category, path, "")
	}
	name := string(p.Category)

	switch {
	case p.HasIndex:
		return record.NewFieldError(record.ErrShapeMismatch, p.Category, path, "list members are added or deleted, not set")
	case p.Leaf != "":
		g := record.Group{}
		if cur, ok := record.AsGroup(m.rec[name]); ok {
			for k, v := range cur {
				g[k] = v
			}
		} else if m.rec[name] != nil {
			return record.NewFieldError(record.ErrShapeMismatch, p.Category, path, "%s is not a group", name)
		}
		if value == nil {
			delete(g, p.Leaf)
		} else {
			g[p.Leaf] = value
		}
		if len(g) == 0 {
			delete(m.rec, name)
		} else {
			m.rec[name] = g
		}
	default:
		if value == nil {
			delete(m.rec, name)
		} else {
			m.rec[name] = value
		}
	}
	return nil
}

func (m *MapAccessor) AddListItem(category, slot string, item record.Item) error {
	name := string(category)
	var l record.List
	if cur := m.rec[name]; cur != nil {
		existing, ok := record.AsList(cur)
		if !ok {
			return record.NewFieldError(record.ErrShapeMismatch, record.Category(category), name, "%s is not a list", name)
		}
		l = append(l, existing...)
	}
	m.rec[name] = append(l, item)
	m.slots[record.Category(category)] = append(m.slots[record.Category(category)], slot)
	return nil
}

func (m *MapAccessor) DeleteListItem(category string, index int) error {
	path := diff.IndexPath(record.Category(category), index)
	l, ok := record.AsList(m.rec[category])
	if !ok || index < 0 || index >= len(l) {
		return record.NewFieldError(record.ErrItemNotFound, record.Category(category), path, "")
	}
	out := make(record.List, 0, len(l)-1)
	out = append(out, l[:index]...)
	out = append(out, l[index+1:]...)
	if len(out) == 0 {
		delete(m.rec, category)
	} else {
		m.rec[category] = out
	}
	return nil
}
