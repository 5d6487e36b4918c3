package record

import (
	"fmt"

	"contact-sync/core/utils"
)

// Category identifies a top-level field of a record family.
type Category string

// Shape is the structural form a category takes.
type Shape int

const (
	// ShapeScalar holds a single string, number, boolean or date.
	ShapeScalar Shape = iota
	// ShapeGroup holds one level of named scalar leaves.
	ShapeGroup
	// ShapeList holds an unordered multiset of flat items.
	ShapeList
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeGroup:
		return "group"
	case ShapeList:
		return "list"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Policy is the merge policy the patch applier uses for a category.
type Policy int

const (
	// PolicyReplace overwrites the value (or leaf) with the new value.
	PolicyReplace Policy = iota
	// PolicyFlagToggle stores the category as one bit of a wider mask.
	PolicyFlagToggle
	// PolicyAppendText concatenates new text onto the existing value.
	PolicyAppendText
	// PolicyGuarded rejects every change.
	PolicyGuarded
)

func (p Policy) String() string {
	switch p {
	case PolicyReplace:
		return "replace"
	case PolicyFlagToggle:
		return "flag-toggle"
	case PolicyAppendText:
		return "append-text"
	case PolicyGuarded:
		return "guarded"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// DefaultSeparator joins appended text when a descriptor leaves Separator empty.
const DefaultSeparator = "\n"

// Descriptor describes one category of a record family.
type Descriptor struct {
	// Name is the category key in the record.
	Name Category
	// Shape is the declared structural form.
	Shape Shape
	// Policy is the merge policy used when patching.
	Policy Policy
	// Classifier picks the storage slot of list items. Required for ShapeList.
	Classifier *Classifier
	// MaskField names the accessor path holding the bitmask (flag-toggle only).
	MaskField string
	// Bit is the bit position inside MaskField (flag-toggle only).
	Bit uint
	// Separator joins appended text (append-text only).
	Separator string
	// Empty is written when a replace removes the value. Nil removes the key.
	Empty any
}

// Registry is the immutable set of category descriptors of one record family.
// Build it once with NewRegistry and pass it to the engines that need it.
type Registry struct {
	family      string
	order       []Descriptor
	byName      map[Category]int
	refCategory Category
	refSource   string
	masks       map[string][]int
}

// RegistryOption configures a Registry under construction.
type RegistryOption func(*Registry)

// WithExternalRef declares the guarded group category holding per-source ids and
// the source key whose id correlates records with the other universe.
func WithExternalRef(category Category, source string) RegistryOption {
	return func(r *Registry) {
		r.refCategory = category
		r.refSource = source
	}
}

// NewRegistry validates the descriptors and returns an immutable registry.
// Declaration order is preserved and drives change set ordering.
func NewRegistry(family string, descs []Descriptor, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		family: family,
		order:  make([]Descriptor, 0, len(descs)),
		byName: make(map[Category]int, len(descs)),
		masks:  make(map[string][]int),
	}
	for _, opt := range opts {
		opt(r)
	}

	bits := make(map[string]map[uint]Category)
	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("registry %s: descriptor without a name", family)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("registry %s: duplicate category %s", family, d.Name)
		}
		if d.Shape == ShapeList && d.Classifier == nil {
			return nil, fmt.Errorf("registry %s: list category %s needs a classifier", family, d.Name)
		}
		if d.Shape != ShapeList && d.Classifier != nil {
			return nil, fmt.Errorf("registry %s: classifier on non-list category %s", family, d.Name)
		}

		switch d.Policy {
		case PolicyFlagToggle:
			if d.Shape != ShapeScalar || d.MaskField == "" || d.Bit > 62 {
				return nil, fmt.Errorf("registry %s: flag category %s needs scalar shape, a mask field and a bit below 63", family, d.Name)
			}
			if bits[d.MaskField] == nil {
				bits[d.MaskField] = make(map[uint]Category)
			}
			if other, taken := bits[d.MaskField][d.Bit]; taken {
				return nil, fmt.Errorf("registry %s: %s and %s share bit %d of %s", family, other, d.Name, d.Bit, d.MaskField)
			}
			bits[d.MaskField][d.Bit] = d.Name
			r.masks[d.MaskField] = append(r.masks[d.MaskField], len(r.order))
		case PolicyAppendText:
			if d.Shape != ShapeScalar {
				return nil, fmt.Errorf("registry %s: append-text category %s must be scalar", family, d.Name)
			}
			if d.Separator == "" {
				d.Separator = DefaultSeparator
			}
		}

		if d.Classifier != nil {
			d.Classifier = NewClassifier(d.Classifier.rules...)
		}
		r.byName[d.Name] = len(r.order)
		r.order = append(r.order, d)
	}

	for field := range r.masks {
		if _, clash := r.byName[Category(field)]; clash {
			return nil, fmt.Errorf("registry %s: mask field %s collides with a category", family, field)
		}
	}

	if r.refCategory != "" {
		i, ok := r.byName[r.refCategory]
		if !ok {
			return nil, fmt.Errorf("registry %s: external ref category %s not declared", family, r.refCategory)
		}
		if d := r.order[i]; d.Shape != ShapeGroup || d.Policy != PolicyGuarded {
			return nil, fmt.Errorf("registry %s: external ref category %s must be a guarded group", family, r.refCategory)
		}
		if r.refSource == "" {
			return nil, fmt.Errorf("registry %s: external ref source key is empty", family)
		}
	}

	return r, nil
}

// MustRegistry is NewRegistry for statically declared schemas; it panics on error.
func MustRegistry(family string, descs []Descriptor, opts ...RegistryOption) *Registry {
	r, err := NewRegistry(family, descs, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Family returns the record family name.
func (r *Registry) Family() string { return r.family }

// Categories returns the descriptors in declaration order.
func (r *Registry) Categories() []Descriptor {
	return append([]Descriptor(nil), r.order...)
}

// Lookup returns the descriptor of a category.
func (r *Registry) Lookup(name Category) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.order[i], true
}

// ExternalRefCategory returns the guarded category holding external ids.
func (r *Registry) ExternalRefCategory() Category { return r.refCategory }

// ExternalRefSource returns the source key of the correlating id.
func (r *Registry) ExternalRefSource() string { return r.refSource }

// ExternalRef returns the correlating id carried by rec, if any.
func (r *Registry) ExternalRef(rec Record) (string, bool) {
	if r.refCategory == "" {
		return "", false
	}
	g, ok := AsGroup(rec[string(r.refCategory)])
	if !ok {
		return "", false
	}
	id := utils.ToString(g[r.refSource])
	return id, id != ""
}

// SetExternalRef stores id as the correlating id of rec, keeping other sources.
func (r *Registry) SetExternalRef(rec Record, id string) {
	if r.refCategory == "" {
		return
	}
	g := Group{}
	if cur, ok := AsGroup(rec[string(r.refCategory)]); ok {
		for k, v := range cur {
			g[k] = v
		}
	}
	g[r.refSource] = id
	rec[string(r.refCategory)] = g
}

// IsMaskField reports whether name is the mask path of at least one flag category.
func (r *Registry) IsMaskField(name string) bool {
	_, ok := r.masks[name]
	return ok
}

// MaskFields returns every mask path declared by flag categories.
func (r *Registry) MaskFields() []string {
	out := make([]string, 0, len(r.masks))
	for f := range r.masks {
		out = append(out, f)
	}
	return out
}

// MaskValue folds the flag categories of rec into base: bits owned by a flag
// category follow rec, every other bit of base is kept.
func (r *Registry) MaskValue(rec Record, field string, base int64) int64 {
	mask := base
	for _, i := range r.masks[field] {
		d := r.order[i]
		bit := int64(1) << d.Bit
		if utils.ToBool(rec[string(d.Name)]) {
			mask |= bit
		} else {
			mask &^= bit
		}
	}
	return mask
}

// ApplyMask sets or clears the flag categories of rec from the bits of mask.
// Cleared flags are removed from the record.
func (r *Registry) ApplyMask(rec Record, field string, mask int64) {
	for _, i := range r.masks[field] {
		d := r.order[i]
		if mask&(int64(1)<<d.Bit) != 0 {
			rec[string(d.Name)] = true
		} else {
			delete(rec, string(d.Name))
		}
	}
}
