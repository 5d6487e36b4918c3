// Package record defines the record model shared by the diff, patch, identity and
// reconcile engines, together with the Field Category Registry that describes a
// record family.
//
// # Records
//
// A Record maps category names to values. Each category has a declared shape:
//   - scalar: a string, number, boolean or date
//   - group: one level of named scalar leaves (Group)
//   - list: an unordered multiset of flat items (List of Item)
//
// Records are transient views. They are produced on demand from a backing store
// or decoded from a wire export and carry no identity of their own; the external
// ref category carries the identifiers that correlate two universes.
//
// # Registry
//
// A Registry is built once per family with NewRegistry and passed explicitly to
// every engine. For each category it declares the shape, the merge policy used by
// the patch applier (replace, flag-toggle, append-text, guarded) and, for lists,
// the Classifier that assigns added items to a storage slot.
//
// # Errors
//
// Schema and patch violations are reported as *FieldError wrapping one of the
// sentinel kinds (ErrShapeMismatch, ErrUnmappedField, ErrGuardedField,
// ErrUnknownListItemType, ErrItemNotFound). Use errors.Is to match them.
package record
