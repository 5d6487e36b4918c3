// Package patch applies change sets produced by package diff onto live records.
//
// Writes go through an Accessor so that the same change set can target an
// in-memory record (MapAccessor) or a store-backed one. Each category is patched
// according to its registry policy: replace, flag toggle on a shared mask field,
// append-only text, or guarded (always rejected).
//
// Example:
//
//	cs, _ := diff.New(reg).Diff(live, incoming)
//	acc := patch.NewMapAccessor(reg, live.Clone())
//	if err := patch.New(reg).Apply(cs, acc); err != nil {
//		return err
//	}
//	updated := acc.Record()
package patch
