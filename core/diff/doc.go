// Package diff computes field-level change sets between two records of the same
// family.
//
// # Structural diff
//
// Engine.Diff walks the categories of a record.Registry in declaration order:
//   - scalar categories produce a replace op when the values differ (an absent
//     side is nil, so add and delete degenerate into replace)
//   - group categories recurse one level, one replace op per differing leaf,
//     addressed as "category.leaf"
//   - list categories are compared as multisets by ReconcileList; surplus source
//     items become delete ops addressed "category[i]" (descending), surplus target
//     items become add ops addressed "category"
//
// Guarded categories such as the external ref are never compared.
//
// # Determinism
//
// Output depends only on the inputs: categories follow registry order, group
// leaves are sorted, list deletes are sorted descending and adds keep target order.
//
// # Usage
//
//	engine := diff.New(contacts.PersonRegistry())
//	cs, err := engine.Diff(existing, incoming)
//	if err != nil {
//	    return err // record.ErrShapeMismatch
//	}
//	for _, op := range cs {
//	    fmt.Println(op)
//	}
package diff
