package diff

import (
	"sort"

	"contact-sync/core/record"
)

// Engine computes structural change sets between records of one family.
type Engine struct {
	reg *record.Registry
}

// New creates a diff engine bound to a registry.
func New(reg *record.Registry) *Engine {
	return &Engine{reg: reg}
}

// Registry returns the registry the engine compares against.
func (e *Engine) Registry() *record.Registry {
	return e.reg
}

// Diff returns the change set that turns source into target.
//
// Categories are visited in registry order; guarded categories are never
// compared. A category whose values disagree on shape (with each other or with
// the declared shape) aborts the diff with record.ErrShapeMismatch.
func (e *Engine) Diff(source, target record.Record) (ChangeSet, error) {
	cs := ChangeSet{}
	for _, d := range e.reg.Categories() {
		if d.Policy == record.PolicyGuarded {
			continue
		}

		name := string(d.Name)
		sv, inSource := lookup(source, name)
		tv, inTarget := lookup(target, name)
		if !inSource && !inTarget {
			continue
		}
		if err := checkShapes(d, sv, inSource, tv, inTarget); err != nil {
			return nil, err
		}

		var err error
		switch d.Shape {
		case record.ShapeScalar:
			if !record.EqualScalar(sv, tv) {
				cs = append(cs, ChangeOp{Action: ActionReplace, Path: name, Old: sv, New: tv})
			}
		case record.ShapeGroup:
			cs, err = diffGroup(cs, d, sv, tv)
		case record.ShapeList:
			cs, err = diffList(cs, d, sv, tv)
		}
		if err != nil {
			return nil, err
		}
	}
	return cs, nil
}

func lookup(rec record.Record, name string) (any, bool) {
	v, ok := rec[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func checkShapes(d record.Descriptor, sv any, inSource bool, tv any, inTarget bool) error {
	if inSource && inTarget {
		if s, t := record.ShapeOf(sv), record.ShapeOf(tv); s != t {
			return record.NewFieldError(record.ErrShapeMismatch, d.Name, string(d.Name), "source is %s, target is %s", s, t)
		}
	}
	for _, side := range []struct {
		v       any
		present bool
		label   string
	}{{sv, inSource, "source"}, {tv, inTarget, "target"}} {
		if !side.present {
			continue
		}
		if got := record.ShapeOf(side.v); got != d.Shape {
			return record.NewFieldError(record.ErrShapeMismatch, d.Name, string(d.Name), "%s is %s, declared %s", side.label, got, d.Shape)
		}
	}
	return nil
}

func diffGroup(cs ChangeSet, d record.Descriptor, sv, tv any) (ChangeSet, error) {
	sg, _ := record.AsGroup(sv)
	tg, _ := record.AsGroup(tv)

	leaves := make(map[string]struct{}, len(sg)+len(tg))
	for k := range sg {
		leaves[k] = struct{}{}
	}
	for k := range tg {
		leaves[k] = struct{}{}
	}
	names := make([]string, 0, len(leaves))
	for k := range leaves {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, leaf := range names {
		so, to := sg[leaf], tg[leaf]
		if so == nil && to == nil {
			continue
		}
		path := LeafPath(d.Name, leaf)
		for _, v := range []any{so, to} {
			if v != nil && record.ShapeOf(v) != record.ShapeScalar {
				return nil, record.NewFieldError(record.ErrShapeMismatch, d.Name, path, "group leaves must be scalars")
			}
		}
		if !record.EqualScalar(so, to) {
			cs = append(cs, ChangeOp{Action: ActionReplace, Path: path, Old: so, New: to})
		}
	}
	return cs, nil
}

func diffList(cs ChangeSet, d record.Descriptor, sv, tv any) (ChangeSet, error) {
	var sl, tl record.List
	if sv != nil {
		l, ok := record.AsList(sv)
		if !ok {
			return nil, record.NewFieldError(record.ErrShapeMismatch, d.Name, string(d.Name), "source list members must be mappings")
		}
		sl = l
	}
	if tv != nil {
		l, ok := record.AsList(tv)
		if !ok {
			return nil, record.NewFieldError(record.ErrShapeMismatch, d.Name, string(d.Name), "target list members must be mappings")
		}
		tl = l
	}

	ld := ReconcileList(sl, tl)
	for _, i := range ld.Deletes {
		cs = append(cs, ChangeOp{Action: ActionDelete, Path: IndexPath(d.Name, i), Old: sl[i]})
	}
	for _, it := range ld.Adds {
		cs = append(cs, ChangeOp{Action: ActionAdd, Path: string(d.Name), New: it})
	}
	return cs, nil
}
