package patch

import (
	"fmt"
	"sort"

	"contact-sync/core/diff"
	"contact-sync/core/record"
	"contact-sync/core/utils"

	"go.uber.org/zap"
)

// Applier mutates live records through an Accessor so that they reflect a
// change set. It never commits: durability belongs to the caller.
type Applier struct {
	reg    *record.Registry
	logger *zap.Logger
}

// Option configures an Applier.
type Option func(*Applier)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(a *Applier) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an applier bound to a registry.
func New(reg *record.Registry, opts ...Option) *Applier {
	a := &Applier{reg: reg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type step struct {
	index int
	op    diff.ChangeOp
	path  diff.Path
	desc  record.Descriptor
	slot  string
	item  record.Item
}

type categoryPlan struct {
	fields  []step
	deletes []step
	adds    []step
}

// Apply applies cs through acc.
//
// The whole change set is validated first: unknown categories, guarded
// categories, malformed paths, actions that do not fit the declared shape and
// list items no classifier rule accepts are rejected before anything is written.
// Per category, field replacements run first, then list deletes from the highest
// index down, then list adds. A failure during execution stops immediately and
// leaves earlier writes in place.
func (a *Applier) Apply(cs diff.ChangeSet, acc Accessor) error {
	order, plans, err := a.plan(cs)
	if err != nil {
		return err
	}

	for _, cat := range order {
		p := plans[cat]
		for _, s := range p.fields {
			if err := a.replace(acc, s); err != nil {
				return wrapStep(s, err)
			}
		}
		for _, s := range p.deletes {
			if err := a.delete(acc, s); err != nil {
				return wrapStep(s, err)
			}
		}
		for _, s := range p.adds {
			if err := acc.AddListItem(string(s.desc.Name), s.slot, s.item.Clone()); err != nil {
				return wrapStep(s, err)
			}
		}
	}

	a.logger.Debug("Change set applied",
		zap.String("family", a.reg.Family()),
		zap.Int("operations", len(cs)),
		zap.Int("categories", len(order)))
	return nil
}

func wrapStep(s step, err error) error {
	return fmt.Errorf("change %d (%s %s): %w", s.index, s.op.Action, s.op.Path, err)
}

func (a *Applier) plan(cs diff.ChangeSet) ([]record.Category, map[record.Category]*categoryPlan, error) {
	var order []record.Category
	plans := make(map[record.Category]*categoryPlan)

	for i, op := range cs {
		s, err := a.validate(i, op)
		if err != nil {
			return nil, nil, wrapStep(step{index: i, op: op}, err)
		}
		p, ok := plans[s.desc.Name]
		if !ok {
			p = &categoryPlan{}
			plans[s.desc.Name] = p
			order = append(order, s.desc.Name)
		}
		switch op.Action {
		case diff.ActionDelete:
			p.deletes = append(p.deletes, s)
		case diff.ActionAdd:
			p.adds = append(p.adds, s)
		default:
			p.fields = append(p.fields, s)
		}
	}

	for _, cat := range order {
		dels := plans[cat].deletes
		sort.SliceStable(dels, func(i, j int) bool { return dels[i].path.Index > dels[j].path.Index })
		for i := 1; i < len(dels); i++ {
			if dels[i].path.Index == dels[i-1].path.Index {
				return nil, nil, wrapStep(dels[i], record.NewFieldError(record.ErrItemNotFound, cat, dels[i].op.Path, "index deleted twice"))
			}
		}
	}
	return order, plans, nil
}

func (a *Applier) validate(i int, op diff.ChangeOp) (step, error) {
	p, err := diff.ParsePath(op.Path)
	if err != nil {
		return step{}, record.NewFieldError(record.ErrUnmappedField, "", op.Path, "%v", err)
	}
	d, ok := a.reg.Lookup(p.Category)
	if !ok {
		return step{}, record.NewFieldError(record.ErrUnmappedField, p.Category, op.Path, "")
	}
	if d.Policy == record.PolicyGuarded {
		return step{}, record.NewFieldError(record.ErrGuardedField, d.Name, op.Path, "")
	}
	s := step{index: i, op: op, path: p, desc: d}

	mismatch := func(format string, args ...any) error {
		return record.NewFieldError(record.ErrShapeMismatch, d.Name, op.Path, format, args...)
	}

	switch d.Shape {
	case record.ShapeScalar, record.ShapeGroup:
		if op.Action != diff.ActionReplace {
			return step{}, mismatch("%s on %s category", op.Action, d.Shape)
		}
		if p.HasIndex || (d.Shape == record.ShapeScalar) != (p.Leaf == "") {
			return step{}, mismatch("path does not fit %s category", d.Shape)
		}
		if op.New != nil && record.ShapeOf(op.New) != record.ShapeScalar {
			return step{}, mismatch("new value is %s", record.ShapeOf(op.New))
		}
	case record.ShapeList:
		switch op.Action {
		case diff.ActionDelete:
			if !p.HasIndex {
				return step{}, mismatch("delete needs an index")
			}
		case diff.ActionAdd:
			if p.HasIndex || p.Leaf != "" {
				return step{}, mismatch("add takes the bare category path")
			}
			g, ok := record.AsGroup(op.New)
			if !ok {
				return step{}, mismatch("added value is not an item")
			}
			item := record.Item(g)
			slot, err := d.Classifier.Classify(item)
			if err != nil {
				return step{}, record.NewFieldError(record.ErrUnknownListItemType, d.Name, op.Path, "%v", err)
			}
			s.slot, s.item = slot, item
		default:
			return step{}, mismatch("%s on list category", op.Action)
		}
	}
	return s, nil
}

func (a *Applier) replace(acc Accessor, s step) error {
	d := s.desc
	switch d.Policy {
	case record.PolicyFlagToggle:
		cur, _ := acc.Get(d.MaskField)
		mask := utils.ToInt64(cur)
		bit := int64(1) << d.Bit
		if (mask&bit != 0) == utils.ToBool(s.op.New) {
			return nil
		}
		return acc.Set(d.MaskField, mask^bit)

	case record.PolicyAppendText:
		if s.op.New == nil {
			return nil
		}
		add := utils.ToString(s.op.New)
		cur, _ := acc.Get(s.op.Path)
		existing := utils.ToString(cur)
		switch {
		case add == "":
			return nil
		case existing == "":
			return acc.Set(s.op.Path, add)
		default:
			return acc.Set(s.op.Path, existing+d.Separator+add)
		}

	default:
		value := s.op.New
		if value == nil && s.path.Leaf == "" {
			value = d.Empty
		}
		return acc.Set(s.op.Path, value)
	}
}

func (a *Applier) delete(acc Accessor, s step) error {
	d := s.desc
	live, ok := acc.Get(s.op.Path)
	if !ok {
		return record.NewFieldError(record.ErrItemNotFound, d.Name, s.op.Path, "no item at index %d", s.path.Index)
	}
	if s.op.Old != nil {
		want, okWant := record.AsGroup(s.op.Old)
		got, okGot := record.AsGroup(live)
		if !okWant || !okGot || !record.EqualItem(record.Item(got), record.Item(want)) {
			return record.NewFieldError(record.ErrItemNotFound, d.Name, s.op.Path, "item at index %d changed", s.path.Index)
		}
	}
	return acc.DeleteListItem(string(d.Name), s.path.Index)
}
