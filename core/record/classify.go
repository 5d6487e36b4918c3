package record

import (
	"sort"
	"strings"
)

// Rule selects a list slot by which leaves an item carries.
// An item matches when every Require leaf is present, no Forbid leaf is present
// and, if AnyOf is non-empty, at least one AnyOf leaf is present.
type Rule struct {
	Slot    string
	Require []string
	Forbid  []string
	AnyOf   []string
}

func (r Rule) matches(item Item) bool {
	for _, leaf := range r.Require {
		if !present(item, leaf) {
			return false
		}
	}
	for _, leaf := range r.Forbid {
		if present(item, leaf) {
			return false
		}
	}
	if len(r.AnyOf) == 0 {
		return true
	}
	for _, leaf := range r.AnyOf {
		if present(item, leaf) {
			return true
		}
	}
	return false
}

// Classifier maps list items to storage slots through an ordered rule set.
// Several rules may lead to the same slot; an item is ambiguous only when the
// rules it matches name more than one distinct slot.
type Classifier struct {
	rules []Rule
}

// NewClassifier copies the rules into an immutable classifier.
func NewClassifier(rules ...Rule) *Classifier {
	c := &Classifier{rules: make([]Rule, len(rules))}
	for i, r := range rules {
		c.rules[i] = Rule{
			Slot:    r.Slot,
			Require: append([]string(nil), r.Require...),
			Forbid:  append([]string(nil), r.Forbid...),
			AnyOf:   append([]string(nil), r.AnyOf...),
		}
	}
	return c
}

// Classify returns the slot of item. Zero or multiple distinct slots are fatal.
func (c *Classifier) Classify(item Item) (string, error) {
	var slots []string
	for _, r := range c.rules {
		if !r.matches(item) {
			continue
		}
		dup := false
		for _, s := range slots {
			if s == r.Slot {
				dup = true
				break
			}
		}
		if !dup {
			slots = append(slots, r.Slot)
		}
	}

	switch len(slots) {
	case 1:
		return slots[0], nil
	case 0:
		return "", NewFieldError(ErrUnknownListItemType, "", "", "no slot accepts leaves [%s]", leafNames(item))
	default:
		return "", NewFieldError(ErrUnknownListItemType, "", "", "leaves [%s] match slots %v", leafNames(item), slots)
	}
}

// Slots returns the distinct slots in rule order.
func (c *Classifier) Slots() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range c.rules {
		if _, ok := seen[r.Slot]; ok {
			continue
		}
		seen[r.Slot] = struct{}{}
		out = append(out, r.Slot)
	}
	return out
}

func present(item Item, leaf string) bool {
	v, ok := item[leaf]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

func leafNames(item Item) string {
	names := make([]string, 0, len(item))
	for k := range item {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
