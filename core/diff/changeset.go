package diff

import (
	"fmt"
	"strconv"
	"strings"

	"contact-sync/core/record"
)

// Action is the kind of a field-level change.
type Action string

const (
	// ActionReplace overwrites a scalar or a group leaf. Add and delete of scalars
	// degenerate into replace against nil.
	ActionReplace Action = "replace"
	// ActionAdd appends an item to a list category.
	ActionAdd Action = "add"
	// ActionDelete removes the item at an index of a list category.
	ActionDelete Action = "delete"
)

// Symbol returns the one-character form used in reports (~ + -).
func (a Action) Symbol() string {
	switch a {
	case ActionReplace:
		return "~"
	case ActionAdd:
		return "+"
	case ActionDelete:
		return "-"
	default:
		return "?"
	}
}

// ChangeOp is a single field-level difference.
//
// Path forms:
//   - "note"          scalar category
//   - "name.first"    group leaf
//   - "phones"        list add (no index)
//   - "phones[2]"     list delete, index into the pre-patch source list
type ChangeOp struct {
	Action Action `json:"action"`
	Path   string `json:"path"`
	Old    any    `json:"old,omitempty"`
	New    any    `json:"new,omitempty"`
}

func (op ChangeOp) String() string {
	switch op.Action {
	case ActionAdd:
		return fmt.Sprintf("%s %s %v", op.Action.Symbol(), op.Path, op.New)
	case ActionDelete:
		return fmt.Sprintf("%s %s %v", op.Action.Symbol(), op.Path, op.Old)
	default:
		return fmt.Sprintf("%s %s %v -> %v", op.Action.Symbol(), op.Path, op.Old, op.New)
	}
}

// ChangeSet is an ordered sequence of ChangeOps grouped by category in registry
// declaration order. An empty ChangeSet means no differences.
type ChangeSet []ChangeOp

// Empty reports whether the change set carries no operations.
func (cs ChangeSet) Empty() bool {
	return len(cs) == 0
}

// Categories returns the categories touched by the change set in order of first use.
func (cs ChangeSet) Categories() []record.Category {
	var out []record.Category
	seen := make(map[record.Category]struct{})
	for _, op := range cs {
		p, err := ParsePath(op.Path)
		if err != nil {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Path is a parsed ChangeOp path.
type Path struct {
	Category record.Category
	Leaf     string
	Index    int
	HasIndex bool
}

// ParsePath splits a ChangeOp path into category, leaf and list index.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("empty path")
	}

	if open := strings.IndexByte(s, '['); open >= 0 {
		if !strings.HasSuffix(s, "]") || open == 0 {
			return Path{}, fmt.Errorf("malformed index in path %q", s)
		}
		idx, err := strconv.Atoi(s[open+1 : len(s)-1])
		if err != nil || idx < 0 {
			return Path{}, fmt.Errorf("malformed index in path %q", s)
		}
		cat := s[:open]
		if strings.Contains(cat, ".") {
			return Path{}, fmt.Errorf("indexed path %q cannot address a leaf", s)
		}
		return Path{Category: record.Category(cat), Index: idx, HasIndex: true}, nil
	}

	cat, leaf, dotted := strings.Cut(s, ".")
	if cat == "" || (dotted && (leaf == "" || strings.Contains(leaf, "."))) {
		return Path{}, fmt.Errorf("malformed path %q", s)
	}
	return Path{Category: record.Category(cat), Leaf: leaf}, nil
}

func (p Path) String() string {
	switch {
	case p.HasIndex:
		return fmt.Sprintf("%s[%d]", p.Category, p.Index)
	case p.Leaf != "":
		return string(p.Category) + "." + p.Leaf
	default:
		return string(p.Category)
	}
}

// LeafPath builds the dotted path of a group leaf.
func LeafPath(category record.Category, leaf string) string {
	return Path{Category: category, Leaf: leaf}.String()
}

// IndexPath builds the indexed path of a list member.
func IndexPath(category record.Category, index int) string {
	return Path{Category: category, Index: index, HasIndex: true}.String()
}
