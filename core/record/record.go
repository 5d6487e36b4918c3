package record

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"contact-sync/core/utils"
)

// Record is a transient view of one entity keyed by category name.
// A value is a scalar, a Group or a List, as declared by the family registry.
type Record map[string]any

// Group is one level of named scalar leaves.
type Group map[string]any

// Item is one member of a list category: a flat mapping of named scalar leaves.
type Item map[string]any

// List is an unordered multiset of items. Sequence order carries no meaning.
type List []Item

// ShapeOf reports the structural shape of a value. Raw decoded forms
// (map[string]any, []any) are recognised alongside the named types.
func ShapeOf(v any) Shape {
	switch v.(type) {
	case Group, Item, map[string]any:
		return ShapeGroup
	case List, []Item, []any, []map[string]any:
		return ShapeList
	default:
		return ShapeScalar
	}
}

// AsGroup returns v as a Group without copying when possible.
func AsGroup(v any) (Group, bool) {
	switch g := v.(type) {
	case Group:
		return g, true
	case map[string]any:
		return Group(g), true
	case Item:
		return Group(g), true
	default:
		return nil, false
	}
}

// AsList returns v as a List. Raw []any input is converted element by element
// and rejected when an element is not a mapping.
func AsList(v any) (List, bool) {
	switch l := v.(type) {
	case List:
		return l, true
	case []Item:
		return List(l), true
	case []map[string]any:
		out := make(List, len(l))
		for i, m := range l {
			out[i] = Item(m)
		}
		return out, true
	case []any:
		out := make(List, len(l))
		for i, e := range l {
			switch m := e.(type) {
			case Item:
				out[i] = m
			case map[string]any:
				out[i] = Item(m)
			case Group:
				out[i] = Item(m)
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		switch ShapeOf(v) {
		case ShapeGroup:
			g, _ := AsGroup(v)
			cp := make(Group, len(g))
			for lk, lv := range g {
				cp[lk] = lv
			}
			out[k] = cp
		case ShapeList:
			l, ok := AsList(v)
			if !ok {
				out[k] = v
				continue
			}
			cp := make(List, len(l))
			for i, it := range l {
				cp[i] = it.Clone()
			}
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// Clone returns a copy of the item.
func (it Item) Clone() Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

// Normalize converts a decoded record into canonical form against reg:
// integers become int64, integral floats become int64, nil leaves are dropped,
// empty groups and lists are dropped, flag categories keep only true, and
// categories unknown to the registry are discarded.
func Normalize(reg *Registry, raw map[string]any) (Record, error) {
	out := make(Record, len(raw))
	for _, d := range reg.Categories() {
		v, ok := raw[string(d.Name)]
		if !ok || v == nil {
			continue
		}
		name := string(d.Name)
		got := ShapeOf(v)
		if got != d.Shape {
			return nil, NewFieldError(ErrShapeMismatch, d.Name, name, "declared %s, got %s", d.Shape, got)
		}

		switch d.Shape {
		case ShapeScalar:
			s, err := NormalizeScalar(v)
			if err != nil {
				return nil, NewFieldError(ErrShapeMismatch, d.Name, name, "%v", err)
			}
			if d.Policy == PolicyFlagToggle {
				if !utils.ToBool(s) {
					continue
				}
				s = true
			}
			out[name] = s
		case ShapeGroup:
			g, _ := AsGroup(v)
			ng, err := normalizeLeaves(g)
			if err != nil {
				return nil, NewFieldError(ErrShapeMismatch, d.Name, name, "%v", err)
			}
			if len(ng) > 0 {
				out[name] = Group(ng)
			}
		case ShapeList:
			l, ok := AsList(v)
			if !ok {
				return nil, NewFieldError(ErrShapeMismatch, d.Name, name, "list members must be mappings")
			}
			nl := make(List, 0, len(l))
			for i, it := range l {
				ni, err := normalizeLeaves(it)
				if err != nil {
					return nil, NewFieldError(ErrShapeMismatch, d.Name, fmt.Sprintf("%s[%d]", name, i), "%v", err)
				}
				if len(ni) > 0 {
					nl = append(nl, Item(ni))
				}
			}
			if len(nl) > 0 {
				out[name] = nl
			}
		}
	}
	return out, nil
}

func normalizeLeaves(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		s, err := NormalizeScalar(v)
		if err != nil {
			return nil, fmt.Errorf("leaf %s: %w", k, err)
		}
		if s != nil {
			out[k] = s
		}
	}
	return out, nil
}

// NormalizeScalar canonicalizes a scalar leaf. Nested mappings and sequences are
// rejected: groups and list items never recurse.
func NormalizeScalar(v any) (any, error) {
	switch s := v.(type) {
	case nil, string, bool, int64:
		return s, nil
	case time.Time:
		return s.UTC(), nil
	case float64:
		return normalizeFloat(s), nil
	case float32:
		return normalizeFloat(float64(s)), nil
	case json.Number:
		if i, err := s.Int64(); err == nil {
			return i, nil
		}
		f, err := s.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s.String())
		}
		return normalizeFloat(f), nil
	}
	if utils.IsInteger(v) {
		return utils.ToInt64(v), nil
	}
	if ShapeOf(v) != ShapeScalar {
		return nil, fmt.Errorf("nested %s where a scalar is expected", ShapeOf(v))
	}
	return nil, fmt.Errorf("unsupported scalar type %T", v)
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}

// EqualScalar compares two scalar leaves after normalization.
func EqualScalar(a, b any) bool {
	na, errA := NormalizeScalar(a)
	nb, errB := NormalizeScalar(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	if ta, ok := na.(time.Time); ok {
		tb, ok := nb.(time.Time)
		return ok && ta.Equal(tb)
	}
	return na == nb
}

// ItemKey returns a canonical string for an item so that structurally equal
// items share a key regardless of leaf order or integer width.
func ItemKey(it Item) string {
	keys := make([]string, 0, len(it))
	for k, v := range it {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.WriteString(scalarKey(it[k]))
	}
	b.WriteByte('}')
	return b.String()
}

func scalarKey(v any) string {
	n, err := NormalizeScalar(v)
	if err != nil {
		return "?" + fmt.Sprintf("%v", v)
	}
	switch s := n.(type) {
	case string:
		return "s" + strconv.Quote(s)
	case bool:
		return "b" + strconv.FormatBool(s)
	case int64:
		return "i" + strconv.FormatInt(s, 10)
	case float64:
		return "f" + strconv.FormatFloat(s, 'g', -1, 64)
	case time.Time:
		return "t" + s.Format(time.RFC3339Nano)
	default:
		return "?" + fmt.Sprintf("%v", s)
	}
}

// EqualItem reports whether two items are structurally equal.
func EqualItem(a, b Item) bool {
	return ItemKey(a) == ItemKey(b)
}
