package diff

import (
	"math/rand"
	"sort"
	"testing"

	"contact-sync/core/record"

	"github.com/stretchr/testify/assert"
)

func phone(label, number string) record.Item {
	return record.Item{"label": label, "phone": number}
}

func TestReconcileList(t *testing.T) {
	home := phone("home", "555-1111")
	work := phone("work", "555-2222")
	fax := phone("fax", "555-0000")

	tests := []struct {
		name        string
		source      record.List
		target      record.List
		wantAdds    []record.Item
		wantDeletes []int
	}{
		{"BothEmpty", nil, nil, []record.Item{}, []int{}},
		{"OnlyAdds", nil, record.List{home, work}, []record.Item{home, work}, []int{}},
		{"OnlyDeletes", record.List{home, work}, nil, []record.Item{}, []int{1, 0}},
		{"AddedPhone", record.List{home}, record.List{home, work}, []record.Item{work}, []int{}},
		{"ReorderedIsEqual", record.List{home, work, fax}, record.List{fax, home, work}, []record.Item{}, []int{}},
		{"SurplusDuplicate", record.List{home, home}, record.List{home}, []record.Item{}, []int{1}},
		{"MissingDuplicate", record.List{home}, record.List{home, home}, []record.Item{home}, []int{}},
		{"Mixed", record.List{fax, home, fax, work}, record.List{work, home, home}, []record.Item{home}, []int{2, 0}},
		{"IntegerWidth", record.List{{"n": 1}}, record.List{{"n": int64(1)}}, []record.Item{}, []int{}},
		{"LeafOrderIrrelevant", record.List{{"a": "x", "b": "y"}}, record.List{{"b": "y", "a": "x"}}, []record.Item{}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileList(tt.source, tt.target)
			assert.Equal(t, tt.wantAdds, got.Adds)
			assert.Equal(t, tt.wantDeletes, got.Deletes)
		})
	}
}

// Random multisets over a small alphabet exercise the counting identities:
// |source| - |deletes| + |adds| = |target|, and deletes are strictly descending
// valid source indices.
func TestReconcileList_Counts(t *testing.T) {
	alphabet := []record.Item{
		phone("home", "1"), phone("home", "2"), phone("work", "1"), phone("fax", "3"),
	}
	rng := rand.New(rand.NewSource(7))
	randomList := func() record.List {
		n := rng.Intn(7)
		out := make(record.List, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))].Clone()
		}
		return out
	}

	for round := 0; round < 200; round++ {
		source, target := randomList(), randomList()
		d := ReconcileList(source, target)

		assert.Equal(t, len(target), len(source)-len(d.Deletes)+len(d.Adds))
		assert.True(t, sort.SliceIsSorted(d.Deletes, func(i, j int) bool { return d.Deletes[i] > d.Deletes[j] }))
		for i, idx := range d.Deletes {
			assert.True(t, idx >= 0 && idx < len(source))
			if i > 0 {
				assert.NotEqual(t, d.Deletes[i-1], idx)
			}
		}

		// Applying deletes then adds yields the target multiset.
		patched := append(record.List(nil), source...)
		for _, idx := range d.Deletes {
			patched = append(patched[:idx], patched[idx+1:]...)
		}
		patched = append(patched, d.Adds...)
		assert.True(t, ReconcileList(patched, target).Empty(), "round %d", round)
	}
}
