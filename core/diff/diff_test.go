package diff

import (
	"encoding/json"
	"errors"
	"testing"

	"contact-sync/core/record"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *record.Registry {
	t.Helper()
	reg, err := record.NewRegistry("person", []record.Descriptor{
		{Name: "name", Shape: record.ShapeGroup},
		{Name: "note", Shape: record.ShapeScalar, Policy: record.PolicyAppendText},
		{Name: "company", Shape: record.ShapeScalar, Policy: record.PolicyFlagToggle, MaskField: "flags", Bit: 0},
		{Name: "phones", Shape: record.ShapeList, Classifier: record.NewClassifier(record.Rule{Slot: "phone", Require: []string{"phone"}})},
		{Name: "xref", Shape: record.ShapeGroup, Policy: record.PolicyGuarded},
	}, record.WithExternalRef("xref", "ab"))
	require.NoError(t, err)
	return reg
}

func TestDiff_IdenticalIsEmpty(t *testing.T) {
	engine := New(testRegistry(t))

	records := []record.Record{
		{},
		{"note": "hello"},
		{"name": record.Group{"first": "Ada", "last": "Lovelace"}, "company": true},
		{"phones": record.List{{"label": "home", "phone": "1"}, {"label": "home", "phone": "1"}}},
		{"xref": record.Group{"ab": "uid"}, "name": map[string]any{"first": "Raw"}, "phones": []any{map[string]any{"phone": "2"}}},
	}
	for _, rec := range records {
		cs, err := engine.Diff(rec, rec.Clone())
		require.NoError(t, err)
		assert.True(t, cs.Empty(), "diff of %v with itself", rec)
	}
}

func TestDiff_Scalars(t *testing.T) {
	engine := New(testRegistry(t))

	cs, err := engine.Diff(record.Record{}, record.Record{"note": "new"})
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{{Action: ActionReplace, Path: "note", Old: nil, New: "new"}}, cs)

	cs, err = engine.Diff(record.Record{"note": "old"}, record.Record{"note": nil})
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{{Action: ActionReplace, Path: "note", Old: "old", New: nil}}, cs)

	cs, err = engine.Diff(record.Record{"note": "a"}, record.Record{"note": "b"})
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{{Action: ActionReplace, Path: "note", Old: "a", New: "b"}}, cs)
}

func TestDiff_GroupLeavesSorted(t *testing.T) {
	engine := New(testRegistry(t))

	source := record.Record{"name": record.Group{"first": "Ada", "middle": "B", "last": "Lovelace"}}
	target := record.Record{"name": record.Group{"first": "Ada", "last": "King", "suffix": "Countess"}}

	cs, err := engine.Diff(source, target)
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{
		{Action: ActionReplace, Path: "name.last", Old: "Lovelace", New: "King"},
		{Action: ActionReplace, Path: "name.middle", Old: "B", New: nil},
		{Action: ActionReplace, Path: "name.suffix", Old: nil, New: "Countess"},
	}, cs)
}

func TestDiff_GuardedIgnored(t *testing.T) {
	engine := New(testRegistry(t))

	cs, err := engine.Diff(
		record.Record{"xref": record.Group{"ab": "one"}},
		record.Record{"xref": record.Group{"ab": "two"}},
	)
	require.NoError(t, err)
	assert.True(t, cs.Empty())
}

func TestDiff_ShapeMismatch(t *testing.T) {
	engine := New(testRegistry(t))

	tests := []struct {
		name   string
		source record.Record
		target record.Record
	}{
		{"GroupVsScalar", record.Record{"name": record.Group{"first": "A"}}, record.Record{"name": "A"}},
		{"ListVsGroup", record.Record{"phones": record.List{}}, record.Record{"phones": record.Group{}}},
		{"DeclaredGroupGotScalar", record.Record{"name": "A"}, record.Record{}},
		{"NestedLeaf", record.Record{"name": record.Group{"first": record.Group{"x": 1}}}, record.Record{}},
		{"ListOfScalars", record.Record{"phones": []any{"555"}}, record.Record{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Diff(tt.source, tt.target)
			assert.True(t, errors.Is(err, record.ErrShapeMismatch), "got %v", err)
		})
	}
}

func TestDiff_Lists(t *testing.T) {
	engine := New(testRegistry(t))

	source := record.Record{"phones": record.List{
		{"label": "home", "phone": "555-1111"},
		{"label": "fax", "phone": "555-0000"},
		{"label": "old", "phone": "555-9999"},
	}}
	target := record.Record{"phones": record.List{
		{"label": "work", "phone": "555-2222"},
		{"label": "home", "phone": "555-1111"},
	}}

	cs, err := engine.Diff(source, target)
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{
		{Action: ActionDelete, Path: "phones[2]", Old: record.Item{"label": "old", "phone": "555-9999"}},
		{Action: ActionDelete, Path: "phones[1]", Old: record.Item{"label": "fax", "phone": "555-0000"}},
		{Action: ActionAdd, Path: "phones", New: record.Item{"label": "work", "phone": "555-2222"}},
	}, cs)

	cs, err = engine.Diff(record.Record{}, record.Record{"phones": record.List{{"phone": "1"}}})
	require.NoError(t, err)
	assert.Equal(t, ChangeSet{{Action: ActionAdd, Path: "phones", New: record.Item{"phone": "1"}}}, cs)
}

func TestDiff_Deterministic(t *testing.T) {
	engine := New(testRegistry(t))
	source := record.Record{
		"name":   record.Group{"a": 1, "b": 2, "c": 3, "d": 4},
		"phones": record.List{{"phone": "1"}, {"phone": "2"}, {"phone": "3"}},
	}
	target := record.Record{
		"name":   record.Group{"a": 2, "b": 3, "c": 4, "d": 5},
		"phones": record.List{{"phone": "4"}, {"phone": "5"}},
	}

	first, err := engine.Diff(source, target)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := engine.Diff(source.Clone(), target.Clone())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDiff_Golden(t *testing.T) {
	engine := New(testRegistry(t))

	source := record.Record{
		"name":   record.Group{"first": "Ada", "last": "Lovelace"},
		"note":   "old",
		"phones": record.List{{"label": "home", "phone": "555-1111"}, {"label": "fax", "phone": "555-0000"}},
		"xref":   record.Group{"ab": "uid-1"},
	}
	target := record.Record{
		"name":    record.Group{"first": "Ada", "last": "King"},
		"company": true,
		"phones":  record.List{{"label": "home", "phone": "555-1111"}, {"label": "work", "phone": "555-2222"}},
	}

	cs, err := engine.Diff(source, target)
	require.NoError(t, err)

	out, err := json.MarshalIndent(cs, "", "  ")
	require.NoError(t, err)
	out = append(out, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "person_changeset", out)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"note", Path{Category: "note"}},
		{"name.first", Path{Category: "name", Leaf: "first"}},
		{"phones", Path{Category: "phones"}},
		{"phones[12]", Path{Category: "phones", Index: 12, HasIndex: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}

	for _, bad := range []string{"", "[1]", "phones[", "phones[-1]", "phones[x]", "name.first[1]", "name.", ".x", "a.b.c"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestChangeSet_Categories(t *testing.T) {
	cs := ChangeSet{
		{Action: ActionReplace, Path: "name.first"},
		{Action: ActionReplace, Path: "name.last"},
		{Action: ActionDelete, Path: "phones[0]"},
		{Action: ActionAdd, Path: "phones"},
		{Action: ActionReplace, Path: "note"},
	}
	assert.Equal(t, []record.Category{"name", "phones", "note"}, cs.Categories())
}

func TestChangeOp_String(t *testing.T) {
	assert.Equal(t, "~ note a -> b", ChangeOp{Action: ActionReplace, Path: "note", Old: "a", New: "b"}.String())
	assert.Equal(t, "+ phones map[phone:1]", ChangeOp{Action: ActionAdd, Path: "phones", New: record.Item{"phone": "1"}}.String())
	assert.Equal(t, "- phones[0] map[phone:1]", ChangeOp{Action: ActionDelete, Path: "phones[0]", Old: record.Item{"phone": "1"}}.String())
}
