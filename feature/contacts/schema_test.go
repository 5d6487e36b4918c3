package contacts

import (
	"testing"

	"contact-sync/core/diff"
	"contact-sync/core/patch"
	"contact-sync/core/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilies(t *testing.T) {
	families, err := Families("crm")
	require.NoError(t, err)
	require.Len(t, families, 2)
	assert.Equal(t, FamilyContacts, families[0].Name)
	assert.Equal(t, FamilyGroups, families[1].Name)
	assert.Equal(t, "crm", families[0].Registry.ExternalRefSource())
	assert.Equal(t, CatXref, families[1].Registry.ExternalRefCategory())

	_, err = Families("")
	assert.Error(t, err)
}

func TestPersonRegistry_Declaration(t *testing.T) {
	reg := PersonRegistry()
	assert.Equal(t, FamilyContacts, reg.Family())
	assert.True(t, reg.IsMaskField(FlagsField))

	note, ok := reg.Lookup(CatNote)
	require.True(t, ok)
	assert.Equal(t, record.PolicyAppendText, note.Policy)

	xref, ok := reg.Lookup(CatXref)
	require.True(t, ok)
	assert.Equal(t, record.PolicyGuarded, xref.Policy)

	members, ok := GroupRegistry().Lookup(CatMembers)
	require.True(t, ok)
	assert.Equal(t, []string{"member"}, members.Classifier.Slots())
}

func TestLinkClassification(t *testing.T) {
	links, ok := PersonRegistry().Lookup(CatLinks)
	require.True(t, ok)

	tests := []struct {
		name    string
		item    record.Item
		want    string
		wantErr bool
	}{
		{"url", record.Item{"label": "home", "url": "https://example.org"}, SlotURL, false},
		{"im handle", record.Item{"service": "Jabber", "handle": "ada", "label": "work"}, SlotIMHandle, false},
		{"profile with url", record.Item{"service": "twitter", "url": "https://t.example/ada"}, SlotSocialProfile, false},
		{"profile with url and handle", record.Item{"service": "twitter", "handle": "ada", "url": "https://t.example/ada"}, SlotSocialProfile, false},
		{"profile service only", record.Item{"service": "twitter"}, SlotSocialProfile, false},
		{"bare handle", record.Item{"handle": "ada"}, "", true},
		{"empty", record.Item{"label": "home"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := links.Classifier.Classify(tt.item)
			if tt.wantErr {
				assert.ErrorIs(t, err, record.ErrUnknownListItemType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, slot)
		})
	}
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		name   string
		rec    record.Record
		want   string
		wantOK bool
	}{
		{
			name:   "full name",
			rec:    record.Record{"name": record.Group{"first": "Ada", "middle": "King", "last": "Lovelace"}},
			want:   "ada king lovelace",
			wantOK: true,
		},
		{
			name:   "whitespace and case",
			rec:    record.Record{"name": record.Group{"first": "  JOSÉ ", "last": "Smith  Jr"}},
			want:   "josé smith jr",
			wantOK: true,
		},
		{
			name:   "decomposed accent",
			rec:    record.Record{"name": record.Group{"first": "Jose\u0301", "last": "Smith Jr"}},
			want:   "josé smith jr",
			wantOK: true,
		},
		{
			name:   "full case folding",
			rec:    record.Record{"name": record.Group{"last": "STRASSE"}},
			want:   "strasse",
			wantOK: true,
		},
		{
			name:   "organization",
			rec:    record.Record{"business": record.Group{"organization": "Analytical Engines"}},
			want:   "org:analytical engines",
			wantOK: true,
		},
		{
			name:   "nothing to match",
			rec:    record.Record{"note": "hello"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NameKey(tt.rec)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	straße, _ := NameKey(record.Record{"name": record.Group{"last": "Straße"}})
	assert.Equal(t, "strasse", straße)
}

func TestGroupNameKey(t *testing.T) {
	key, ok := GroupNameKey(record.Record{"name": " Book  Club "})
	assert.True(t, ok)
	assert.Equal(t, "book club", key)

	_, ok = GroupNameKey(record.Record{})
	assert.False(t, ok)
}

func TestNoteAppendsOnEveryPass(t *testing.T) {
	reg := PersonRegistry()
	differ := diff.New(reg)
	applier := patch.New(reg)

	local := record.Record{string(CatNote): "met at the library"}
	incoming := record.Record{string(CatNote): "prefers email"}

	want := []string{
		"met at the library\nprefers email",
		"met at the library\nprefers email\nprefers email",
	}
	for _, w := range want {
		cs, err := differ.Diff(local, incoming)
		require.NoError(t, err)
		acc := patch.NewMapAccessor(reg, local)
		require.NoError(t, applier.Apply(cs, acc))
		local = acc.Record()
		assert.Equal(t, w, local[string(CatNote)])
	}
}
