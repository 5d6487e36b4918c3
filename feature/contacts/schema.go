package contacts

import (
	"fmt"
	"strings"

	"contact-sync/core/identity"
	"contact-sync/core/record"
	"contact-sync/core/utils"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	// FamilyContacts is the record family of people.
	FamilyContacts = "contacts"
	// FamilyGroups is the record family of contact groups.
	FamilyGroups = "groups"

	// DefaultRefSource is the xref key of the local address book.
	DefaultRefSource = "ab"
	// FlagsField is the mask column holding the boolean flags of a contact.
	FlagsField = "flags"
)

// Contact categories.
const (
	CatName      record.Category = "name"
	CatBusiness  record.Category = "business"
	CatOther     record.Category = "other"
	CatNote      record.Category = "note"
	CatCompany   record.Category = "company"
	CatPhones    record.Category = "phones"
	CatEmails    record.Category = "emails"
	CatAddresses record.Category = "addresses"
	CatLinks     record.Category = "links"
	CatXref      record.Category = "xref"
)

// Group categories. Groups reuse CatXref.
const (
	CatGroupName record.Category = "name"
	CatMembers   record.Category = "members"
)

// Link slots, mirroring the three kinds of link an address book stores.
const (
	SlotURL           = "url"
	SlotSocialProfile = "social_profile"
	SlotIMHandle      = "im_handle"
)

func contactDescriptors() []record.Descriptor {
	return []record.Descriptor{
		{Name: CatName, Shape: record.ShapeGroup, Policy: record.PolicyReplace},
		{Name: CatBusiness, Shape: record.ShapeGroup, Policy: record.PolicyReplace},
		{Name: CatOther, Shape: record.ShapeGroup, Policy: record.PolicyReplace},
		// The note is only ever appended to: a differing incoming note is added
		// below the local one, so the local note grows on every pass that sees
		// a difference and never converges on the incoming text.
		{Name: CatNote, Shape: record.ShapeScalar, Policy: record.PolicyAppendText, Separator: "\n"},
		{Name: CatCompany, Shape: record.ShapeScalar, Policy: record.PolicyFlagToggle, MaskField: FlagsField, Bit: 0},
		{
			Name: CatPhones, Shape: record.ShapeList, Policy: record.PolicyReplace,
			Classifier: record.NewClassifier(record.Rule{Slot: "phone", Require: []string{"phone"}}),
		},
		{
			Name: CatEmails, Shape: record.ShapeList, Policy: record.PolicyReplace,
			Classifier: record.NewClassifier(record.Rule{Slot: "email", Require: []string{"email"}}),
		},
		{
			Name: CatAddresses, Shape: record.ShapeList, Policy: record.PolicyReplace,
			Classifier: record.NewClassifier(record.Rule{
				Slot:  "address",
				AnyOf: []string{"street", "city", "state", "zip", "country", "country_code"},
			}),
		},
		{
			Name: CatLinks, Shape: record.ShapeList, Policy: record.PolicyReplace,
			Classifier: record.NewClassifier(
				record.Rule{Slot: SlotIMHandle, Require: []string{"service", "handle"}, Forbid: []string{"url"}},
				record.Rule{Slot: SlotSocialProfile, Require: []string{"service", "url"}},
				record.Rule{Slot: SlotSocialProfile, Require: []string{"service"}, Forbid: []string{"handle"}},
				record.Rule{Slot: SlotURL, Require: []string{"url"}, Forbid: []string{"service"}},
			),
		},
		{Name: CatXref, Shape: record.ShapeGroup, Policy: record.PolicyGuarded},
	}
}

func groupDescriptors() []record.Descriptor {
	return []record.Descriptor{
		{Name: CatGroupName, Shape: record.ShapeScalar, Policy: record.PolicyReplace},
		{
			Name: CatMembers, Shape: record.ShapeList, Policy: record.PolicyReplace,
			Classifier: record.NewClassifier(record.Rule{Slot: "member", Require: []string{"uuid"}}),
		},
		{Name: CatXref, Shape: record.ShapeGroup, Policy: record.PolicyGuarded},
	}
}

// NewPersonRegistry builds the contact registry correlating on refSource.
func NewPersonRegistry(refSource string) (*record.Registry, error) {
	return record.NewRegistry(FamilyContacts, contactDescriptors(), record.WithExternalRef(CatXref, refSource))
}

// NewGroupRegistry builds the group registry correlating on refSource.
func NewGroupRegistry(refSource string) (*record.Registry, error) {
	return record.NewRegistry(FamilyGroups, groupDescriptors(), record.WithExternalRef(CatXref, refSource))
}

// PersonRegistry returns the contact registry for the default ref source.
func PersonRegistry() *record.Registry {
	return record.MustRegistry(FamilyContacts, contactDescriptors(), record.WithExternalRef(CatXref, DefaultRefSource))
}

// GroupRegistry returns the group registry for the default ref source.
func GroupRegistry() *record.Registry {
	return record.MustRegistry(FamilyGroups, groupDescriptors(), record.WithExternalRef(CatXref, DefaultRefSource))
}

// Family binds a registry to the secondary key used for fallback matching.
type Family struct {
	Name     string
	Registry *record.Registry
	Key      identity.KeyFunc
}

// Families returns the contact and group families, in sync order. Contacts go
// first so that group members refer to records that already exist.
func Families(refSource string) ([]Family, error) {
	people, err := NewPersonRegistry(refSource)
	if err != nil {
		return nil, fmt.Errorf("failed to build contact registry: %w", err)
	}
	groups, err := NewGroupRegistry(refSource)
	if err != nil {
		return nil, fmt.Errorf("failed to build group registry: %w", err)
	}
	return []Family{
		{Name: FamilyContacts, Registry: people, Key: NameKey},
		{Name: FamilyGroups, Registry: groups, Key: GroupNameKey},
	}, nil
}

// NameKey is the fallback key of a contact: the full name, or the
// organization for contacts without one, folded for comparison.
func NameKey(rec record.Record) (string, bool) {
	if g, ok := record.AsGroup(rec[string(CatName)]); ok {
		key := FoldKey(
			utils.ToString(g["first"]),
			utils.ToString(g["middle"]),
			utils.ToString(g["last"]),
			utils.ToString(g["suffix"]),
		)
		if key != "" {
			return key, true
		}
	}
	if g, ok := record.AsGroup(rec[string(CatBusiness)]); ok {
		if key := FoldKey(utils.ToString(g["organization"])); key != "" {
			return "org:" + key, true
		}
	}
	return "", false
}

// GroupNameKey is the fallback key of a group: its folded name.
func GroupNameKey(rec record.Record) (string, bool) {
	key := FoldKey(utils.ToString(rec[string(CatGroupName)]))
	return key, key != ""
}

// FoldKey joins the non-empty parts with single spaces after NFC normalization
// and Unicode case folding, so "José  Smith" and "JOSÉ smith" collide.
func FoldKey(parts ...string) string {
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		words = append(words, strings.Fields(p)...)
	}
	if len(words) == 0 {
		return ""
	}
	folder := cases.Fold()
	return folder.String(norm.NFC.String(strings.Join(words, " ")))
}
