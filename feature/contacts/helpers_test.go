package contacts

import (
	"context"
	"testing"

	"contact-sync/core/database"
	"contact-sync/core/record"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	return db
}

func testFamily(t *testing.T, name string) Family {
	t.Helper()
	families, err := Families(DefaultRefSource)
	require.NoError(t, err)
	for _, f := range families {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("family %s not declared", name)
	return Family{}
}

func newTestStore(t *testing.T, db *gorm.DB, family string) *Store {
	t.Helper()
	s := NewStore(db, testFamily(t, family), zap.NewNop())
	require.NoError(t, s.Prepare())
	return s
}

// seed stores rec and returns its uid.
func seed(t *testing.T, s *Store, rec record.Record) string {
	t.Helper()
	ctx := context.Background()
	uid, err := s.Create(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx))
	return uid
}

func person(first, last string) record.Record {
	return record.Record{string(CatName): record.Group{"first": first, "last": last}}
}
