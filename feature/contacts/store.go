package contacts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"contact-sync/core/database"
	"contact-sync/core/identity"
	"contact-sync/core/patch"
	"contact-sync/core/record"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no record carries the requested uid.
var ErrNotFound = errors.New("record not found")

// stagedRecord is a row whose new content waits for Commit.
type stagedRecord struct {
	row RecordRow
	acc *patch.MapAccessor
}

// Store is the local record store of one family, backed by the 'records' table.
// It serves lookups through an identity.Index snapshot and stages writes for
// reconcile.Apply, making them durable in a single transaction on Commit.
type Store struct {
	db     *gorm.DB
	family Family
	logger *zap.Logger

	mu     sync.Mutex
	staged map[string]*stagedRecord
	order  []string
}

// NewStore creates a store for family on db.
func NewStore(db *gorm.DB, family Family, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		family: family,
		logger: logger.With(zap.String("family", family.Name)),
		staged: make(map[string]*stagedRecord),
	}
}

// Family returns the family served by the store.
func (s *Store) Family() Family { return s.family }

// Prepare migrates the records table and verifies the resulting columns.
func (s *Store) Prepare() error {
	if err := s.db.AutoMigrate(&RecordRow{}); err != nil {
		return fmt.Errorf("failed to migrate records table: %w", err)
	}
	missing, err := database.MissingColumns(s.db, RecordRow{}.TableName(), recordColumns...)
	if err != nil {
		return fmt.Errorf("failed to inspect records table: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("records table is missing columns %v", missing)
	}
	return nil
}

// EnumerateAll returns every record of the family in insertion order. Each
// record carries its uid as the external ref, like an export of the store would.
func (s *Store) EnumerateAll(ctx context.Context) ([]identity.Entry, error) {
	var rows []RecordRow
	err := s.db.WithContext(ctx).
		Where("family = ?", s.family.Name).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.family.Name, err)
	}

	entries := make([]identity.Entry, 0, len(rows))
	for _, row := range rows {
		rec, err := s.decode(row)
		if err != nil {
			// A corrupt row must not hide the rest of the store.
			s.logger.Warn("Record skipped", zap.String("uid", row.UID), zap.Error(err))
			continue
		}
		entries = append(entries, identity.Entry{ID: row.UID, Record: rec})
	}
	return entries, nil
}

// Index builds an identity.Index over a fresh snapshot of the store. Its
// signature matches reconcile.Loader.
func (s *Store) Index(ctx context.Context) (*identity.Index, error) {
	entries, err := s.EnumerateAll(ctx)
	if err != nil {
		return nil, err
	}
	return identity.NewIndex(entries, s.family.Key), nil
}

// Get returns the stored record with the given uid.
func (s *Store) Get(ctx context.Context, uid string) (record.Record, error) {
	row, err := s.load(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.decode(*row)
}

// Stage loads uid and returns an accessor whose writes are kept until Commit.
// Staging the same uid twice returns the same accessor.
func (s *Store) Stage(ctx context.Context, id string) (patch.Accessor, error) {
	s.mu.Lock()
	if st, ok := s.staged[id]; ok {
		s.mu.Unlock()
		return st.acc, nil
	}
	s.mu.Unlock()

	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.decode(*row)
	if err != nil {
		return nil, err
	}
	acc := patch.NewMapAccessor(s.family.Registry, rec)
	if s.family.Registry.IsMaskField(FlagsField) {
		acc.SeedMask(FlagsField, row.Flags)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage(id, &stagedRecord{row: *row, acc: acc})
	return acc, nil
}

// Create stages rec as a new record and returns the uid assigned to it.
func (s *Store) Create(_ context.Context, rec record.Record) (string, error) {
	uid := uuid.NewString()
	acc := patch.NewMapAccessor(s.family.Registry, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage(uid, &stagedRecord{
		row: RecordRow{UID: uid, Family: s.family.Name},
		acc: acc,
	})
	return uid, nil
}

// Discard drops the staged changes of id.
func (s *Store) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.staged[id]; !ok {
		return
	}
	delete(s.staged, id)
	for i, uid := range s.order {
		if uid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Commit writes every staged record in one transaction. Staged changes are
// cleared whether or not the transaction succeeds.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		s.staged = make(map[string]*stagedRecord)
		s.order = nil
	}()

	if len(s.order) == 0 {
		return nil
	}

	rows := make([]RecordRow, 0, len(s.order))
	for _, uid := range s.order {
		st := s.staged[uid]
		row, err := s.encode(st.row, st.acc)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", uid, err)
		}
		rows = append(rows, row)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Save(&rows[i]).Error; err != nil {
				return fmt.Errorf("failed to save %s: %w", rows[i].UID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", s.family.Name, err)
	}

	s.logger.Info("Records committed", zap.Int("count", len(rows)))
	return nil
}

// Pending returns the number of staged records.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Store) stage(id string, st *stagedRecord) {
	if _, ok := s.staged[id]; !ok {
		s.order = append(s.order, id)
	}
	s.staged[id] = st
}

func (s *Store) load(ctx context.Context, uid string) (*RecordRow, error) {
	var row RecordRow
	err := s.db.WithContext(ctx).
		Where("family = ? AND uid = ?", s.family.Name, uid).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %s: %w", s.family.Name, uid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", s.family.Name, uid, err)
	}
	return &row, nil
}

// decode turns a row into a canonical record with its flags and uid applied.
func (s *Store) decode(row RecordRow) (record.Record, error) {
	reg := s.family.Registry
	rec, err := record.Normalize(reg, row.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", row.UID, err)
	}
	if reg.IsMaskField(FlagsField) {
		reg.ApplyMask(rec, FlagsField, row.Flags)
	}
	reg.SetExternalRef(rec, row.UID)
	return rec, nil
}

// encode folds the staged record back into its row.
func (s *Store) encode(row RecordRow, acc *patch.MapAccessor) (RecordRow, error) {
	reg := s.family.Registry
	rec, err := record.Normalize(reg, acc.Record())
	if err != nil {
		return row, err
	}

	if reg.IsMaskField(FlagsField) {
		row.Flags = acc.Mask(FlagsField)
	}
	data := make(map[string]any, len(rec))
	slots := make(map[string][]string)
	for _, d := range reg.Categories() {
		v, ok := rec[string(d.Name)]
		if !ok {
			continue
		}
		switch {
		case d.Policy == record.PolicyFlagToggle:
			continue
		case d.Name == reg.ExternalRefCategory():
			g, _ := record.AsGroup(v)
			others := make(map[string]any, len(g))
			for k, id := range g {
				if k != reg.ExternalRefSource() {
					others[k] = id
				}
			}
			if len(others) > 0 {
				data[string(d.Name)] = others
			}
			continue
		case d.Shape == record.ShapeList:
			l, _ := record.AsList(v)
			slots[string(d.Name)] = itemSlots(d, l)
		}
		data[string(d.Name)] = v
	}

	row.Data = data
	row.Slots = slots
	row.LookupKey = ""
	if s.family.Key != nil {
		row.LookupKey, _ = s.family.Key(rec)
	}
	row.UpdatedAt = time.Now().UTC()
	return row, nil
}

// itemSlots classifies every item of a list. Items no rule accepts keep an
// empty slot so the slice stays aligned with the list.
func itemSlots(d record.Descriptor, l record.List) []string {
	out := make([]string, len(l))
	for i, it := range l {
		if slot, err := d.Classifier.Classify(it); err == nil {
			out[i] = slot
		}
	}
	return out
}
