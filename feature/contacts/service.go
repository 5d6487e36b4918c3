package contacts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"contact-sync/core/diff"
	"contact-sync/core/identity"
	"contact-sync/core/reconcile"
	"contact-sync/core/record"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrUnknownFamily is returned for a family name the service does not serve.
var ErrUnknownFamily = errors.New("unknown record family")

// binding ties a family to its store and reconciler.
type binding struct {
	family Family
	store  *Store
	engine *reconcile.Reconciler
}

// FamilyResult is the outcome of one family within a sync pass.
type FamilyResult struct {
	Report  *reconcile.Report  `json:"report"`
	Applied *reconcile.Applied `json:"applied,omitempty"`
}

// SyncResult is the outcome of a sync pass.
type SyncResult struct {
	// Object is the export key the pass read from.
	Object string `json:"object"`
	// Families holds the per-family report, keyed by family name.
	Families map[string]*FamilyResult `json:"families"`
	// Corrected is the key of the written corrected export, if any.
	Corrected string `json:"corrected,omitempty"`
}

// Service drives the reconciliation engine over the contact and group stores.
type Service struct {
	bindings []*binding
	byName   map[string]*binding
	source   *Source
	cache    *reconcile.UniverseCache
	logger   *zap.Logger

	// applying passes are exclusive
	syncMu sync.Mutex
}

// NewService wires both families on db. source may be nil when only local
// operations (Get, Diff, Reconcile) are needed.
func NewService(db *gorm.DB, source *Source, cfg reconcile.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	families, err := Families(cfg.RefSource)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		byName: make(map[string]*binding, len(families)),
		source: source,
		cache:  reconcile.NewUniverseCache(cfg.CacheTTL()),
		logger: logger,
	}
	for _, f := range families {
		resolver := identity.NewResolver(f.Registry, f.Key, cfg.Tombstone)
		b := &binding{
			family: f,
			store:  NewStore(db, f, logger),
			engine: reconcile.New(f.Registry, resolver, reconcile.WithLogger(logger)),
		}
		svc.bindings = append(svc.bindings, b)
		svc.byName[f.Name] = b
	}
	return svc, nil
}

// Prepare migrates the record store.
func (s *Service) Prepare() error {
	// All families share one table.
	return s.bindings[0].store.Prepare()
}

// Store returns the store of family.
func (s *Service) Store(family string) (*Store, error) {
	b, err := s.binding(family)
	if err != nil {
		return nil, err
	}
	return b.store, nil
}

// Get returns the local record uid of family.
func (s *Service) Get(ctx context.Context, family, uid string) (record.Record, error) {
	b, err := s.binding(family)
	if err != nil {
		return nil, err
	}
	return b.store.Get(ctx, uid)
}

// Diff computes the change set turning source into target.
func (s *Service) Diff(family string, source, target map[string]any) (diff.ChangeSet, error) {
	b, err := s.binding(family)
	if err != nil {
		return nil, err
	}
	return Diff(b.family.Registry, source, target)
}

// Diff normalizes two raw records against reg and computes the change set
// turning source into target.
func Diff(reg *record.Registry, source, target map[string]any) (diff.ChangeSet, error) {
	src, err := record.Normalize(reg, source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	dst, err := record.Normalize(reg, target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	return diff.New(reg).Diff(src, dst)
}

// Reconcile classifies an export against the local stores without applying
// anything. The cached universe is used, so concurrent callers share snapshots.
func (s *Service) Reconcile(ctx context.Context, exp *Export) (map[string]*reconcile.Report, error) {
	out := make(map[string]*reconcile.Report, len(s.bindings))
	for _, b := range s.bindings {
		report, _, err := s.plan(ctx, b, exp)
		if err != nil {
			return nil, err
		}
		out[b.family.Name] = report
	}
	return out, nil
}

// Sync runs a full pass: load the export, reconcile each family, apply when
// opts allow it, and write the corrected export back.
func (s *Service) Sync(ctx context.Context, opts reconcile.Options) (*SyncResult, error) {
	if s.source == nil {
		return nil, errors.New("sync needs an external source")
	}
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	exp, key, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load export: %w", err)
	}

	result := &SyncResult{Object: key, Families: make(map[string]*FamilyResult, len(s.bindings))}
	execute := opts.Confirmed && !opts.DryRun
	corrections := 0

	for _, b := range s.bindings {
		report, batch, err := s.plan(ctx, b, exp)
		if err != nil {
			return nil, err
		}
		fr := &FamilyResult{Report: report}
		result.Families[b.family.Name] = fr

		applied, err := b.engine.Apply(ctx, report, batch, b.store, opts)
		if execute {
			// The store may have changed even when the commit failed midway.
			s.cache.Invalidate(b.family.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", b.family.Name, err)
		}
		if !execute {
			continue
		}
		fr.Applied = applied
		corrections += len(applied.Corrected) + len(applied.Created)
		exp.SetRecords(b.family.Name, Unbatch(b.family.Registry, exp.Records(b.family.Name), applied.Batch))
	}

	if execute && corrections > 0 {
		corrected, err := s.source.Save(ctx, exp)
		if err != nil {
			return nil, fmt.Errorf("failed to write corrected export: %w", err)
		}
		result.Corrected = corrected
	}
	return result, nil
}

// plan builds the batch of b from exp and reconciles it against the cached
// universe.
func (s *Service) plan(ctx context.Context, b *binding, exp *Export) (*reconcile.Report, []reconcile.Incoming, error) {
	batch, err := Batch(b.family.Registry, exp.Records(b.family.Name))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid %s export: %w", b.family.Name, err)
	}
	idx, err := s.cache.Get(ctx, b.family.Name, b.store.Index)
	if err != nil {
		return nil, nil, err
	}
	report, err := b.engine.Reconcile(idx, batch)
	if err != nil {
		return nil, nil, err
	}

	sum := report.Summary
	s.logger.Info("Reconciliation report",
		zap.String("family", b.family.Name),
		zap.Int("total", sum.Total),
		zap.Int("updated", sum.Updated),
		zap.Int("unchanged", sum.Unchanged),
		zap.Int("new", sum.New),
		zap.Int("adopted", sum.Adopted),
		zap.Int("deleted", sum.Deleted),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	return report, batch, nil
}

func (s *Service) binding(family string) (*binding, error) {
	b, ok := s.byName[family]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
	return b, nil
}
