package reconcile

import (
	"fmt"

	"contact-sync/core/diff"
	"contact-sync/core/identity"
	"contact-sync/core/record"

	"go.uber.org/zap"
)

// Reconciler compares an incoming batch against the existing universe of one
// record family.
type Reconciler struct {
	reg      *record.Registry
	differ   *diff.Engine
	resolver *identity.Resolver
	logger   *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for per-record diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a reconciler for the family described by reg.
func New(reg *record.Registry, resolver *identity.Resolver, opts ...Option) *Reconciler {
	r := &Reconciler{
		reg:      reg,
		differ:   diff.New(reg),
		resolver: resolver,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry of the reconciled family.
func (r *Reconciler) Registry() *record.Registry { return r.reg }

// Reconcile resolves every incoming record against u and computes its change set.
// Records are processed in batch order; the first record to match an existing
// record claims it and removes it from the fallback pool. A later record that
// would have fallen back onto it becomes a new record marked as a duplicate; a
// later record referencing it by id fails with ErrDuplicateMatch. A schema
// error on one record marks only that record failed. Empty or repeated tokens
// reject the whole batch.
func (r *Reconciler) Reconcile(u identity.Universe, batch []Incoming) (*Report, error) {
	seen := make(map[string]struct{}, len(batch))
	for i, in := range batch {
		if in.Token == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrEmptyToken)
		}
		if _, dup := seen[in.Token]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateToken, in.Token)
		}
		seen[in.Token] = struct{}{}
	}

	report := &Report{
		Family:  r.reg.Family(),
		Results: make(map[string]Result, len(batch)),
		Order:   make([]string, 0, len(batch)),
	}
	claims := make(map[string]string)
	claimed := make(map[string]struct{})

	for _, in := range batch {
		res := r.reconcileOne(u, in, claims, claimed)
		if res.Err != nil {
			res.Error = res.Err.Error()
			r.logger.Warn("Record failed to reconcile",
				zap.String("family", report.Family),
				zap.String("token", in.Token),
				zap.Error(res.Err))
		}
		report.Results[in.Token] = res
		report.Order = append(report.Order, in.Token)
		report.Summary.add(res)
	}

	r.logger.Debug("Batch reconciled",
		zap.String("family", report.Family),
		zap.Int("total", report.Summary.Total),
		zap.Int("updated", report.Summary.Updated),
		zap.Int("new", report.Summary.New),
		zap.Int("failed", report.Summary.Failed))
	return report, nil
}

func (r *Reconciler) reconcileOne(u identity.Universe, in Incoming, claims map[string]string, claimed map[string]struct{}) Result {
	res := r.resolver.ResolveExcluding(in.Record, u, claimed)
	out := Result{Token: in.Token, TargetID: res.TargetID, Ambiguous: res.Ambiguous}

	if res.Resolved() {
		if owner, taken := claims[res.TargetID]; taken {
			// Only reachable by id: claimed records never match by fallback.
			out.DuplicateOf = owner
			return failed(out, fmt.Errorf("%w by %s", ErrDuplicateMatch, owner))
		}
		claims[res.TargetID] = in.Token
		claimed[res.TargetID] = struct{}{}
	}

	switch res.Status {
	case identity.StatusTombstoned:
		out.Outcome = OutcomeSkipped
		return out

	case identity.StatusByID:
		return r.forward(out, res.Target, in.Record)

	case identity.StatusByFallback:
		if res.RefPresent {
			out.Fallback = true
			return r.forward(out, res.Target, in.Record)
		}
		cs, err := r.differ.Diff(in.Record, res.Target)
		if err != nil {
			return failed(out, err)
		}
		out.Outcome = OutcomeAdopted
		out.ChangeSet = cs
		return out
	}

	if res.RefPresent {
		out.Outcome = OutcomeDeleted
		out.ChangeSet = diff.ChangeSet{{
			Action: diff.ActionReplace,
			Path:   diff.LeafPath(r.reg.ExternalRefCategory(), r.reg.ExternalRefSource()),
			Old:    res.Ref,
			New:    r.tombstoneValue(),
		}}
		return out
	}

	out.Outcome = OutcomeNew
	if res.Claimed != "" {
		out.DuplicateOf = claims[res.Claimed]
	}
	return out
}

func (r *Reconciler) forward(out Result, existing, incoming record.Record) Result {
	cs, err := r.differ.Diff(existing, incoming)
	if err != nil {
		return failed(out, err)
	}
	out.ChangeSet = cs
	if cs.Empty() {
		out.Outcome = OutcomeUnchanged
	} else {
		out.Outcome = OutcomeUpdated
	}
	return out
}

func (r *Reconciler) tombstoneValue() any {
	if t := r.resolver.Tombstone(); t != "" {
		return t
	}
	return nil
}

func failed(out Result, err error) Result {
	out.Outcome = OutcomeFailed
	out.ChangeSet = nil
	out.Err = err
	return out
}
