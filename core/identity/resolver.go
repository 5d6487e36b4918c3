package identity

import (
	"errors"
	"fmt"

	"contact-sync/core/record"
)

// ErrAmbiguousMatch reports a fallback lookup with several candidates. It is
// informational: the record is left unresolved, never failed.
var ErrAmbiguousMatch = errors.New("ambiguous fallback match")

// Status is the outcome of resolving one incoming record.
type Status int

const (
	// StatusUnresolved: no existing record corresponds.
	StatusUnresolved Status = iota
	// StatusByID: the external reference resolved directly.
	StatusByID
	// StatusByFallback: the secondary key matched exactly one unclaimed record.
	StatusByFallback
	// StatusTombstoned: the external reference is the tombstone marker.
	StatusTombstoned
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusByID:
		return "by_id"
	case StatusByFallback:
		return "by_fallback"
	case StatusTombstoned:
		return "tombstoned"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Resolution describes how an incoming record maps onto the existing universe.
type Resolution struct {
	Status Status
	// TargetID is the local id of the matched record.
	TargetID string
	// Target is the matched record. Nil unless resolved.
	Target record.Record
	// Ref is the external reference carried by the incoming record.
	Ref string
	// RefPresent reports whether the incoming record carried a reference.
	RefPresent bool
	// Ambiguous is set when more than one unclaimed fallback candidate remained.
	Ambiguous bool
	// Candidates is the number of unclaimed fallback candidates.
	Candidates int
	// Claimed holds the id of a claimed candidate when claims emptied the
	// fallback pool.
	Claimed string
}

// Resolved reports whether an existing record was matched.
func (r Resolution) Resolved() bool {
	return r.Status == StatusByID || r.Status == StatusByFallback
}

// Err returns ErrAmbiguousMatch for an ambiguous fallback and nil otherwise.
func (r Resolution) Err() error {
	if r.Ambiguous {
		return fmt.Errorf("%w: %d candidates", ErrAmbiguousMatch, r.Candidates)
	}
	return nil
}

// Resolver matches incoming records against a Universe.
type Resolver struct {
	reg       *record.Registry
	keyFunc   KeyFunc
	tombstone string
}

// NewResolver creates a resolver. keyFunc may be nil to disable the fallback;
// an empty tombstone disables tombstone detection.
func NewResolver(reg *record.Registry, keyFunc KeyFunc, tombstone string) *Resolver {
	return &Resolver{reg: reg, keyFunc: keyFunc, tombstone: tombstone}
}

// Tombstone returns the marker that flags a record as deleted on the other side.
func (r *Resolver) Tombstone() string { return r.tombstone }

// Resolve resolves rec without any claimed records.
func (r *Resolver) Resolve(rec record.Record, u Universe) Resolution {
	return r.ResolveExcluding(rec, u, nil)
}

// ResolveExcluding resolves rec with the claimed ids removed from the fallback
// candidate pool. Direct id matches ignore claims.
func (r *Resolver) ResolveExcluding(rec record.Record, u Universe, claimed map[string]struct{}) Resolution {
	ref, hasRef := r.reg.ExternalRef(rec)
	res := Resolution{Ref: ref, RefPresent: hasRef}

	if hasRef {
		if r.tombstone != "" && ref == r.tombstone {
			res.Status = StatusTombstoned
			return res
		}
		if target, ok := u.FindByID(ref); ok {
			res.Status = StatusByID
			res.TargetID = ref
			res.Target = target
			return res
		}
	}

	if r.keyFunc == nil {
		return res
	}
	key, ok := r.keyFunc(rec)
	if !ok {
		return res
	}

	var claimedID string
	candidates := u.FindBySecondaryKey(key)
	pool := make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		if _, taken := claimed[c.ID]; taken {
			if claimedID == "" {
				claimedID = c.ID
			}
			continue
		}
		pool = append(pool, c)
	}

	res.Candidates = len(pool)
	switch {
	case len(pool) == 0:
		res.Claimed = claimedID
		return res
	case len(pool) > 1:
		res.Ambiguous = true
		return res
	}

	match := pool[0]
	res.Status = StatusByFallback
	res.TargetID = match.ID
	res.Target = match.Record
	return res
}
