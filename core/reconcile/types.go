package reconcile

import (
	"errors"
	"time"

	"contact-sync/core/diff"
	"contact-sync/core/record"
)

var (
	// ErrEmptyToken is returned when an incoming record has no correlation token.
	ErrEmptyToken = errors.New("incoming record without token")
	// ErrDuplicateToken is returned when two incoming records share a token.
	ErrDuplicateToken = errors.New("duplicate token in batch")
	// ErrDuplicateMatch marks an incoming record whose reference points at a
	// local record already matched by an earlier record of the batch.
	ErrDuplicateMatch = errors.New("local record already matched")
)

// Outcome classifies what reconciliation decided for one incoming record.
type Outcome string

const (
	// OutcomeSkipped: the record carries the tombstone marker.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeAdopted: no reference, matched an existing record by fallback.
	// The change set corrects the incoming record towards the existing one.
	OutcomeAdopted Outcome = "adopted"
	// OutcomeNew: nothing matched; the record should be created locally.
	OutcomeNew Outcome = "new"
	// OutcomeUpdated: matched, and the existing record differs.
	OutcomeUpdated Outcome = "updated"
	// OutcomeUnchanged: matched, and nothing differs.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeDeleted: the reference is stale and no fallback matched; the
	// existing record is assumed deleted locally.
	OutcomeDeleted Outcome = "deleted"
	// OutcomeFailed: diffing raised a schema error for this record.
	OutcomeFailed Outcome = "failed"
)

// Incoming is one record of an incoming batch with its caller-assigned token.
type Incoming struct {
	Token  string
	Record record.Record
}

// Result is the reconciliation output for a single incoming record.
type Result struct {
	// Token is the correlation token of the incoming record.
	Token string `json:"token"`

	// Outcome is the decision taken for the record.
	Outcome Outcome `json:"outcome"`

	// TargetID is the local id of the matched existing record, if any.
	TargetID string `json:"target_id,omitempty"`

	// Fallback is set when a record with a stale reference was matched by its
	// secondary key instead.
	Fallback bool `json:"fallback,omitempty"`

	// DuplicateOf names the token that already claimed the matched record.
	DuplicateOf string `json:"duplicate_of,omitempty"`

	// Ambiguous is set when the fallback lookup found several candidates.
	Ambiguous bool `json:"ambiguous,omitempty"`

	// ChangeSet holds the field-level changes, forward for updates and reverse
	// for adoptions.
	ChangeSet diff.ChangeSet `json:"changes,omitempty"`

	// Err is the failure of an OutcomeFailed record.
	Err error `json:"-"`

	// Error is Err rendered for JSON output.
	Error string `json:"error,omitempty"`
}

// Summary provides aggregate counts for a reconciliation report.
type Summary struct {
	Total      int `json:"total"`
	Skipped    int `json:"skipped"`
	Adopted    int `json:"adopted"`
	New        int `json:"new"`
	Duplicates int `json:"duplicates"`
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
	Deleted    int `json:"deleted"`
	Failed     int `json:"failed"`
	Ambiguous  int `json:"ambiguous"`
	Fallbacks  int `json:"fallbacks"`
}

func (s *Summary) add(r Result) {
	s.Total++
	switch r.Outcome {
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeAdopted:
		s.Adopted++
	case OutcomeNew:
		s.New++
		if r.DuplicateOf != "" {
			s.Duplicates++
		}
	case OutcomeUpdated:
		s.Updated++
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeDeleted:
		s.Deleted++
	case OutcomeFailed:
		s.Failed++
	}
	if r.Ambiguous {
		s.Ambiguous++
	}
	if r.Fallback {
		s.Fallbacks++
	}
}

// Report is the result of reconciling one batch.
type Report struct {
	// Family is the record family of the batch.
	Family string `json:"family"`

	// Results holds one result per incoming token.
	Results map[string]Result `json:"results"`

	// Order lists the tokens in batch order.
	Order []string `json:"order"`

	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`
}

// InOrder returns the results in batch order.
func (r *Report) InOrder() []Result {
	out := make([]Result, 0, len(r.Order))
	for _, token := range r.Order {
		out = append(out, r.Results[token])
	}
	return out
}

// Config holds the sync settings loaded from the `sync` config section.
type Config struct {
	// Tombstone is the external id marking a record deleted on the other side.
	Tombstone string `mapstructure:"tombstone" default:"deleted"`

	// RefSource is the key inside the xref category carrying the correlating id.
	RefSource string `mapstructure:"ref_source" default:"ab"`

	// CacheTTLSeconds is the lifetime of cached universe snapshots. Zero disables caching.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`

	// IncomingObject is the object key of the incoming export.
	IncomingObject string `mapstructure:"incoming_object" default:"export/addressbook.json"`

	// CorrectedObject is the object key the corrected batch is written back to.
	CorrectedObject string `mapstructure:"corrected_object" default:"export/addressbook.corrected.json"`
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Options controls what Apply is allowed to do.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// Confirmed indicates the caller confirmed the mutations.
	// If false, nothing executes regardless of DryRun.
	Confirmed bool

	// DoUpdate enables patching matched local records.
	DoUpdate bool

	// DoCreate enables creating local records for new incoming records.
	DoCreate bool
}
