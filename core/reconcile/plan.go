package reconcile

import (
	"context"
	"fmt"
	"slices"

	"contact-sync/core/patch"

	"go.uber.org/zap"
)

// Applied is the outcome of applying a report.
type Applied struct {
	// Executed counts the records that were patched, created or corrected.
	Executed int `json:"executed"`

	// Updated lists the tokens whose local record was patched.
	Updated []string `json:"updated"`

	// Created maps tokens to the local ids assigned to them.
	Created map[string]string `json:"created"`

	// Corrected lists the tokens whose incoming record was rewritten
	// (adopted, deleted, or restamped after a fallback match).
	Corrected []string `json:"corrected"`

	// Failed maps tokens to the error that discarded them.
	Failed map[string]string `json:"failed"`

	// Batch is the incoming batch with corrections applied, ready to be written
	// back to the external source.
	Batch []Incoming `json:"-"`
}

// Apply executes a report produced by Reconcile.
//
// Matched records are patched through target, new records are created, and the
// incoming batch is corrected: adopted records receive the reverse change set
// and the matched id, new records receive their local id, and deleted records
// receive the tombstone. A record whose patch fails is discarded while its
// siblings continue. Everything staged is committed once at the end.
//
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func (r *Reconciler) Apply(ctx context.Context, report *Report, batch []Incoming, target Target, opts Options) (*Applied, error) {
	applied := &Applied{
		Created: make(map[string]string),
		Failed:  make(map[string]string),
	}

	// Safety check: do not execute if not confirmed or dry-run
	if !opts.Confirmed || opts.DryRun {
		applied.Batch = batch
		return applied, nil
	}

	byToken := make(map[string]int, len(batch))
	corrected := make([]Incoming, len(batch))
	for i, in := range batch {
		byToken[in.Token] = i
		corrected[i] = Incoming{Token: in.Token, Record: in.Record.Clone()}
	}

	applier := patch.New(r.reg, patch.WithLogger(r.logger))
	staged := 0
	// tokens whose patch is staged on each local id
	stagedBy := make(map[string][]string)
	fail := func(token string, err error) {
		applied.Failed[token] = err.Error()
		r.logger.Warn("Record discarded",
			zap.String("family", report.Family),
			zap.String("token", token),
			zap.Error(err))
	}

	for _, token := range report.Order {
		res := report.Results[token]
		i, ok := byToken[token]
		if !ok {
			return nil, fmt.Errorf("token %s missing from batch", token)
		}
		rec := corrected[i].Record

		switch res.Outcome {
		case OutcomeUpdated:
			if !opts.DoUpdate {
				continue
			}
			acc, err := target.Stage(ctx, res.TargetID)
			if err != nil {
				fail(token, err)
				continue
			}
			if err := applier.Apply(res.ChangeSet, acc); err != nil {
				target.Discard(res.TargetID)
				fail(token, err)
				// Discard dropped the earlier patches on this id as well.
				for _, prev := range stagedBy[res.TargetID] {
					applied.Updated = slices.DeleteFunc(applied.Updated, func(t string) bool { return t == prev })
					fail(prev, fmt.Errorf("discarded with %s: %w", token, err))
					staged--
					applied.Executed--
				}
				delete(stagedBy, res.TargetID)
				continue
			}
			staged++
			stagedBy[res.TargetID] = append(stagedBy[res.TargetID], token)
			applied.Updated = append(applied.Updated, token)
			applied.Executed++
			if res.Fallback {
				r.reg.SetExternalRef(rec, res.TargetID)
				applied.Corrected = append(applied.Corrected, token)
			}

		case OutcomeUnchanged:
			if res.Fallback {
				r.reg.SetExternalRef(rec, res.TargetID)
				applied.Corrected = append(applied.Corrected, token)
				applied.Executed++
			}

		case OutcomeNew:
			if !opts.DoCreate {
				continue
			}
			id, err := target.Create(ctx, batch[i].Record.Clone())
			if err != nil {
				fail(token, err)
				continue
			}
			staged++
			r.reg.SetExternalRef(rec, id)
			applied.Created[token] = id
			applied.Executed++

		case OutcomeAdopted:
			acc := patch.NewMapAccessor(r.reg, rec.Clone())
			if err := applier.Apply(res.ChangeSet, acc); err != nil {
				fail(token, err)
				continue
			}
			out := acc.Record()
			r.reg.SetExternalRef(out, res.TargetID)
			corrected[i].Record = out
			applied.Corrected = append(applied.Corrected, token)
			applied.Executed++

		case OutcomeDeleted:
			if t := r.resolver.Tombstone(); t != "" {
				r.reg.SetExternalRef(rec, t)
				applied.Corrected = append(applied.Corrected, token)
				applied.Executed++
			}
		}
	}

	if staged > 0 {
		if err := target.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit %d staged records: %w", staged, err)
		}
	}

	applied.Batch = corrected
	r.logger.Info("Reconcile applied",
		zap.String("family", report.Family),
		zap.Int("executed", applied.Executed),
		zap.Int("staged", staged),
		zap.Int("failed", len(applied.Failed)))
	return applied, nil
}
