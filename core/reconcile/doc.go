// Package reconcile reconciles an incoming batch of records against the
// existing records of one family.
//
// For every incoming record the reconciler resolves its identity (package
// identity), diffs it against its match (package diff) and classifies the
// result as skipped, adopted, new, updated, unchanged, deleted or failed. The
// report is a plan: nothing is written until Apply runs it with confirmed
// options.
//
// # Apply
//
// Apply patches matched local records through a Target (package patch does the
// field work), creates records for new entries, and corrects the incoming batch
// so that the external source learns the local ids, adopted values and
// tombstones. All staged records are committed once, at the end.
//
// # Usage Example
//
//	rec := reconcile.New(reg, identity.NewResolver(reg, keyFunc, cfg.Tombstone))
//	report, err := rec.Reconcile(index, batch)
//	if err != nil {
//	    return err
//	}
//	applied, err := rec.Apply(ctx, report, batch, store, reconcile.Options{
//	    Confirmed: true,
//	    DoUpdate:  true,
//	    DoCreate:  true,
//	})
//
// UniverseCache keeps built indices per family with a TTL so that HTTP dry-run
// requests do not enumerate the store each time.
package reconcile
