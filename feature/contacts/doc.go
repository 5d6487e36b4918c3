// Package contacts binds the reconciliation engine to an address book.
//
// It declares the two record families, contacts and groups, and implements
// the stores the engine talks to:
//
//   - Store is the local record store. Records of every family live in one
//     'records' table; flag categories are packed into the flags column and the
//     rest is kept as JSON. Store serves snapshots as an identity.Index and
//     stages writes for reconcile.Apply, committing a whole batch in one
//     transaction.
//   - Source is the external data source: a JSON export of the form
//     {"contacts": [...], "groups": [...]} kept in object storage. Records are
//     tokenized by position ("contacts[3]") and the corrected export is written
//     back after an applying pass.
//
// Contacts fall back to matching on their folded full name (or organization),
// groups on their folded name.
//
// # Usage
//
//	svc, err := contacts.NewService(db, contacts.NewSource(client, bucket, cfg.Sync, log), cfg.Sync, log)
//	if err != nil {
//	    return err
//	}
//	res, err := svc.Sync(ctx, reconcile.Options{Confirmed: true, DoUpdate: true, DoCreate: true})
//
// The HTTP routes (GET /contacts/:id, GET /groups/:id, POST /contacts/diff,
// POST /contacts/reconcile, POST /sync) are registered through Feature.
package contacts
