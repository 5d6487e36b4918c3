// Package identity decides which existing record, if any, an incoming record
// corresponds to.
//
// Resolution first honours the external reference carried by the record (the
// id an earlier sync stamped into its guarded xref category). When that id is
// missing or no longer resolves, a secondary key derived from the record (for
// contacts, the normalized name) is used as a fallback. Only an unambiguous
// fallback match counts; several candidates leave the record unresolved.
package identity
