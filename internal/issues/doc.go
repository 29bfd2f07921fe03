// Package issues holds the record-access rules of the tracker: how raw
// listing parameters become a bounded, allow-listed store query, and how
// single-issue mutations pass through authentication, validation and
// existence checks before they touch the store.
package issues
