// Package types defines the tracker entity types, the store interfaces the
// record-access core depends on, and the standard errors shared by every
// backend.
package types
