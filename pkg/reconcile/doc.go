// Package reconcile synchronizes the remote problem catalog into a relational
// store.
//
// A run ensures the schema exists, then inside one transaction inserts the
// tags, problems and problem-tag links the store does not have yet. Rows are
// never updated or deleted, so running it twice in a row inserts nothing the
// second time. Any failure after the transaction starts rolls everything back.
package reconcile
