// Package checkpoint persists the index of the last successfully completed
// item so a scrape run can resume after a crash or a manual stop.
//
// The checkpoint file holds a single line with an integer; -1 (None) means
// nothing has been completed yet. The file is replaced atomically on every
// update and the stored value never moves backwards.
package checkpoint
