// Package tracker keeps per-label score history across evaluations.
//
// Each label (a dataset, a model variant) holds a rolling window of recent
// totals, the best total seen so far and the breakdown that achieved it.
// Record reports whether a new total improved on the best, which callers
// use the way a training loop uses a validation loss to keep checkpoints.
package tracker
