// Package retention removes the output of old builds: the per-run batch
// directories under the output directory and the matching job logs.
package retention
