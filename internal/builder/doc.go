// Package builder assembles discovered DataPacks into ordered deployment
// batches.
//
// Each BuildImport call walks the status map in insertion order and selects
// the first eligible record: it must be Ready (or Header once the
// headers-only pass is over), respect solo-deploy and parallelism policy,
// and have every known parent either deployed, stubbed as a header, or
// already in the batch being assembled. Selection repeats until a ceiling,
// a solo-deploy record or single-file mode closes the batch, then the
// compile queue is drained and the batch is returned. A nil batch means
// nothing is eligible.
//
// Callers report deployment outcomes with MarkBatch (or status.Map.Mark)
// before the next call; children of records left Added never become
// eligible.
package builder
