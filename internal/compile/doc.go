// Package compile runs derived-asset compilation jobs collected while
// records are expanded.
//
// Jobs are drained strictly one at a time: the next job's compiler call only
// starts after the previous job's callback has returned. Compilers keep
// import-resolution state between calls and are never invoked concurrently,
// even when several goroutines share a Queue.
//
// Compilers are registered per language tag. The sass compiler resolves
// @import directives against the job's ordered include paths before handing
// the flattened source to the sass binary.
package compile
