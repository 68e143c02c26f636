// Package store persists the DataPack status map and run history in SQLite
// so an interrupted build can resume where it stopped.
//
// Statuses are stored per project path together with their position, so a
// restored map keeps the discovery order the scheduler depends on. Writes
// retry briefly when the database is busy.
package store
