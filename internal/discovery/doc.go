// Package discovery walks a project tree laid out as <type>/<name>/, resolves
// each record's metadata label, loads every record file into the shared file
// cache and seeds the status map.
//
// Type directories are scanned concurrently through an errgroup bounded by
// the configured worker count. Results are merged and seeded in sorted
// type/name order afterwards, so status order never depends on scheduling.
package discovery
