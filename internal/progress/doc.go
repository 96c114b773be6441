// Package progress persists per-source conversion outcomes so repeated runs
// skip unchanged, already-converted files. The store is a single
// human-diffable JSON snapshot keyed by absolute source path, rewritten
// atomically after every processed item.
package progress
