// Package cache keeps a time-bounded, process-local copy of one table's records.
//
// A [Column] sits in front of a [Source] (normally a *store.Table) and serves
// reads from memory while an entry is younger than the configured TTL. Writes go
// through to the store first and only touch the cache once the store accepted
// them, so a failed operation never changes cached state.
//
// # Locking
//
// Each column has one mutex, held for the whole of every operation including
// the remote call. Two operations on the same column never overlap; operations
// on different columns are independent.
//
// # Consistency
//
// The cache only guarantees read-your-own-last-successful-write within one
// process. Writes from other processes become visible when the entry expires
// or when the stream handler evicts it.
//
// # Updates
//
// There are two read-modify-write helpers:
//
//   - [Column.GetUpdate] reads the current record (from cache or store), applies
//     the mutation to a copy, and writes it back.
//   - [Column.DiffUpdate] trusts a record the caller already holds, applies the
//     mutation, and writes it back through the column's [Updater].
//     [Column.DiffUpdateValue] also returns the record that was written, so
//     callers never need to capture results from inside the mutation.
//
// The default updater, [LastWriterWins], does not compare against the stored
// value. Two processes updating the same record from the same starting point
// will lose one of the updates.
package cache
