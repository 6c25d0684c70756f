// Package repository puts a tag cache in front of a row store.
//
// Cached wraps any Store and caches single-row reads under the row key
// "<namespace>:get:<id>" and list queries under
// "<namespace>:find:<hash>". Every cached list is tagged with the row key
// of each row it returned, so a write to one row purges every list that
// contained it:
//
//   - Create and Update invalidate the row's tag, purging every list that
//     contained the row, then write the row back under its row key.
//   - Delete removes the row from the store, then invalidates its tag.
//
// Empty list results and missing rows are never cached. Store calls go
// through an optional Guard, which resilience.Executor.Execute satisfies.
package repository
