// Package merge implements the deduplicating merge engine at the heart of
// nlv: given the current text of the master checklist and a batch of newly
// proposed tasks, it decides which tasks are genuinely new and computes the
// lines to append.
//
// # Overview
//
// The engine is a pure computation. It performs no I/O: callers read the
// master document, run Merge, and append Result.AppendedLines themselves
// (see the vault package). This keeps the engine testable without a
// filesystem and leaves concurrency control to the storage layer.
//
// Matching is exact string equality over canonical keys produced by
// task.Normalize - case-insensitive, whitespace-collapsed, and
// provenance-stripped. There is no fuzzy or semantic matching.
//
// # Dedupe rules
//
//  1. Only unchecked checkbox lines in the existing document contribute
//     keys. Completed lines, headers, and prose are ignored.
//  2. A batch entry is skipped if its key already exists in the document
//     or was accepted earlier in the same batch.
//  3. Batch order is always preserved in the output; the engine never
//     sorts or reorders.
//  4. Entries that normalize to the empty string are dropped (counted in
//     DroppedCount) rather than appended as blank tasks.
//
// With deduplication disabled, every entry in the batch is formatted and
// returned verbatim, in order.
package merge
