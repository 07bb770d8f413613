// Package sosedi is the persistence core of a residential-community portal:
// news feed, resident directory, guest registration and parking-spot booking,
// all backed by flat JSON documents instead of a database.
//
// The store is single-host by design. Concurrency safety comes from per
// document advisory file locks, crash safety from temp-file-then-rename
// writes with a rolling one-generation backup, and corruption recovery from
// reading that backup when the primary fails to parse. Route handlers and
// templates are a separate, deliberately thin layer on top of the Portal
// façade.
package sosedi
