// Package docstore is the document store adapter.
//
// Store is the query surface the repository depends on: equality-filter
// find and findOne, insert, update with set semantics, delete, count, and
// collection management. Three implementations exist:
//
//   - MongoStore talks to a local mongod through the official driver
//   - FileStore keeps one JSON file per document under a locked directory
//   - MemoryStore keeps everything in process memory
//
// The backend is selected at startup through Open. Initialize creates the
// known collections and seeds a single default credential; both steps are
// idempotent. A Handle holds whichever store is live and reports
// ErrUninitialized before the first one is installed.
package docstore
