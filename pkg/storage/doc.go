/*
Package storage keeps the records served by the development backend.

Two implementations share one Store interface:

	NewMemoryStore()        maps guarded by a RWMutex; gone on exit
	NewBoltStore(dataDir)   BoltDB file <dataDir>/pipectl-stub.db

Both encode records as JSON, one bucket per resource (agents, roles, users,
credentials, settings, plugins), and list records in key order. Updates and
deletes of a missing key return an error wrapping ErrNotFound.

This is a fixture for local development and integration tests, not a
product data store: there are no indexes, migrations or transactions across
buckets.
*/
package storage
