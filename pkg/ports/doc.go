/*
Package ports defines the driven ports (interfaces) for stategraph.

These interfaces decouple refinement sessions from external implementations,
allowing snapshots to live in memory, on disk or in Redis.

# Key Interfaces

  - SnapshotStore: Persists the working graph of a refinement session.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
