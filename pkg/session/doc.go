/*
Package session implements refinement sessions and their persistence.

A session is a Refiner plus a snapshot of its working graph in a
ports.SnapshotStore. The Manager serializes operations per session (a Refiner
has no internal locking), persists the snapshot after every mutation and
resumes sessions from the store after a restart. With a distributed locker
configured, the store is the source of truth and every operation reloads the
snapshot, so replicas never act on a stale copy.
*/
package session
