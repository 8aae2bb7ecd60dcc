// Package inmemorystore provides a thread-safe, in-memory implementation
// of the statestore.Store interface. It is suitable for tests and for
// scratch trees that do not need to be written to disk.
package inmemorystore
