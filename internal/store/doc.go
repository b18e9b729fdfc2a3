// Package store binds the runtime to the remote real-time document store:
// documents live in a hash per collection, change events travel over Pub/Sub,
// and Watcher turns both into the change-batch stream the rest of the runtime
// consumes.
package store
