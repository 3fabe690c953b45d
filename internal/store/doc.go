// Package store owns the persisted shopper state.
//
// All mutation goes through Dispatch with one of four actions; the transition
// itself is the pure Reduce function. After each transition the new value is
// written to a Backend and handed to subscribed observers, which is where the
// automatic renewal and checkout creation hooks live.
//
// The package also holds the process-lifetime SessionFlag, which is never
// written to durable storage.
package store
