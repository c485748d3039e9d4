// Package workflow defines the persisted data model shared by the
// engine, the store and the external sync layer: workflow instances and
// their step states, history events, and the structured results every
// engine operation returns.
package workflow
