// Package stores persists the pass history: one record per execution pass
// plus the per-rule results inside it. The in-memory rule statistics owned
// by the engine are deliberately not persisted; this store is an audit log
// for the history and status commands.
package stores
