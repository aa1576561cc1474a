// Package role provides the ordered role hierarchy used by goSession
// authorization checks.
//
// # Ranks
//
// Each role name maps to a distinct integer rank; a larger rank strictly
// contains the access of every smaller one. Ranks are assigned by
// [Hierarchy.Register] and are stable for the lifetime of the process.
// The default marketplace hierarchy is client < trainer < admin.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. Route
// policies and the session engine consult it through [Hierarchy.AtLeast]
// and never reorder it at runtime.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goSession, guard, or store.
//   - Accept new roles after [Hierarchy.Freeze].
package role
