// Package session holds the active role of a dashboard session.
//
// Each session owns exactly one role and the permission matrix resolved
// from it. Both are published together as an immutable Snapshot, so a
// role switch is a single atomic replacement and readers never observe a
// role paired with another role's matrix.
//
// Sessions are looked up through a Store (in-memory or Redis) and
// identified on the wire by an HS256 token whose subject is the session id.
package session
