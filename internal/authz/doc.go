// Package authz provides the permission table of the QMS dashboard.
//
// This package implements:
//   - The fixed role set (admin, auditor, other_auditor)
//   - The action vocabulary (view, edit, delete, download, run)
//   - Per-role permission matrices over resources and actions
//
// Resolution is total: any role string yields a matrix, and roles outside
// the known set resolve to a matrix in which every entry is false.
package authz
