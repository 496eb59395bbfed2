// Package defaults holds the handlers used when a caller does not supply its
// own for an action: record views, edit forms, delete confirmations, and the
// simulated download and report-generation plans.
//
// The handlers do not check permissions. The dispatcher gates them; calling
// one directly bypasses the role matrix.
package defaults
