// Package dispatch routes a record action to its handler. A caller-supplied
// handler wins over the default one; actions the session's matrix denies are
// refused before any handler runs.
package dispatch
