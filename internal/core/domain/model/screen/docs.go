// Package screen describes the operator screens that request transitions:
// which permissions each screen needs, which pre-conditions it adds, and the
// registry of pure predicates those pre-conditions name.
package screen
