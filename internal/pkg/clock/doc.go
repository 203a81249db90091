// Package clock provides a tiny time abstraction.
//
// Account timestamps come from a Clocker so tests can freeze time with
// NewFixed instead of comparing against time.Now().
package clock
