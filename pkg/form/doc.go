// Package form composes field rules, the debounced corporation check and the
// submission controller into one onboarding session.
//
// A presentation layer drives a Session through FieldChanged, FieldBlurred and
// Submit, and renders the View it publishes. The session never performs I/O on
// its own; lookups and profile writes go through the collaborators passed to
// New.
package form
