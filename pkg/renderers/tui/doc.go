// Package tui drives an onboarding session from a terminal using survey
// prompts.
package tui
