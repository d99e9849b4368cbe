// Package sanitizer normalizes caller-supplied identifiers and search terms
// before validation and lookup.
//
// All functions are idempotent and handle garbage input by returning an empty
// string rather than an error. MC numbers in particular arrive in many
// textual forms over a voice channel ("MC123456", "MC-123456", "mc 123456",
// "123456") and must all map to one canonical key.
package sanitizer
