// Package fallback produces synthetic, schema-compatible responses for edge
// functions. It needs no network access: each registered endpoint has a
// builder that assembles a complete response at resolution time, so values
// such as timestamps and identifiers are always fresh.
package fallback
