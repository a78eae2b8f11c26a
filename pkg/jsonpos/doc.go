// Package jsonpos parses JSON text into a flat node table that remembers where
// things came from. Every object records the line it opened on and every
// property the line its value started on, keyed by NodeID rather than by
// value, so two identical objects at different places stay distinct. Parse
// errors carry the line and column of the offending token. The parser is
// strict: no comments, no trailing commas, duplicate keys resolve to the last
// occurrence and \uXXXX escapes are kept as written.
package jsonpos
