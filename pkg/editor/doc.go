// Package editor keeps a schema's field list and its JSON text in step.
// Structured edits are Actions applied by Editor.Dispatch as pure tree
// transforms; the JSON view is regenerated after each one. Raw JSON edits flow
// back into the field list only when they validate without errors.
package editor
