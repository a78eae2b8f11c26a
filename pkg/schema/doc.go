// Package schema models the strict JSON Schema documents used as structured
// output formats. A Schema is the canonical, persisted form; a Field tree is
// the editable form used by the editor and the mapping panel. FieldsToSchema
// and SchemaToFields convert between the two, and Validate checks hand-edited
// text against the structured-output rules (closed objects, every property
// required, no arrays of arrays) reporting each problem with its source line.
//
// Documents reach the package through a Source and a Loader; the concrete
// loader lives in internal/loader.
package schema
