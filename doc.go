// Package typeforge generates Go type declarations from JSON Schema documents.
//
// - Schema loading with reference linking across files (LoadSchema/ParseSchema)
// - Structural resolution: dedup, composition merging, cycle handling
// - Deterministic source emission, formatted by an external formatter
// - A stable diagnostic model via Diagnostics (file, JSON Pointer, code)
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Place the schema document model under jsonschema/, and the CLI under cmd/typeforge.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	code, err := typeforge.Generate("schema.json", typeforge.Options{Package: "schema"})
//
// or from the command line, composed with the formatter:
//
//	typeforge schema.json | gofmt | tee schema_gen.go
package typeforge
