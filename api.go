package typeforge

import (
	"github.com/typeforge/typeforge/internal/gen"
	"github.com/typeforge/typeforge/internal/resolve"

	js "github.com/typeforge/typeforge/jsonschema"
)

// Options configures one generation run.
type Options struct {
	// Package is the package clause of the generated file. Default "schema".
	Package string
	// RootName names an untitled root schema. Default "Root".
	RootName string
	// Load controls schema ingestion.
	Load LoadOptions
}

// Generate runs the full pipeline for the schema at path (a file or a
// directory holding one schema file): load and link, resolve to a canonical
// type graph, and render unformatted Go source. Generation is all-or-nothing:
// on error no output is returned and the error carries Diagnostics naming the
// offending schema location.
func Generate(path string, opts Options) ([]byte, error) {
	root, err := LoadSchema(path, opts.Load)
	if err != nil {
		return nil, err
	}
	return generate(root, opts)
}

// GenerateBytes runs the pipeline for a schema document held in memory. The
// name appears in diagnostics only.
func GenerateBytes(data []byte, name string, opts Options) ([]byte, error) {
	root, err := ParseSchema(data, name, opts.Load)
	if err != nil {
		return nil, err
	}
	return generate(root, opts)
}

func generate(root *js.Schema, opts Options) ([]byte, error) {
	rootName := opts.RootName
	if rootName == "" {
		rootName = "Root"
	}
	unit, fault := resolve.Resolve(root, rootName)
	if fault != nil {
		return nil, Diagnostics{{
			File:    fault.File,
			Path:    fault.Path,
			Code:    fault.Code,
			Message: fault.Message,
		}}
	}
	pkg := opts.Package
	if pkg == "" {
		pkg = "schema"
	}
	return gen.RenderFile(pkg, unit, gen.DefaultProfile())
}
