package typeforge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/kaptinlin/jsonrepair"
	"gopkg.in/yaml.v3"

	js "github.com/typeforge/typeforge/jsonschema"
)

// LoadOptions controls schema ingestion.
type LoadOptions struct {
	// Repair recovers sloppy JSON (trailing commas, comments) before parsing.
	// Off by default: malformed input fails with CodeMalformedSchema.
	Repair bool
}

// LoadSchema reads the root schema at path (a file, or a directory holding a
// single schema file) together with every schema it references, and returns
// the fully linked root node. It never mutates the input files.
func LoadSchema(path string, opts LoadOptions) (*js.Schema, error) {
	root, err := rootSchemaFile(path)
	if err != nil {
		return nil, err
	}
	ld := &loader{opts: opts, docs: map[string]*document{}}
	doc, err := ld.loadFile(root)
	if err != nil {
		return nil, err
	}
	return doc.root, nil
}

// ParseSchema parses and links a schema document held in memory. The name is
// used in diagnostics only; in-memory documents cannot reference other files.
func ParseSchema(data []byte, name string, opts LoadOptions) (*js.Schema, error) {
	ld := &loader{opts: opts, docs: map[string]*document{}}
	doc, err := ld.parse(data, name, false)
	if err != nil {
		return nil, err
	}
	if err := ld.link(doc); err != nil {
		return nil, err
	}
	return doc.root, nil
}

// rootSchemaFile resolves a directory argument to the schema file inside it.
func rootSchemaFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", Diagnostics{{File: path, Path: "/", Code: CodeMalformedSchema, Message: "cannot read input", Cause: err}}
	}
	if !info.IsDir() {
		return path, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", Diagnostics{{File: path, Path: "/", Code: CodeMalformedSchema, Message: "cannot read input directory", Cause: err}}
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".json", ".yaml", ".yml":
			if e.Name() == "schema.json" {
				return filepath.Join(path, e.Name()), nil
			}
			candidates = append(candidates, filepath.Join(path, e.Name()))
		}
	}
	if len(candidates) != 1 {
		return "", Diagnostics{{File: path, Path: "/", Code: CodeMalformedSchema,
			Message: fmt.Sprintf("cannot determine root schema: %d candidate files", len(candidates))}}
	}
	return candidates[0], nil
}

type loader struct {
	opts LoadOptions
	docs map[string]*document
}

// document is one parsed schema file plus its pointer index, used for linking.
type document struct {
	file   string
	root   *js.Schema
	nodes  []*js.Schema
	index  map[string]*js.Schema
	linked bool
}

func (ld *loader) loadFile(path string) (*document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if doc, ok := ld.docs[abs]; ok {
		return doc, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, Diagnostics{{File: path, Path: "/", Code: CodeMalformedSchema, Message: "cannot read schema file", Cause: err}}
	}
	ext := filepath.Ext(abs)
	doc, err := ld.parse(data, abs, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return nil, err
	}
	// Register before linking so mutually referencing files terminate.
	ld.docs[abs] = doc
	if err := ld.link(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (ld *loader) parse(data []byte, file string, isYAML bool) (*document, error) {
	var raw any
	if isYAML {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, Diagnostics{{File: file, Path: "/", Code: CodeMalformedSchema, Message: "invalid YAML", Cause: err}}
		}
		raw = normalizeYAML(raw)
	} else {
		if err := j.Unmarshal(data, &raw); err != nil {
			if !ld.opts.Repair {
				return nil, Diagnostics{{File: file, Path: "/", Code: CodeMalformedSchema, Message: "invalid JSON", Cause: err}}
			}
			repaired, rerr := jsonrepair.JSONRepair(string(data))
			if rerr != nil {
				return nil, Diagnostics{{File: file, Path: "/", Code: CodeMalformedSchema,
					Message: "invalid JSON and repair failed", Cause: err}}
			}
			if err := j.Unmarshal([]byte(repaired), &raw); err != nil {
				return nil, Diagnostics{{File: file, Path: "/", Code: CodeMalformedSchema, Message: "invalid JSON after repair", Cause: err}}
			}
		}
	}
	doc := &document{file: file, index: map[string]*js.Schema{}}
	root, err := ld.build(raw, RootRef(file), doc)
	if err != nil {
		return nil, err
	}
	doc.root = root
	return doc, nil
}

// Keyword tables. Anything not listed is a construct this generator does not
// model and fails with CodeUnsupportedKeyword rather than being dropped.
var (
	structuralKeywords = map[string]bool{
		"$ref": true, "type": true, "properties": true, "required": true,
		"items": true, "enum": true, "const": true,
		"allOf": true, "oneOf": true, "anyOf": true,
		"definitions": true, "$defs": true, "additionalProperties": true,
	}
	// Annotations carried into the output or safely ignorable.
	annotationKeywords = map[string]bool{
		"$schema": true, "$id": true, "id": true, "$comment": true,
		"title": true, "description": true, "default": true, "examples": true,
		"deprecated": true, "readOnly": true, "writeOnly": true, "format": true,
	}
	// Value constraints that do not change the generated type shape.
	constraintKeywords = map[string]bool{
		"minLength": true, "maxLength": true, "pattern": true,
		"minimum": true, "maximum": true, "exclusiveMinimum": true,
		"exclusiveMaximum": true, "multipleOf": true,
		"minItems": true, "maxItems": true, "uniqueItems": true,
		"minProperties": true, "maxProperties": true,
	}
	validTypeNames = map[string]bool{
		"string": true, "number": true, "integer": true,
		"boolean": true, "object": true, "array": true, "null": true,
	}
)

func (ld *loader) build(v any, ref PathRef, doc *document) (*js.Schema, error) {
	switch t := v.(type) {
	case bool:
		if !t {
			return nil, Diagnostics{ref.Diag(CodeUnsupportedKeyword, "boolean 'false' schema has no type rendering")}
		}
		s := &js.Schema{File: doc.file, Path: ref.Pointer()}
		doc.register(ref, s)
		return s, nil
	case map[string]any:
		return ld.buildObject(t, ref, doc)
	default:
		return nil, Diagnostics{ref.Diag(CodeMalformedSchema, fmt.Sprintf("schema must be an object or boolean, got %T", v))}
	}
}

func (ld *loader) buildObject(m map[string]any, ref PathRef, doc *document) (*js.Schema, error) {
	s := &js.Schema{File: doc.file, Path: ref.Pointer()}
	doc.register(ref, s)

	for _, key := range sortedKeys(m) {
		if structuralKeywords[key] || annotationKeywords[key] || constraintKeywords[key] {
			continue
		}
		return nil, Diagnostics{ref.Field(key).Diag(CodeUnsupportedKeyword, "keyword not modeled by this generator")}
	}

	if v, ok := m["title"]; ok {
		s.Title, _ = v.(string)
	}
	if v, ok := m["description"]; ok {
		s.Description, _ = v.(string)
	}
	if v, ok := m["$ref"]; ok {
		str, ok := v.(string)
		if !ok || str == "" {
			return nil, Diagnostics{ref.Field("$ref").Diag(CodeMalformedSchema, "$ref must be a non-empty string")}
		}
		s.Ref = str
		doc.nodes = append(doc.nodes, s)
		return s, nil // siblings of $ref are ignored per draft-07 semantics
	}

	if v, ok := m["type"]; ok {
		types, err := typeList(v, ref)
		if err != nil {
			return nil, err
		}
		s.Types = types
	}

	if v, ok := m["properties"]; ok {
		props, ok := v.(map[string]any)
		if !ok {
			return nil, Diagnostics{ref.Field("properties").Diag(CodeMalformedSchema, "properties must be an object")}
		}
		s.Properties = make(map[string]*js.Schema, len(props))
		s.PropNames = sortedKeys(props)
		for _, name := range s.PropNames {
			child, err := ld.build(props[name], ref.Field("properties").Field(name), doc)
			if err != nil {
				return nil, err
			}
			s.Properties[name] = child
		}
	}

	if v, ok := m["required"]; ok {
		list, ok := v.([]any)
		if !ok {
			return nil, Diagnostics{ref.Field("required").Diag(CodeMalformedSchema, "required must be an array")}
		}
		s.Required = make(map[string]struct{}, len(list))
		for i, e := range list {
			name, ok := e.(string)
			if !ok {
				return nil, Diagnostics{ref.Field("required").Index(i).Diag(CodeMalformedSchema, "required entries must be strings")}
			}
			s.Required[name] = struct{}{}
		}
	}

	if v, ok := m["items"]; ok {
		if _, isList := v.([]any); isList {
			return nil, Diagnostics{ref.Field("items").Diag(CodeUnsupportedKeyword, "tuple-form items is not modeled")}
		}
		child, err := ld.build(v, ref.Field("items"), doc)
		if err != nil {
			return nil, err
		}
		s.Items = child
	}

	if v, ok := m["enum"]; ok {
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			return nil, Diagnostics{ref.Field("enum").Diag(CodeMalformedSchema, "enum must be a non-empty array")}
		}
		s.Enum = normalizeLiterals(list)
	}
	if v, ok := m["const"]; ok {
		s.Enum = normalizeLiterals([]any{v})
	}

	for _, kw := range []string{"allOf", "oneOf", "anyOf"} {
		v, ok := m[kw]
		if !ok {
			continue
		}
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			return nil, Diagnostics{ref.Field(kw).Diag(CodeMalformedSchema, kw + " must be a non-empty array")}
		}
		members := make([]*js.Schema, len(list))
		for i, e := range list {
			child, err := ld.build(e, ref.Field(kw).Index(i), doc)
			if err != nil {
				return nil, err
			}
			members[i] = child
		}
		switch kw {
		case "allOf":
			s.AllOf = members
		case "oneOf":
			s.OneOf = members
		case "anyOf":
			s.AnyOf = members
		}
	}

	if v, ok := m["additionalProperties"]; ok {
		if b, ok := v.(bool); ok {
			s.AdditionalAny = b
		} else {
			child, err := ld.build(v, ref.Field("additionalProperties"), doc)
			if err != nil {
				return nil, err
			}
			s.AdditionalProperties = child
		}
	}

	for _, kw := range []string{"definitions", "$defs"} {
		v, ok := m[kw]
		if !ok {
			continue
		}
		defs, ok := v.(map[string]any)
		if !ok {
			return nil, Diagnostics{ref.Field(kw).Diag(CodeMalformedSchema, kw + " must be an object")}
		}
		if s.Definitions == nil {
			s.Definitions = map[string]*js.Schema{}
		}
		for _, name := range sortedKeys(defs) {
			child, err := ld.build(defs[name], ref.Field(kw).Field(name), doc)
			if err != nil {
				return nil, err
			}
			s.Definitions[name] = child
			s.DefNames = append(s.DefNames, name)
		}
	}
	sort.Strings(s.DefNames)

	doc.nodes = append(doc.nodes, s)
	return s, nil
}

func typeList(v any, ref PathRef) ([]string, error) {
	switch t := v.(type) {
	case string:
		if !validTypeNames[t] {
			return nil, Diagnostics{ref.Field("type").Diag(CodeMalformedSchema, fmt.Sprintf("unknown type name %q", t))}
		}
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, e := range t {
			name, ok := e.(string)
			if !ok || !validTypeNames[name] {
				return nil, Diagnostics{ref.Field("type").Index(i).Diag(CodeMalformedSchema, "unknown type name")}
			}
			out = append(out, name)
		}
		return out, nil
	default:
		return nil, Diagnostics{ref.Field("type").Diag(CodeMalformedSchema, "type must be a string or array of strings")}
	}
}

// link resolves every $ref in the document, loading referenced files on
// demand. All link failures in the document are collected before reporting so
// one pass surfaces every dangling reference.
func (ld *loader) link(doc *document) error {
	if doc.linked {
		return nil
	}
	doc.linked = true
	var all Diagnostics
	for _, node := range doc.nodes {
		if node.Ref == "" || node.Target != nil {
			continue
		}
		target, err := ld.resolve(node.Ref, node, doc)
		if err != nil {
			if ds, ok := AsDiagnostics(err); ok {
				all = AppendDiagnostics(all, ds...)
				continue
			}
			return err
		}
		node.Target = target
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

func (ld *loader) resolve(ref string, from *js.Schema, doc *document) (*js.Schema, error) {
	filePart, frag, _ := strings.Cut(ref, "#")
	target := doc
	if filePart != "" {
		path := filePart
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(doc.file), filePart)
		}
		loaded, err := ld.loadFile(path)
		if err != nil {
			if ds, ok := AsDiagnostics(err); ok && len(ds) > 0 && ds[0].Code == CodeMalformedSchema && ds[0].Message == "cannot read schema file" {
				return nil, Diagnostics{RefAt(from.File, from.Path).Diag(CodeDanglingReference,
					fmt.Sprintf("$ref %q: referenced file not found", ref))}
			}
			return nil, err
		}
		target = loaded
	}
	if frag == "" || frag == "/" {
		return target.root, nil
	}
	if !strings.HasPrefix(frag, "/") {
		return nil, Diagnostics{RefAt(from.File, from.Path).Diag(CodeDanglingReference,
			fmt.Sprintf("$ref %q: only JSON Pointer fragments are supported", ref))}
	}
	if node, ok := target.index[frag]; ok {
		// References to references flatten at the final target.
		for node.Ref != "" && node.Target != nil {
			node = node.Target
		}
		return node, nil
	}
	return nil, Diagnostics{RefAt(from.File, from.Path).Diag(CodeDanglingReference,
		fmt.Sprintf("$ref %q does not resolve to a schema", ref))}
}

func (doc *document) register(ref PathRef, s *js.Schema) {
	doc.index[ref.Pointer()] = s
}

// normalizeYAML converts yaml.v3 decoding artifacts into the map[string]any
// shape the JSON path produces, so one builder serves both formats.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeYAML(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}

// normalizeLiterals folds integral float64 values (the JSON decoding of whole
// numbers) into int64 so literal formatting is stable across JSON and YAML.
func normalizeLiterals(list []any) []any {
	out := make([]any, len(list))
	for i, v := range list {
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			out[i] = int64(f)
			continue
		}
		if n, ok := v.(int); ok {
			out[i] = int64(n)
			continue
		}
		out[i] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
