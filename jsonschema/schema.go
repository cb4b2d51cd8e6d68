// Package jsonschema loads JSON Schema documents into a linked in-memory
// graph. It models the structural subset of the vocabulary this generator
// understands; anything outside that subset fails loudly at load time.
package jsonschema

// Kind classifies the structural shape of a schema node.
type Kind int

const (
	KindAny Kind = iota // empty schema: any value
	KindRef
	KindEnum
	KindAllOf
	KindUnion // oneOf / anyOf
	KindObject
	KindMap // object with no properties, additionalProperties schema
	KindArray
	KindPrimitive
)

// Schema is one node of a loaded schema document. Nodes are built fresh per
// load and are owned by the document graph; they are never mutated after
// linking.
type Schema struct {
	// File and Path locate the node for diagnostics: the source file and the
	// JSON Pointer of the node within it.
	File string
	Path string

	// Ref is the raw $ref string; Target is the linked node it resolves to.
	Ref    string
	Target *Schema

	Title       string
	Description string

	// Types is the normalized "type" keyword: always a list, possibly empty.
	Types []string

	// Object keywords. PropNames carries property names in sorted order so
	// every observable iteration is deterministic.
	Properties map[string]*Schema
	PropNames  []string
	Required   map[string]struct{}

	// AdditionalProperties holds the schema form of the keyword; the boolean
	// forms collapse to AdditionalAny (true) or nothing (false/absent).
	AdditionalProperties *Schema
	AdditionalAny        bool

	// Array keywords.
	Items *Schema

	// Enum literals in declared order. A "const" keyword loads as a
	// single-element enum.
	Enum []any

	// Composition keywords.
	AllOf []*Schema
	OneOf []*Schema
	AnyOf []*Schema

	// Definitions merges "definitions" and "$defs"; DefNames is sorted.
	Definitions map[string]*Schema
	DefNames    []string
}

// Kind reports the structural classification used by the resolver. Reference
// nodes classify as KindRef regardless of any sibling keywords.
func (s *Schema) Kind() Kind {
	switch {
	case s == nil:
		return KindAny
	case s.Ref != "":
		return KindRef
	case len(s.Enum) > 0:
		return KindEnum
	case len(s.AllOf) > 0:
		return KindAllOf
	case len(s.OneOf) > 0 || len(s.AnyOf) > 0:
		return KindUnion
	case s.hasType("object") || len(s.Properties) > 0:
		if len(s.Properties) == 0 && (s.AdditionalProperties != nil || s.AdditionalAny) {
			return KindMap
		}
		return KindObject
	case s.hasType("array") || s.Items != nil:
		return KindArray
	case len(s.nonNullTypes()) > 0:
		return KindPrimitive
	default:
		return KindAny
	}
}

// Variants returns the union members, oneOf taking precedence over anyOf.
func (s *Schema) Variants() []*Schema {
	if len(s.OneOf) > 0 {
		return s.OneOf
	}
	return s.AnyOf
}

// Nullable reports whether the type list admits null alongside another type.
func (s *Schema) Nullable() bool {
	for _, t := range s.Types {
		if t == "null" {
			return len(s.Types) > 1
		}
	}
	return false
}

// PrimitiveTypes returns the non-null entries of the type list.
func (s *Schema) PrimitiveTypes() []string { return s.nonNullTypes() }

// IsRequired reports whether the named property is in the required set.
func (s *Schema) IsRequired(name string) bool {
	_, ok := s.Required[name]
	return ok
}

func (s *Schema) hasType(t string) bool {
	for _, v := range s.Types {
		if v == t {
			return true
		}
	}
	return false
}

func (s *Schema) nonNullTypes() []string {
	out := make([]string, 0, len(s.Types))
	for _, t := range s.Types {
		if t != "null" {
			out = append(out, t)
		}
	}
	return out
}
