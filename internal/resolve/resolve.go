// Package resolve walks a loaded schema graph and produces the canonical,
// deduplicated type graph handed to the code generator. It owns structural
// fingerprinting, naming, composition merging, and cycle marking.
package resolve

import (
	"fmt"
	"sort"

	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/naming"
	js "github.com/typeforge/typeforge/jsonschema"
)

// Fault codes mirror the root package's diagnostic codes; kept as plain
// strings to decouple layers.
const (
	CodeDanglingReference       = "dangling_reference"
	CodeUnsupportedKeyword      = "unsupported_keyword"
	CodeIncompatibleComposition = "incompatible_composition"
)

// Fault reports an irreconcilable schema construct. The root package converts
// Faults into user-facing diagnostics.
type Fault struct {
	File    string
	Path    string
	Code    string
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at %s#%s: %s", f.Code, f.File, f.Path, f.Message)
}

func faultAt(s *js.Schema, code, msg string) *Fault {
	return &Fault{File: s.File, Path: s.Path, Code: code, Message: msg}
}

// Resolve turns the linked schema graph into a generation unit. rootName is
// the name used for an untitled root schema. Resolution is all-or-nothing:
// the first Fault aborts with no partial unit.
func Resolve(root *js.Schema, rootName string) (*ir.Unit, *Fault) {
	r := newResolver()

	defs := collectDefs(root)
	// The root schema is declared first so its name wins collision
	// disambiguation; a root that is nothing but a definition container
	// produces no type of its own.
	if !(root.Kind() == js.KindAny && len(defs) > 0) {
		if _, f := r.declare(root, rootName); f != nil {
			return nil, f
		}
	}
	for _, d := range defs {
		if _, f := r.declare(d.schema, d.name); f != nil {
			return nil, f
		}
	}

	for len(r.queue) > 0 {
		p := r.queue[0]
		r.queue = r.queue[1:]
		if f := r.build(p); f != nil {
			return nil, f
		}
	}

	unit := r.unit()
	markIndirection(unit)
	return unit, nil
}

type namedSchema struct {
	name   string
	schema *js.Schema
}

// collectDefs gathers definitions/$defs entries in sorted-name order,
// recursing into nested definition blocks.
func collectDefs(s *js.Schema) []namedSchema {
	var out []namedSchema
	for _, name := range s.DefNames {
		def := s.Definitions[name]
		out = append(out, namedSchema{name: name, schema: def})
		out = append(out, collectDefs(def)...)
	}
	return out
}

type pending struct {
	name   string
	schema *js.Schema // normalized
	def    ir.Def     // nil until built
}

type resolver struct {
	byFP    map[string]*pending
	byName  map[string]*pending
	byNode  map[*js.Schema]*pending
	ordered []*pending // first-seen order
	queue   []*pending

	fpMemo  map[*js.Schema]string
	fpState map[*js.Schema]int // 0 untouched, 1 in progress, 2 done
	merged  map[*js.Schema]*js.Schema
}

func newResolver() *resolver {
	return &resolver{
		byFP:    map[string]*pending{},
		byName:  map[string]*pending{},
		byNode:  map[*js.Schema]*pending{},
		fpMemo:  map[*js.Schema]string{},
		fpState: map[*js.Schema]int{},
		merged:  map[*js.Schema]*js.Schema{},
	}
}

// nameable reports whether a normalized schema carries its own generated type
// (structural dedup applies only to these shapes; primitives, arrays, and
// maps stay inline unless a definition gives them an alias identity).
func nameable(s *js.Schema) bool {
	switch s.Kind() {
	case js.KindEnum, js.KindUnion:
		return true
	case js.KindObject:
		return len(s.Properties) > 0
	}
	return false
}

// declare registers a generated type for the schema, reusing an existing
// identity when the structural fingerprint matches. The body is built later
// from the work queue so that definition names are assigned before any
// property traversal can invent synthetic ones.
func (r *resolver) declare(s *js.Schema, hint string) (*pending, *Fault) {
	d, f := r.normalize(s)
	if f != nil {
		return nil, f
	}
	if p, ok := r.byNode[d]; ok {
		return p, nil
	}
	fp, f := r.fingerprint(d)
	if f != nil {
		return nil, f
	}
	if nameable(d) {
		if p, ok := r.byFP[fp]; ok {
			return p, nil
		}
	}
	name := naming.Exported(d.Title)
	if name == "" {
		name = naming.Exported(hint)
	}
	if name == "" {
		name = "Root"
	}
	name = r.uniqueName(name)
	p := &pending{name: name, schema: d}
	r.byName[name] = p
	r.byNode[d] = p
	if nameable(d) {
		r.byFP[fp] = p
	}
	r.ordered = append(r.ordered, p)
	r.queue = append(r.queue, p)
	return p, nil
}

func (r *resolver) uniqueName(base string) string {
	if _, taken := r.byName[base]; !taken {
		return base
	}
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s%d", base, i)
		if _, taken := r.byName[name]; !taken {
			return name
		}
	}
}

// build fills in the Def body for a declared type.
func (r *resolver) build(p *pending) *Fault {
	d := p.schema
	switch {
	case d.Kind() == js.KindEnum:
		return r.buildEnum(p)
	case d.Kind() == js.KindUnion:
		return r.buildUnion(p)
	case d.Kind() == js.KindObject && len(d.Properties) > 0:
		return r.buildStruct(p)
	default:
		// Definition entries for primitives, arrays, maps, or empty schemas
		// become named aliases.
		tr, f := r.inlineRef(d, p.name)
		if f != nil {
			return f
		}
		p.def = &ir.Alias{Name: p.name, Doc: d.Description, Type: tr}
		return nil
	}
}

func (r *resolver) buildStruct(p *pending) *Fault {
	d := p.schema
	fields := make([]ir.Field, 0, len(d.PropNames))
	for _, name := range d.PropNames {
		prop := d.Properties[name]
		tr, f := r.typeRef(prop, p.name+naming.Exported(name))
		if f != nil {
			return f
		}
		doc := prop.Description
		if doc == "" && prop.Target != nil {
			doc = prop.Target.Description
		}
		fields = append(fields, ir.Field{
			Name:     name,
			Type:     tr,
			Optional: !d.IsRequired(name),
			Doc:      doc,
		})
	}
	p.def = &ir.Struct{Name: p.name, Doc: d.Description, Fields: fields}
	return nil
}

func (r *resolver) buildEnum(p *pending) *Fault {
	d := p.schema
	base, f := enumBase(d)
	if f != nil {
		return f
	}
	values := append([]any(nil), d.Enum...)
	p.def = &ir.Enum{Name: p.name, Doc: d.Description, Base: base, Values: values}
	return nil
}

func enumBase(d *js.Schema) (string, *Fault) {
	base := ""
	for _, v := range d.Enum {
		var kind string
		switch v.(type) {
		case string:
			kind = "string"
		case int64:
			kind = "integer"
		default:
			return "", faultAt(d, CodeUnsupportedKeyword,
				fmt.Sprintf("enum literal %v is neither a string nor an integer", v))
		}
		if base == "" {
			base = kind
		} else if base != kind {
			return "", faultAt(d, CodeUnsupportedKeyword, "enum mixes literal kinds")
		}
	}
	return base, nil
}

func (r *resolver) buildUnion(p *pending) *Fault {
	d := p.schema
	members := d.Variants()
	variants := make([]ir.Variant, 0, len(members))
	seen := map[string]int{}
	for i, m := range members {
		n, f := r.normalize(m)
		if f != nil {
			return f
		}
		name, f := r.variantName(n, p.name, i)
		if f != nil {
			return f
		}
		if c := seen[name]; c > 0 {
			seen[name] = c + 1
			name = fmt.Sprintf("%s%d", name, c+1)
		} else {
			seen[name] = 1
		}
		tr, f := r.typeRef(m, p.name+name)
		if f != nil {
			return f
		}
		variants = append(variants, ir.Variant{Name: name, Type: tr})
	}
	p.def = &ir.Union{Name: p.name, Doc: d.Description, Variants: variants}
	return nil
}

// variantName derives the tag name for one union member. Titles win; shapes
// that carry their own generated type use its name; primitives use theirs.
func (r *resolver) variantName(n *js.Schema, parent string, idx int) (string, *Fault) {
	if t := naming.Exported(n.Title); t != "" {
		return t, nil
	}
	switch n.Kind() {
	case js.KindPrimitive:
		types := n.PrimitiveTypes()
		if len(types) == 1 {
			return naming.Exported(types[0]), nil
		}
	case js.KindArray:
		return "Array", nil
	case js.KindMap:
		return "Map", nil
	case js.KindAny:
		return "Any", nil
	case js.KindObject, js.KindEnum, js.KindUnion:
		if len(n.Properties) > 0 || n.Kind() != js.KindObject {
			p, f := r.declare(n, fmt.Sprintf("%sVariant%d", parent, idx))
			if f != nil {
				return "", f
			}
			return p.name, nil
		}
		return "Map", nil
	}
	return fmt.Sprintf("Variant%d", idx), nil
}

// typeRef resolves a schema position to the type expression used at that
// position, declaring named types on demand.
func (r *resolver) typeRef(s *js.Schema, hint string) (ir.TypeRef, *Fault) {
	d, f := r.normalize(s)
	if f != nil {
		return ir.TypeRef{}, f
	}
	if p, ok := r.byNode[d]; ok {
		return ir.TypeRef{Named: p.name, Nullable: d.Nullable()}, nil
	}
	return r.inlineRef(d, hint)
}

// inlineRef renders the type expression for a normalized schema without
// consulting the identity of the node itself (used for alias bodies).
func (r *resolver) inlineRef(d *js.Schema, hint string) (ir.TypeRef, *Fault) {
	nullable := d.Nullable()
	switch d.Kind() {
	case js.KindAny:
		return ir.TypeRef{Primitive: "any"}, nil
	case js.KindPrimitive:
		types := d.PrimitiveTypes()
		if len(types) > 1 {
			return ir.TypeRef{}, faultAt(d, CodeUnsupportedKeyword,
				"multiple non-null types are not modeled")
		}
		return ir.TypeRef{Primitive: types[0], Nullable: nullable}, nil
	case js.KindArray:
		if d.Items == nil {
			elem := ir.TypeRef{Primitive: "any"}
			return ir.TypeRef{Array: &elem, Nullable: nullable}, nil
		}
		elem, f := r.typeRef(d.Items, hint+"Item")
		if f != nil {
			return ir.TypeRef{}, f
		}
		return ir.TypeRef{Array: &elem, Nullable: nullable}, nil
	case js.KindMap:
		if d.AdditionalProperties == nil {
			// additionalProperties: true constrains nothing.
			val := ir.TypeRef{Primitive: "any"}
			return ir.TypeRef{Map: &val, Nullable: nullable}, nil
		}
		val, f := r.typeRef(d.AdditionalProperties, hint+"Value")
		if f != nil {
			return ir.TypeRef{}, f
		}
		return ir.TypeRef{Map: &val, Nullable: nullable}, nil
	case js.KindObject:
		if len(d.Properties) == 0 {
			// Bare object schemas carry no field information: an open map.
			val := ir.TypeRef{Primitive: "any"}
			return ir.TypeRef{Map: &val, Nullable: nullable}, nil
		}
		p, f := r.declare(d, hint)
		if f != nil {
			return ir.TypeRef{}, f
		}
		return ir.TypeRef{Named: p.name, Nullable: nullable}, nil
	case js.KindEnum, js.KindUnion:
		p, f := r.declare(d, hint)
		if f != nil {
			return ir.TypeRef{}, f
		}
		return ir.TypeRef{Named: p.name, Nullable: nullable}, nil
	default:
		return ir.TypeRef{}, faultAt(d, CodeUnsupportedKeyword, "schema shape is not modeled")
	}
}

// normalize chases references, unwraps single-variant unions, and merges
// allOf compositions until a structural shape remains.
func (r *resolver) normalize(s *js.Schema) (*js.Schema, *Fault) {
	visited := map[*js.Schema]bool{}
	for {
		switch {
		case s.Ref != "":
			if visited[s] {
				return nil, faultAt(s, CodeDanglingReference, "reference cycle with no structural schema")
			}
			visited[s] = true
			if s.Target == nil {
				return nil, faultAt(s, CodeDanglingReference, fmt.Sprintf("$ref %q is unresolved", s.Ref))
			}
			s = s.Target
		case s.Kind() == js.KindAllOf:
			m, f := r.mergeAllOf(s)
			if f != nil {
				return nil, f
			}
			s = m
		case s.Kind() == js.KindUnion && len(s.Variants()) == 1:
			// A one-armed union is not a union.
			s = s.Variants()[0]
		default:
			return s, nil
		}
	}
}

// mergeAllOf folds the members of an allOf (plus any sibling properties) into
// one synthetic object schema. Members must be object shapes; a property
// defined by two members with different structure is irreconcilable.
func (r *resolver) mergeAllOf(s *js.Schema) (*js.Schema, *Fault) {
	if m, ok := r.merged[s]; ok {
		return m, nil
	}
	out := &js.Schema{
		File:        s.File,
		Path:        s.Path,
		Title:       s.Title,
		Description: s.Description,
		Types:       []string{"object"},
		Properties:  map[string]*js.Schema{},
		Required:    map[string]struct{}{},
	}
	// Register before descending: an allOf member may reference the
	// composition itself.
	r.merged[s] = out

	members := make([]*js.Schema, 0, len(s.AllOf)+1)
	if len(s.Properties) > 0 || len(s.Required) > 0 {
		members = append(members, &js.Schema{
			File:       s.File,
			Path:       s.Path,
			Types:      []string{"object"},
			Properties: s.Properties,
			PropNames:  s.PropNames,
			Required:   s.Required,
		})
	}
	members = append(members, s.AllOf...)

	for _, raw := range members {
		m, f := r.normalize(raw)
		if f != nil {
			return nil, f
		}
		if m.Kind() != js.KindObject {
			return nil, faultAt(raw, CodeIncompatibleComposition, "allOf member is not an object schema")
		}
		for _, name := range m.PropNames {
			prop := m.Properties[name]
			if prev, ok := out.Properties[name]; ok {
				same, f := r.sameShape(prev, prop)
				if f != nil {
					return nil, f
				}
				if !same {
					return nil, faultAt(raw, CodeIncompatibleComposition,
						fmt.Sprintf("property %q is defined with conflicting types", name))
				}
				continue
			}
			out.Properties[name] = prop
			out.PropNames = append(out.PropNames, name)
		}
		for name := range m.Required {
			out.Required[name] = struct{}{}
		}
	}
	sort.Strings(out.PropNames)
	return out, nil
}

func (r *resolver) sameShape(a, b *js.Schema) (bool, *Fault) {
	fa, f := r.fingerprint(a)
	if f != nil {
		return false, f
	}
	fb, f := r.fingerprint(b)
	if f != nil {
		return false, f
	}
	return fa == fb, nil
}

func (r *resolver) unit() *ir.Unit {
	sorted := append([]*pending(nil), r.ordered...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	u := &ir.Unit{ByName: make(map[string]ir.Def, len(sorted))}
	for _, p := range sorted {
		u.Defs = append(u.Defs, p.def)
		u.ByName[p.name] = p.def
	}
	return u
}
