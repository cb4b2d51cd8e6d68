package resolve

import (
	"fmt"
	"strings"

	js "github.com/typeforge/typeforge/jsonschema"
)

// fingerprint computes the structural dedup key for a schema: shape plus
// recursively fingerprinted children. Nodes re-entered during their own
// computation (cycles) contribute a marker derived from their canonical
// location, which is stable for a given input.
func (r *resolver) fingerprint(s *js.Schema) (string, *Fault) {
	d, f := r.normalize(s)
	if f != nil {
		return "", f
	}
	switch r.fpState[d] {
	case 2:
		return r.fpMemo[d], nil
	case 1:
		return "rec:" + d.File + "#" + d.Path, nil
	}
	r.fpState[d] = 1
	fp, f := r.computeFP(d)
	if f != nil {
		r.fpState[d] = 0
		return "", f
	}
	r.fpState[d] = 2
	r.fpMemo[d] = fp
	return fp, nil
}

func (r *resolver) computeFP(d *js.Schema) (string, *Fault) {
	var fp string
	switch d.Kind() {
	case js.KindAny:
		fp = "any"
	case js.KindPrimitive:
		types := d.PrimitiveTypes()
		if len(types) > 1 {
			return "", faultAt(d, CodeUnsupportedKeyword, "multiple non-null types are not modeled")
		}
		fp = "prim:" + types[0]
	case js.KindArray:
		if d.Items == nil {
			fp = "arr(any)"
			break
		}
		inner, f := r.fingerprint(d.Items)
		if f != nil {
			return "", f
		}
		fp = "arr(" + inner + ")"
	case js.KindMap:
		if d.AdditionalProperties == nil {
			fp = "map(any)"
			break
		}
		inner, f := r.fingerprint(d.AdditionalProperties)
		if f != nil {
			return "", f
		}
		fp = "map(" + inner + ")"
	case js.KindObject:
		if len(d.Properties) == 0 {
			fp = "map(any)"
			break
		}
		b := &strings.Builder{}
		b.WriteString("obj(")
		for i, name := range d.PropNames {
			if i > 0 {
				b.WriteByte(',')
			}
			inner, f := r.fingerprint(d.Properties[name])
			if f != nil {
				return "", f
			}
			mark := "?"
			if d.IsRequired(name) {
				mark = "!"
			}
			fmt.Fprintf(b, "%q%s%s", name, mark, inner)
		}
		b.WriteByte(')')
		fp = b.String()
	case js.KindEnum:
		b := &strings.Builder{}
		b.WriteString("enum(")
		for i, v := range d.Enum {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(formatLiteral(v))
		}
		b.WriteByte(')')
		fp = b.String()
	case js.KindUnion:
		b := &strings.Builder{}
		b.WriteString("union(")
		for i, m := range d.Variants() {
			if i > 0 {
				b.WriteByte(',')
			}
			inner, f := r.fingerprint(m)
			if f != nil {
				return "", f
			}
			b.WriteString(inner)
		}
		b.WriteByte(')')
		fp = b.String()
	default:
		return "", faultAt(d, CodeUnsupportedKeyword, "schema shape is not modeled")
	}
	if d.Nullable() {
		fp = "null(" + fp + ")"
	}
	return fp, nil
}

// formatLiteral renders an enum literal unambiguously across literal kinds.
func formatLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case int64:
		return fmt.Sprintf("%d", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case float64:
		return fmt.Sprintf("%g", t)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}
