// Package gen renders a resolved type graph as Go source. Output is
// deterministic and syntactically valid but deliberately unformatted;
// pretty-printing belongs to the external formatter stage.
package gen

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/naming"
)

// Profile carries the target rendering rules: the primitive mapping table and
// the struct tag key. The zero value is not usable; start from DefaultProfile.
type Profile struct {
	Primitives map[string]string
	TagKey     string
}

// DefaultProfile maps schema primitives to their idiomatic Go counterparts.
func DefaultProfile() Profile {
	return Profile{
		Primitives: map[string]string{
			"string":  "string",
			"boolean": "bool",
			"integer": "int64",
			"number":  "float64",
			"any":     "any",
		},
		TagKey: "json",
	}
}

// RenderFile renders the unit as one Go source buffer for the given package.
func RenderFile(pkg string, unit *ir.Unit, prof Profile) ([]byte, error) {
	r := &renderer{prof: prof}
	body := &strings.Builder{}
	for _, def := range unit.Defs {
		var err error
		switch d := def.(type) {
		case *ir.Struct:
			err = r.renderStruct(body, d)
		case *ir.Enum:
			err = r.renderEnum(body, d)
		case *ir.Union:
			err = r.renderUnion(body, d)
		case *ir.Alias:
			err = r.renderAlias(body, d)
		default:
			err = fmt.Errorf("gen: unknown def kind %T", def)
		}
		if err != nil {
			return nil, err
		}
	}

	out := &strings.Builder{}
	out.WriteString("// Code generated by typeforge. DO NOT EDIT.\n\n")
	fmt.Fprintf(out, "package %s\n\n", pkg)
	switch {
	case r.needsJSON && r.needsFmt:
		out.WriteString("import (\n\"encoding/json\"\n\"fmt\"\n)\n\n")
	case r.needsJSON:
		out.WriteString("import \"encoding/json\"\n\n")
	case r.needsFmt:
		out.WriteString("import \"fmt\"\n\n")
	}
	out.WriteString(body.String())
	return []byte(out.String()), nil
}

type renderer struct {
	prof      Profile
	needsJSON bool
	needsFmt  bool
}

func (r *renderer) renderStruct(b *strings.Builder, d *ir.Struct) error {
	writeDoc(b, d.Doc)
	fmt.Fprintf(b, "type %s struct {\n", d.Name)
	seen := map[string]int{}
	for _, f := range d.Fields {
		goName := naming.Exported(f.Name)
		if goName == "" {
			goName = "Field"
		}
		if n := seen[goName]; n > 0 {
			seen[goName] = n + 1
			goName = fmt.Sprintf("%s%d", goName, n+1)
		} else {
			seen[goName] = 1
		}
		expr, err := r.typeExpr(f.Type, f.Optional)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", d.Name, f.Name, err)
		}
		writeDoc(b, f.Doc)
		tag := f.Name
		if f.Optional {
			tag += ",omitempty"
		}
		fmt.Fprintf(b, "%s %s `%s:%q`\n", goName, expr, r.prof.TagKey, tag)
	}
	b.WriteString("}\n\n")
	return nil
}

func (r *renderer) renderEnum(b *strings.Builder, d *ir.Enum) error {
	r.needsJSON = true
	r.needsFmt = true
	base, ok := r.prof.Primitives[d.Base]
	if !ok {
		return fmt.Errorf("%s: no primitive mapping for enum base %q", d.Name, d.Base)
	}
	writeDoc(b, d.Doc)
	fmt.Fprintf(b, "type %s %s\n\n", d.Name, base)

	names := make([]string, len(d.Values))
	seen := map[string]int{}
	b.WriteString("const (\n")
	for i, v := range d.Values {
		word := naming.Exported(fmt.Sprint(v))
		if word == "" {
			// A literal like "" or "---" yields no identifier characters; a
			// bare d.Name would redeclare the type itself.
			word = "Empty"
		}
		name := d.Name + word
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s%d", name, n+1)
		} else {
			seen[name] = 1
		}
		names[i] = name
		fmt.Fprintf(b, "%s %s = %s\n", name, d.Name, literal(v))
	}
	b.WriteString(")\n\n")

	fmt.Fprintf(b, "func (v *%s) UnmarshalJSON(data []byte) error {\n", d.Name)
	fmt.Fprintf(b, "var raw %s\n", base)
	b.WriteString("if err := json.Unmarshal(data, &raw); err != nil {\nreturn err\n}\n")
	fmt.Fprintf(b, "switch %s(raw) {\ncase %s:\n", d.Name, strings.Join(names, ", "))
	fmt.Fprintf(b, "*v = %s(raw)\nreturn nil\n}\n", d.Name)
	fmt.Fprintf(b, "return fmt.Errorf(\"invalid %s value: %%v\", raw)\n}\n\n", d.Name)
	return nil
}

func (r *renderer) renderUnion(b *strings.Builder, d *ir.Union) error {
	r.needsJSON = true
	r.needsFmt = true
	writeDoc(b, d.Doc)
	fmt.Fprintf(b, "// %s is a tagged union; exactly one variant is set.\n", d.Name)
	fmt.Fprintf(b, "type %s struct {\n", d.Name)
	exprs := make([]string, len(d.Variants))
	for i, v := range d.Variants {
		expr, err := r.typeExpr(v.Type, false)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", d.Name, v.Name, err)
		}
		expr = strings.TrimPrefix(expr, "*")
		exprs[i] = expr
		fmt.Fprintf(b, "%s *%s `%s:\"-\"`\n", v.Name, expr, r.prof.TagKey)
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "func (v %s) MarshalJSON() ([]byte, error) {\nswitch {\n", d.Name)
	for _, v := range d.Variants {
		fmt.Fprintf(b, "case v.%s != nil:\nreturn json.Marshal(v.%s)\n", v.Name, v.Name)
	}
	fmt.Fprintf(b, "}\nreturn nil, fmt.Errorf(\"%s: no variant set\")\n}\n\n", d.Name)

	// Variants are tried in declared order; the first one the payload decodes
	// into wins.
	fmt.Fprintf(b, "func (v *%s) UnmarshalJSON(data []byte) error {\n", d.Name)
	for i, va := range d.Variants {
		fmt.Fprintf(b, "{\nvar candidate %s\n", exprs[i])
		fmt.Fprintf(b, "if err := json.Unmarshal(data, &candidate); err == nil {\n")
		fmt.Fprintf(b, "*v = %s{%s: &candidate}\nreturn nil\n}\n}\n", d.Name, va.Name)
	}
	fmt.Fprintf(b, "return fmt.Errorf(\"%s: data matches no variant\")\n}\n\n", d.Name)
	return nil
}

func (r *renderer) renderAlias(b *strings.Builder, d *ir.Alias) error {
	expr, err := r.typeExpr(d.Type, false)
	if err != nil {
		return fmt.Errorf("%s: %w", d.Name, err)
	}
	expr = strings.TrimPrefix(expr, "*")
	writeDoc(b, d.Doc)
	fmt.Fprintf(b, "type %s = %s\n\n", d.Name, expr)
	return nil
}

// typeExpr renders a type reference. Optional, nullable, and cycle-closing
// positions indirect through a pointer unless the base type is already
// nil-able (slices, maps, any).
func (r *renderer) typeExpr(t ir.TypeRef, optional bool) (string, error) {
	var base string
	switch {
	case t.Named != "":
		base = t.Named
	case t.Primitive != "":
		mapped, ok := r.prof.Primitives[t.Primitive]
		if !ok {
			return "", fmt.Errorf("no primitive mapping for %q", t.Primitive)
		}
		base = mapped
	case t.Array != nil:
		elem, err := r.typeExpr(*t.Array, false)
		if err != nil {
			return "", err
		}
		base = "[]" + elem
	case t.Map != nil:
		val, err := r.typeExpr(*t.Map, false)
		if err != nil {
			return "", err
		}
		base = "map[string]" + val
	default:
		return "", fmt.Errorf("empty type reference")
	}
	if (optional || t.Nullable || t.Indirect) && !nilable(base) {
		base = "*" + base
	}
	return base, nil
}

func nilable(expr string) bool {
	return expr == "any" || strings.HasPrefix(expr, "[]") || strings.HasPrefix(expr, "map[")
}

// literal renders an enum constant value.
func literal(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case int64:
		return fmt.Sprintf("%d", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func writeDoc(b *strings.Builder, doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(doc), "\n") {
		fmt.Fprintf(b, "// %s\n", strings.TrimRight(line, " \t"))
	}
}
