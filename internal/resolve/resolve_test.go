package resolve_test

import (
	"strings"
	"testing"

	typeforge "github.com/typeforge/typeforge"
	"github.com/typeforge/typeforge/internal/ir"
	"github.com/typeforge/typeforge/internal/resolve"
)

func mustResolve(t *testing.T, schema string) *ir.Unit {
	t.Helper()
	root, err := typeforge.ParseSchema([]byte(schema), "test.json", typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	unit, fault := resolve.Resolve(root, "Root")
	if fault != nil {
		t.Fatalf("resolve failed: %v", fault)
	}
	return unit
}

func defNames(u *ir.Unit) []string {
	names := make([]string, 0, len(u.Defs))
	for _, d := range u.Defs {
		names = append(names, d.TypeName())
	}
	return names
}

func TestResolve_DedupByStructure(t *testing.T) {
	unit := mustResolve(t, `{
		"type": "object",
		"properties": {
			"a": {"type": "object", "properties": {"x": {"type": "string"}}},
			"b": {"type": "object", "properties": {"x": {"type": "string"}}}
		}
	}`)
	if got := strings.Join(defNames(unit), ","); got != "Root,RootA" {
		t.Fatalf("expected one shared nested identity, got %s", got)
	}
	root := unit.ByName["Root"].(*ir.Struct)
	for _, f := range root.Fields {
		if f.Type.Named != "RootA" {
			t.Fatalf("field %s must reference the shared type, got %+v", f.Name, f.Type)
		}
	}
}

func TestResolve_NameCollisionGetsDeterministicSuffix(t *testing.T) {
	unit := mustResolve(t, `{
		"type": "object",
		"properties": {
			"first":  {"title": "Item", "type": "object", "properties": {"x": {"type": "string"}}},
			"second": {"title": "Item", "type": "object", "properties": {"y": {"type": "integer"}}}
		}
	}`)
	names := defNames(unit)
	if got := strings.Join(names, ","); got != "Item,Item2,Root" {
		t.Fatalf("collision must suffix in first-seen order, got %s", got)
	}
	root := unit.ByName["Root"].(*ir.Struct)
	// Fields sort by wire name: "first" before "second"; first-seen keeps the
	// clean name.
	if root.Fields[0].Type.Named != "Item" || root.Fields[1].Type.Named != "Item2" {
		t.Fatalf("unexpected field targets: %+v", root.Fields)
	}
}

func TestResolve_SingleVariantUnionUnwraps(t *testing.T) {
	unit := mustResolve(t, `{
		"title": "Wrapper",
		"type": "object",
		"properties": {"v": {"oneOf": [{"type": "string"}]}}
	}`)
	w := unit.ByName["Wrapper"].(*ir.Struct)
	if w.Fields[0].Type.Primitive != "string" {
		t.Fatalf("one-armed union must unwrap to its member, got %+v", w.Fields[0].Type)
	}
	if len(unit.Defs) != 1 {
		t.Fatalf("no union type expected, got %v", defNames(unit))
	}
}

func TestResolve_UnionVariantNames(t *testing.T) {
	unit := mustResolve(t, `{"oneOf": [{"type": "string"}, {"type": "integer"}, {"type": "array", "items": {"type": "string"}}]}`)
	u := unit.ByName["Root"].(*ir.Union)
	if len(u.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(u.Variants))
	}
	got := []string{u.Variants[0].Name, u.Variants[1].Name, u.Variants[2].Name}
	if got[0] != "String" || got[1] != "Integer" || got[2] != "Array" {
		t.Fatalf("variant names wrong: %v", got)
	}
}

func TestResolve_AllOfMergeUnionsRequired(t *testing.T) {
	unit := mustResolve(t, `{
		"title": "Merged",
		"allOf": [
			{"type": "object", "properties": {"a": {"type": "string"}}, "required": ["a"]},
			{"type": "object", "properties": {"b": {"type": "string"}}, "required": ["b"]}
		]
	}`)
	m := unit.ByName["Merged"].(*ir.Struct)
	if len(m.Fields) != 2 || m.Fields[0].Optional || m.Fields[1].Optional {
		t.Fatalf("merge must keep both members required: %+v", m.Fields)
	}
}

func TestResolve_AllOfConflictFaults(t *testing.T) {
	root, err := typeforge.ParseSchema([]byte(`{
		"allOf": [
			{"type": "object", "properties": {"id": {"type": "string"}}},
			{"type": "object", "properties": {"id": {"type": "integer"}}}
		]
	}`), "test.json", typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, fault := resolve.Resolve(root, "Root")
	if fault == nil || fault.Code != resolve.CodeIncompatibleComposition {
		t.Fatalf("expected %s, got %+v", resolve.CodeIncompatibleComposition, fault)
	}
}

func TestResolve_MixedEnumFaults(t *testing.T) {
	root, err := typeforge.ParseSchema([]byte(`{"enum": ["a", 1]}`), "test.json", typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, fault := resolve.Resolve(root, "Root")
	if fault == nil || fault.Code != resolve.CodeUnsupportedKeyword {
		t.Fatalf("expected %s, got %+v", resolve.CodeUnsupportedKeyword, fault)
	}
}

func TestResolve_CycleMarksIndirection(t *testing.T) {
	unit := mustResolve(t, `{
		"definitions": {
			"A": {"type": "object", "properties": {"b": {"$ref": "#/definitions/B"}}, "required": ["b"]},
			"B": {"type": "object", "properties": {"a": {"$ref": "#/definitions/A"}}, "required": ["a"]}
		}
	}`)
	a := unit.ByName["A"].(*ir.Struct)
	b := unit.ByName["B"].(*ir.Struct)
	marked := 0
	if a.Fields[0].Type.Indirect {
		marked++
	}
	if b.Fields[0].Type.Indirect {
		marked++
	}
	if marked == 0 {
		t.Fatalf("a required cycle must mark at least one edge for indirection")
	}
}

func TestResolve_NullableTypeListStaysOptionalNotUnion(t *testing.T) {
	unit := mustResolve(t, `{
		"title": "Rec",
		"type": "object",
		"required": ["note"],
		"properties": {"note": {"type": ["string", "null"]}}
	}`)
	rec := unit.ByName["Rec"].(*ir.Struct)
	f := rec.Fields[0]
	if f.Type.Primitive != "string" || !f.Type.Nullable {
		t.Fatalf("nullable type list must fold into a nullable primitive, got %+v", f.Type)
	}
	if len(unit.Defs) != 1 {
		t.Fatalf("no union expected for nullability, got %v", defNames(unit))
	}
}

func TestResolve_AdditionalPropertiesBecomesMap(t *testing.T) {
	unit := mustResolve(t, `{
		"title": "Meta",
		"type": "object",
		"properties": {
			"extra": {"type": "object", "additionalProperties": {"type": "string"}}
		}
	}`)
	meta := unit.ByName["Meta"].(*ir.Struct)
	f := meta.Fields[0]
	if f.Type.Map == nil || f.Type.Map.Primitive != "string" {
		t.Fatalf("additionalProperties object must map to a string map, got %+v", f.Type)
	}
}

func TestResolve_AdditionalPropertiesTrueBecomesOpenMap(t *testing.T) {
	unit := mustResolve(t, `{
		"title": "Bag",
		"type": "object",
		"properties": {
			"extra": {"type": "object", "additionalProperties": true}
		}
	}`)
	bag := unit.ByName["Bag"].(*ir.Struct)
	f := bag.Fields[0]
	if f.Type.Map == nil || f.Type.Map.Primitive != "any" {
		t.Fatalf("additionalProperties true must map to an open map, got %+v", f.Type)
	}
}

func TestResolve_PrimitiveDefinitionBecomesAlias(t *testing.T) {
	unit := mustResolve(t, `{
		"definitions": {
			"RequestId": {"type": "string"},
			"Params":    {"type": "object", "properties": {"id": {"$ref": "#/definitions/RequestId"}}}
		}
	}`)
	alias, ok := unit.ByName["RequestId"].(*ir.Alias)
	if !ok || alias.Type.Primitive != "string" {
		t.Fatalf("primitive definition must become an alias, got %+v", unit.ByName["RequestId"])
	}
	params := unit.ByName["Params"].(*ir.Struct)
	if params.Fields[0].Type.Named != "RequestId" {
		t.Fatalf("reference must use the alias name, got %+v", params.Fields[0].Type)
	}
}
