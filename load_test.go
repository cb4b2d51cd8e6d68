package typeforge_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	typeforge "github.com/typeforge/typeforge"
	js "github.com/typeforge/typeforge/jsonschema"
)

func TestParseSchema_BasicObject(t *testing.T) {
	root, err := typeforge.ParseSchema([]byte(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		}
	}`), "mem.json", typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if root.Kind() != js.KindObject {
		t.Fatalf("expected object kind, got %v", root.Kind())
	}
	if got := strings.Join(root.PropNames, ","); got != "age,name" {
		t.Fatalf("property names must be sorted, got %s", got)
	}
	if !root.IsRequired("name") || root.IsRequired("age") {
		t.Fatalf("required set wrong: %v", root.Required)
	}
}

func TestParseSchema_MalformedJSON(t *testing.T) {
	_, err := typeforge.ParseSchema([]byte(`{"type": "object",}`), "mem.json", typeforge.LoadOptions{})
	ds, ok := typeforge.AsDiagnostics(err)
	if !ok || len(ds) == 0 || ds[0].Code != typeforge.CodeMalformedSchema {
		t.Fatalf("expected %s, got %v", typeforge.CodeMalformedSchema, err)
	}
}

func TestParseSchema_RepairRecoversTrailingComma(t *testing.T) {
	root, err := typeforge.ParseSchema([]byte(`{"type": "object",}`), "mem.json", typeforge.LoadOptions{Repair: true})
	if err != nil {
		t.Fatalf("repair mode should recover: %v", err)
	}
	if root.Kind() != js.KindObject {
		t.Fatalf("expected object kind after repair")
	}
}

func TestParseSchema_AdditionalPropertiesTrue(t *testing.T) {
	root, err := typeforge.ParseSchema([]byte(`{
		"type": "object",
		"additionalProperties": true
	}`), "mem.json", typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if root.Kind() != js.KindMap {
		t.Fatalf("open property-less object must classify as a map, got %v", root.Kind())
	}
	if root.AdditionalProperties != nil || !root.AdditionalAny {
		t.Fatalf("boolean form must collapse to AdditionalAny: %+v", root)
	}
}

func TestParseSchema_InternalRef(t *testing.T) {
	root, err := typeforge.ParseSchema([]byte(`{
		"type": "object",
		"properties": {"item": {"$ref": "#/$defs/Item"}},
		"$defs": {"Item": {"type": "string"}}
	}`), "mem.json", typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	prop := root.Properties["item"]
	if prop.Target == nil || prop.Target.Path != "/$defs/Item" {
		t.Fatalf("ref not linked: %+v", prop)
	}
}

func TestParseSchema_DanglingRef(t *testing.T) {
	_, err := typeforge.ParseSchema([]byte(`{"$ref": "#/definitions/Missing"}`), "mem.json", typeforge.LoadOptions{})
	ds, ok := typeforge.AsDiagnostics(err)
	if !ok || len(ds) == 0 || ds[0].Code != typeforge.CodeDanglingReference {
		t.Fatalf("expected %s, got %v", typeforge.CodeDanglingReference, err)
	}
}

func TestParseSchema_ReportsEveryDanglingRef(t *testing.T) {
	_, err := typeforge.ParseSchema([]byte(`{
		"type": "object",
		"properties": {
			"a": {"$ref": "#/definitions/MissingA"},
			"b": {"$ref": "#/definitions/MissingB"}
		}
	}`), "mem.json", typeforge.LoadOptions{})
	ds, ok := typeforge.AsDiagnostics(err)
	if !ok || len(ds) != 2 {
		t.Fatalf("expected both dangling references reported, got %v", err)
	}
	for _, d := range ds {
		if d.Code != typeforge.CodeDanglingReference {
			t.Fatalf("expected %s, got %+v", typeforge.CodeDanglingReference, d)
		}
	}
}

func TestLoadSchema_YAMLDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	doc := "title: Config\ntype: object\nrequired: [name]\nproperties:\n  name:\n    type: string\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root, err := typeforge.LoadSchema(path, typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if root.Title != "Config" || root.Kind() != js.KindObject {
		t.Fatalf("unexpected root: %+v", root)
	}
}

func TestLoadSchema_FileRelativeRef(t *testing.T) {
	dir := t.TempDir()
	other := `{"definitions": {"Id": {"type": "string"}}}`
	main := `{"type": "object", "properties": {"id": {"$ref": "types.json#/definitions/Id"}}}`
	if err := os.WriteFile(filepath.Join(dir, "types.json"), []byte(other), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "schema.json"), []byte(main), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root, err := typeforge.LoadSchema(filepath.Join(dir, "schema.json"), typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	target := root.Properties["id"].Target
	if target == nil || len(target.Types) != 1 || target.Types[0] != "string" {
		t.Fatalf("cross-file ref not linked: %+v", target)
	}
}

func TestLoadSchema_DirectoryPicksRootFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "schema.json"), []byte(`{"title":"T","type":"object"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root, err := typeforge.LoadSchema(dir, typeforge.LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if root.Title != "T" {
		t.Fatalf("wrong root: %+v", root)
	}
}

func TestLoadSchema_MissingReferencedFile(t *testing.T) {
	dir := t.TempDir()
	main := `{"type": "object", "properties": {"id": {"$ref": "gone.json#/definitions/Id"}}}`
	path := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(path, []byte(main), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := typeforge.LoadSchema(path, typeforge.LoadOptions{})
	ds, ok := typeforge.AsDiagnostics(err)
	if !ok || len(ds) == 0 || ds[0].Code != typeforge.CodeDanglingReference {
		t.Fatalf("expected %s, got %v", typeforge.CodeDanglingReference, err)
	}
}

func TestPathRef_EscapesPointerTokens(t *testing.T) {
	p := typeforge.RootRef("f.json").Field("a/b").Field("c~d").Index(2)
	if got := p.Pointer(); got != "/a~1b/c~0d/2" {
		t.Fatalf("pointer escaping wrong: %s", got)
	}
	d := p.Diag(typeforge.CodeMalformedSchema, "boom")
	if d.File != "f.json" || d.Path != "/a~1b/c~0d/2" {
		t.Fatalf("diag location wrong: %+v", d)
	}
}

func TestDiagnostics_ErrorSummary(t *testing.T) {
	ds := typeforge.Diagnostics{
		{File: "a.json", Path: "/a", Code: typeforge.CodeMalformedSchema, Message: "x"},
		{File: "a.json", Path: "/b", Code: typeforge.CodeDanglingReference, Message: "y"},
		{File: "a.json", Path: "/c", Code: typeforge.CodeUnsupportedKeyword, Message: "z"},
		{File: "a.json", Path: "/d", Code: typeforge.CodeUnsupportedKeyword, Message: "w"},
	}
	s := ds.Error()
	if s == "" || !strings.Contains(s, "total 4") {
		t.Fatalf("unexpected summary: %s", s)
	}
	if !strings.Contains(s, "a.json#/a") {
		t.Fatalf("summary must name file and pointer: %s", s)
	}
}
