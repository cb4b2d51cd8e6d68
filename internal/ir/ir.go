// Package ir defines the canonical type graph handed to the code generator:
// one Def per generated type, with every cross-type relationship expressed as
// a name lookup rather than embedded ownership.
package ir

// Kind identifies a Def shape.
type Kind int

const (
	KindStruct Kind = iota
	KindEnum
	KindUnion
	KindAlias
)

// Def is the root interface over generated type shapes.
type Def interface {
	Kind() Kind
	TypeName() string
	DocText() string
}

// TypeRef names a type expression appearing in a field, variant, or alias.
// Exactly one of Named, Primitive, Array, Map is set.
type TypeRef struct {
	Named     string   // generated type name of another Def
	Primitive string   // "string" | "number" | "integer" | "boolean" | "any"
	Array     *TypeRef // element type
	Map       *TypeRef // value type (string keys)

	// Nullable marks a use site that admits null on the wire.
	Nullable bool
	// Indirect marks a cycle-closing edge that needs pointer indirection in
	// value-type targets.
	Indirect bool
}

// Field is one struct member, keyed by its wire name.
type Field struct {
	Name     string // JSON name
	Type     TypeRef
	Optional bool // declared but not required
	Doc      string
}

// Struct is an object shape.
type Struct struct {
	Name   string
	Doc    string
	Fields []Field // sorted by wire name
}

func (s *Struct) Kind() Kind       { return KindStruct }
func (s *Struct) TypeName() string { return s.Name }
func (s *Struct) DocText() string  { return s.Doc }

// Enum is a closed literal set. Base is "string" or "integer"; Values keep
// the declared order.
type Enum struct {
	Name   string
	Doc    string
	Base   string
	Values []any
}

func (e *Enum) Kind() Kind       { return KindEnum }
func (e *Enum) TypeName() string { return e.Name }
func (e *Enum) DocText() string  { return e.Doc }

// Variant is one member of a union, tagged by name.
type Variant struct {
	Name string
	Type TypeRef
}

// Union is a tagged sum over variants, tried in declared order on decode.
type Union struct {
	Name     string
	Doc      string
	Variants []Variant
}

func (u *Union) Kind() Kind       { return KindUnion }
func (u *Union) TypeName() string { return u.Name }
func (u *Union) DocText() string  { return u.Doc }

// Alias names a type expression (a primitive, array, or map definition that
// carries its own identity in the source schema).
type Alias struct {
	Name string
	Doc  string
	Type TypeRef
}

func (a *Alias) Kind() Kind       { return KindAlias }
func (a *Alias) TypeName() string { return a.Name }
func (a *Alias) DocText() string  { return a.Doc }

// Unit is the full set of Defs in declaration order, plus a name index.
type Unit struct {
	Defs   []Def
	ByName map[string]Def
}

// Lookup returns the Def with the given generated name.
func (u *Unit) Lookup(name string) (Def, bool) {
	d, ok := u.ByName[name]
	return d, ok
}
