package resolve

import "github.com/typeforge/typeforge/internal/ir"

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// markIndirection finds cycles among struct fields that embed another
// generated type by value and marks the cycle-closing edge for pointer
// indirection. Arrays, maps, and union variants already indirect in the
// rendered form and never close a value cycle. Traversal order is fixed
// (declaration order, then field order) so the marked edge is deterministic.
func markIndirection(u *ir.Unit) {
	color := make(map[string]int, len(u.Defs))
	var visit func(name string)
	visit = func(name string) {
		color[name] = colorGray
		def, _ := u.Lookup(name)
		if st, ok := def.(*ir.Struct); ok {
			for i := range st.Fields {
				target := st.Fields[i].Type.Named
				if target == "" {
					continue
				}
				switch color[target] {
				case colorGray:
					st.Fields[i].Type.Indirect = true
				case colorWhite:
					visit(target)
				}
			}
		}
		color[name] = colorBlack
	}
	for _, d := range u.Defs {
		if color[d.TypeName()] == colorWhite {
			visit(d.TypeName())
		}
	}
}
