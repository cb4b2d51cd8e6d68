package typeforge

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic codes.
const (
	// CodeMalformedSchema reports input that is not parseable as a schema document.
	CodeMalformedSchema = "malformed_schema"
	// CodeDanglingReference reports a $ref with no resolvable target.
	CodeDanglingReference = "dangling_reference"
	// CodeUnsupportedKeyword reports a schema construct this generator does not model.
	CodeUnsupportedKeyword = "unsupported_keyword"
	// CodeIncompatibleComposition reports an allOf merge whose members conflict.
	CodeIncompatibleComposition = "incompatible_composition"
)

// Diagnostic represents a single generation failure entry.
type Diagnostic struct {
	File    string // Schema file the entry originates from ("" when fed from memory).
	Path    string // JSON Pointer into the schema document (for example: /properties/x).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
}

func (d Diagnostic) String() string {
	loc := d.Path
	if d.File != "" {
		loc = d.File + "#" + d.Path
	}
	return fmt.Sprintf("%s at %s: %s", d.Code, loc, d.Message)
}

// Diagnostics is a collection of generation failures that implements error.
type Diagnostics []Diagnostic

// Error summarizes the first few diagnostics.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(ds)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ds[i].String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendDiagnostics appends diagnostics to the destination, initializing the
// slice when needed.
func AppendDiagnostics(dst Diagnostics, more ...Diagnostic) Diagnostics {
	if dst == nil {
		dst = Diagnostics{}
	}
	dst = append(dst, more...)
	return dst
}

// AsDiagnostics extracts Diagnostics from an error using errors.As internally.
func AsDiagnostics(err error) (Diagnostics, bool) {
	if err == nil {
		return nil, false
	}
	var ds Diagnostics
	if errors.As(err, &ds) {
		return ds, true
	}
	return nil, false
}
