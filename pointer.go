package typeforge

import (
	"strconv"
	"strings"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Diagnostics.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Diag(code, msg string) Diagnostic
}

// RootRef returns a PathRef anchored at the document root of the given file.
func RootRef(file string) PathRef { return &pathRef{file: file} }

// RefAt returns a PathRef for an already-built pointer string.
func RefAt(file, path string) PathRef {
	if path == "" || path == "/" {
		return RootRef(file)
	}
	// naive split on '/', ignoring first empty due to leading '/'
	parts := []string{}
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return &pathRef{file: file, parts: parts}
}

type pathRef struct {
	file  string
	parts []string
}

func (p *pathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return &pathRef{file: p.file, parts: append(append([]string{}, p.parts...), esc)}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{file: p.file, parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

func (p *pathRef) Diag(code, msg string) Diagnostic {
	return Diagnostic{File: p.file, Path: p.Pointer(), Code: code, Message: msg}
}
