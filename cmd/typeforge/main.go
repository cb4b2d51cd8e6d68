package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	typeforge "github.com/typeforge/typeforge"
)

func main() {
	var (
		pkg      = flag.String("pkg", "schema", "package name for the generated file")
		rootName = flag.String("root", "", "type name for an untitled root schema")
		out      = flag.String("o", "", "also write the output to this file (stdout is always written)")
		format   = flag.Bool("format", false, "pipe the output through gofmt before writing")
		repair   = flag.Bool("repair", false, "recover sloppy JSON (trailing commas, comments) before parsing")
		verbose  = flag.Bool("v", false, "enable verbose logs")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	logf := func(f string, a ...any) {
		if *verbose {
			fmt.Fprintf(os.Stderr, f+"\n", a...)
		}
	}
	logf("generate: input=%s pkg=%s out=%s", input, *pkg, *out)

	code, err := typeforge.Generate(input, typeforge.Options{
		Package:  *pkg,
		RootName: *rootName,
		Load:     typeforge.LoadOptions{Repair: *repair},
	})
	if err != nil {
		fatalf("%v", err)
	}
	logf("generated %d bytes", len(code))

	if *format {
		code, err = gofmt(code)
		if err != nil {
			fatalf("gofmt: %v", err)
		}
	}

	// stdout always carries the result so shell pipelines keep working; -o
	// additionally persists it, tee-style.
	if _, err := os.Stdout.Write(code); err != nil {
		fatalf("writing stdout: %v", err)
	}
	if *out != "" {
		if dir := filepath.Dir(*out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fatalf("creating output dir: %v", err)
			}
		}
		if err := os.WriteFile(*out, code, 0o644); err != nil {
			fatalf("writing output: %v", err)
		}
		logf("wrote %s", *out)
	}
}

// gofmt delegates pretty-printing to the external formatter binary.
func gofmt(code []byte) ([]byte, error) {
	cmd := exec.Command("gofmt")
	cmd.Stdin = bytes.NewReader(code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%v\n%s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "typeforge generates Go type declarations from a JSON Schema.\n\nUsage:\n  typeforge [flags] <schema-file-or-dir>\n\nThe generated (unformatted) source goes to stdout, intended for composition:\n  typeforge schema.json | gofmt | tee schema_gen.go")
	flag.PrintDefaults()
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
