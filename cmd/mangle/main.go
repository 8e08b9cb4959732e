// Command mangle is the driver for the macro engine in ../../interp: it
// parses a source file, reduces it to a fixpoint, and writes the resulting
// bytes out. Everything here is an external collaborator per spec.md §1 —
// argument parsing, timing display, and file I/O live here and nowhere else.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fogti/mangle/ast"
	"github.com/fogti/mangle/interp"
	"github.com/fogti/mangle/mangle"
	"github.com/fogti/mangle/parser"
	"github.com/grailbio/base/log"
)

// osFileSystem is the default interp.FileSystem, backed by the real
// filesystem. The engine itself never imports "os" directly; this is the
// one place that seam is closed.
type osFileSystem struct{}

func (osFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// mapFlag accumulates repeated --map-to-compilate src=compiled pairs.
type mapFlag map[string]string

func (m mapFlag) String() string {
	var parts []string
	for k, v := range m {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (m mapFlag) Set(s string) error {
	src, compiled, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("--map-to-compilate expects src=compiled, got %q", s)
	}
	m[src] = compiled
	return nil
}

// countFlag implements a repeatable boolean flag (--verbose --verbose), the same
// way the stdlib flag package has no native support for counted flags.
type countFlag int

func (c *countFlag) String() string {
	if c == nil {
		return "0"
	}
	return fmt.Sprintf("%d", int(*c))
}

func (c *countFlag) Set(string) error {
	*c++
	return nil
}

func (c *countFlag) IsBoolFlag() bool { return true }

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	esccFlag := flag.String("escc", "\\", "escape byte introducing macro syntax")
	passEscc := flag.Bool("pass-escc", false, "preserve the leading escape byte in an escaped escape")
	var verbose countFlag
	flag.Var(&verbose, "verbose", "dump the AST at the start of each fixpoint round (repeatable: -verbose -verbose for more detail)")
	timings := flag.Bool("timings", false, "print wall-clock time spent parsing and evaluating")
	quiet := flag.Bool("quiet", false, "drop the date/time prefix from log lines (diagnostics are still printed)")
	output := flag.String("output", "", "write the result to this path instead of stdout")
	compMap := make(mapFlag)
	flag.Var(compMap, "map-to-compilate", "src=compiled: redirect include(src) to a compiled image (repeatable)")
	compileOutput := flag.String("compile-output", "", "also write a compiled image of the final result to this path (the result bytes are still written)")
	flag.Parse()

	if *quiet {
		log.SetFlags(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mangle [flags] <input-file>")
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	if len(*esccFlag) != 1 {
		fmt.Fprintf(os.Stderr, "mangle: --escc must be exactly one byte, got %q\n", *esccFlag)
		os.Exit(1)
	}
	opts := parser.Options{Escc: (*esccFlag)[0], PassEscc: *passEscc}

	fs := osFileSystem{}
	src, err := fs.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mangle: reading %s: %v\n", inputPath, err)
		os.Exit(2)
	}

	parseStart := time.Now()
	top, err := parser.Parse(src, opts)
	parseElapsed := time.Since(parseStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mangle: %v\n", err)
		os.Exit(1)
	}

	ctx := interp.NewEvalContext(opts, fs)
	ctx.CompMap = compMap
	if int(verbose) > 0 {
		ctx.Trace = func(round int, data ast.Seq) {
			fmt.Fprintf(os.Stderr, "-- round %d --\n%s\n", round, mangle.ToBytesSeq(data, opts.Escc))
			if int(verbose) > 1 {
				fmt.Fprintf(os.Stderr, "   (nodes: %d)\n", len(data))
			}
		}
	}

	var compOut *os.File
	if *compileOutput != "" {
		compOut, err = os.Create(*compileOutput)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mangle: creating %s: %v\n", *compileOutput, err)
			os.Exit(2)
		}
		defer compOut.Close()
	}

	evalStart := time.Now()
	var result ast.Seq
	evalErr := interp.Recover(func() {
		var werr error
		if compOut != nil {
			result, werr = interp.Eval(ctx, top, compOut)
		} else {
			result, werr = interp.Eval(ctx, top, nil)
		}
		if werr != nil {
			err = werr
		}
	})
	evalElapsed := time.Since(evalStart)
	if evalErr != nil {
		fmt.Fprintf(os.Stderr, "mangle: internal error: %v\n", evalErr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mangle: %v\n", err)
		os.Exit(2)
	}

	result = mangle.CompactToplevel(result)
	outBytes := mangle.ToBytesSeq(result, opts.Escc)

	if *output == "" {
		os.Stdout.Write(outBytes)
	} else {
		if err := os.WriteFile(*output, outBytes, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "mangle: writing %s: %v\n", *output, err)
			os.Exit(2)
		}
	}

	if *timings {
		fmt.Fprintf(os.Stderr, "mangle: parse %s, eval %s\n", parseElapsed, evalElapsed)
	}
}
