package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lhaig/sdogams/internal/compiler"
	"github.com/lhaig/sdogams/internal/diagnostic"
	"github.com/lhaig/sdogams/internal/gams"
	"github.com/lhaig/sdogams/internal/graph"
	"github.com/lhaig/sdogams/internal/tableau"
)

const usage = `sdogams - compile system dynamics models to GAMS optimization models

Usage:
  sdogams build [options] <model.yaml>   Generate the GAMS model
  sdogams check <model.yaml>             Validate and lint only
  sdogams dump <model.yaml>              Print every symbol and its definition

Options:
  -d, --discretization-method NAME   euler, rk2, rk3, rk4, imid2 or igl4 (default rk2)
  -l, --lookup-type NAME             spline, sos2 or interactive (default spline)
  -f, --lookup-infinity VALUE        padding of SOS2 breakpoint tables (default 1e5)
  -o, --output-file PATH             output file, '-' for stdout (default <model>.gms)
  --trace                            print the graph after every pass to stderr

Examples:
  sdogams build population.yaml            Write population.gms
  sdogams build -d rk4 -o - population.yaml
  sdogams check population.yaml
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch args[0] {
	case "build":
		return handleBuild(args[1:], stdout, stderr)
	case "check":
		return handleCheck(args[1:], stdout, stderr)
	case "dump":
		return handleDump(args[1:], stdout, stderr)
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		fmt.Fprint(stderr, usage)
		return 2
	}
}

type buildFlags struct {
	scheme     string
	lookupType string
	infinity   float64
	output     string
	trace      bool
}

// parseBuildFlags accepts options before and after the model path.
func parseBuildFlags(args []string, stderr io.Writer) (*buildFlags, []string, error) {
	bf := &buildFlags{}
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	for _, name := range []string{"d", "discretization-method"} {
		fs.StringVar(&bf.scheme, name, "", "discretization method")
	}
	for _, name := range []string{"l", "lookup-type"} {
		fs.StringVar(&bf.lookupType, name, "", "lookup type")
	}
	for _, name := range []string{"f", "lookup-infinity"} {
		fs.Float64Var(&bf.infinity, name, gams.DefaultLookupBound, "SOS2 table padding")
	}
	for _, name := range []string{"o", "output-file"} {
		fs.StringVar(&bf.output, name, "", "output file")
	}
	fs.BoolVar(&bf.trace, "trace", false, "trace passes")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	return bf, positional, nil
}

func handleBuild(args []string, stdout, stderr io.Writer) int {
	bf, files, err := parseBuildFlags(args, stderr)
	if err != nil {
		return 2
	}
	if len(files) != 1 {
		fmt.Fprintln(stderr, "Error: exactly one model file is required")
		return 2
	}
	filePath := files[0]
	if bf.infinity <= 0 {
		fmt.Fprintf(stderr, "Error: lookup infinity must be positive, got %g\n", bf.infinity)
		return 2
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %s\n", err)
		return 1
	}

	outPath := bf.output
	if outPath == "" {
		outPath = compiler.OutputPath(filePath)
	}
	toStdout := outPath == "-"

	c := &chooser{out: stderr, stdoutUsed: toStdout}
	defer c.close()
	opts := compiler.Options{
		Scheme:      bf.scheme,
		LookupType:  bf.lookupType,
		LookupBound: bf.infinity,
		Choose:      c.choose,
	}
	if bf.trace {
		opts.Trace = stderr
	}

	if toStdout {
		res := compiler.Compile(source, opts)
		report(stderr, filePath, res.Diagnostics)
		if res.Diagnostics.HasErrors() {
			return 1
		}
		fmt.Fprint(stdout, res.GAMS)
		return 0
	}

	diag, err := compiler.EmitGAMS(source, outPath, opts)
	report(stderr, filePath, diag)
	if err != nil {
		if !diag.HasErrors() {
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %s\n", outPath)
	return 0
}

func report(w io.Writer, filePath string, diag *diagnostic.Diagnostics) {
	if diag.Count() > 0 {
		fmt.Fprintf(w, "%s\n", diag.Format(filePath))
	}
}

func handleCheck(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Error: no input file specified")
		return 2
	}
	filePath := args[0]

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %s\n", err)
		return 1
	}

	diag := compiler.Check(source)
	if diag.HasErrors() {
		fmt.Fprintf(stderr, "%s\n", diag.Format(filePath))
		return 1
	}
	for _, d := range diag.All() {
		location := filePath
		if d.Symbol != "" {
			location += ":" + d.Symbol
		}
		fmt.Fprintf(stdout, "%s: %s: %s\n", location, d.Severity, d.Message)
	}
	fmt.Fprintln(stdout, "No errors found.")
	return 0
}

func handleDump(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Error: no input file specified")
		return 2
	}
	filePath := args[0]

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %s\n", err)
		return 1
	}

	m, diag := compiler.Load(source)
	if m == nil {
		fmt.Fprintf(stderr, "%s\n", diag.Format(filePath))
		return 1
	}

	fmt.Fprint(stdout, graph.PrintSymbols(m.Graph))

	gen := gams.New(m.Graph, gams.Options{Scheme: tableau.Euler})
	for _, d := range gen.Lookups() {
		fmt.Fprintf(stdout, "lookup %s (%d points) used at: %s\n",
			d.Name, d.Table.Len(), strings.Join(d.Locations, ", "))
	}
	return 0
}
