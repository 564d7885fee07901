package compiler

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/lhaig/sdogams/internal/diagnostic"
	"github.com/lhaig/sdogams/internal/gams"
	"github.com/lhaig/sdogams/internal/graph"
	"github.com/lhaig/sdogams/internal/linter"
	"github.com/lhaig/sdogams/internal/model"
)

// ChooseFunc picks the formulation of one lookup. It is called once per
// lookup, in registration order, when the lookup type is interactive.
type ChooseFunc func(d *gams.LookupData) (gams.Formulation, error)

// Options configures a compilation. Empty fields fall back to the model
// file and then to the defaults.
type Options struct {
	Scheme      string
	LookupType  string
	LookupBound float64
	Trace       io.Writer
	Choose      ChooseFunc
}

// Result holds the output of a compilation
type Result struct {
	Diagnostics *diagnostic.Diagnostics
	Model       *model.Model
	GAMS        string
}

// Load decodes and analyzes a model file. Structural problems and lint
// findings are reported as diagnostics; the model is nil only when it
// could not be built at all.
func Load(source []byte) (*model.Model, *diagnostic.Diagnostics) {
	diag := diagnostic.New()

	m, err := model.Parse(source)
	if err != nil {
		diag.Errorf("", "%s", err)
		return nil, diag
	}

	for _, msg := range graph.Validate(m.Graph) {
		diag.Errorf("", "%s", msg)
	}
	diag.Merge(linter.Lint(m.Graph))
	return m, diag
}

// Check runs load + validate + lint only (no codegen).
func Check(source []byte) *diagnostic.Diagnostics {
	_, diag := Load(source)
	return diag
}

// Compile runs the full pipeline: load -> validate -> lint -> generate.
// Returns the result without writing files.
func Compile(source []byte, opts Options) *Result {
	res := &Result{}

	m, diag := Load(source)
	res.Diagnostics = diag
	res.Model = m
	if diag.HasErrors() {
		return res
	}

	scheme, err := getScheme(opts.Scheme, m.Scheme)
	if err != nil {
		diag.Errorf("", "%s", err)
		return res
	}
	formulation, interactive, err := getFormulation(opts.LookupType, m.LookupType)
	if err != nil {
		diag.Errorf("", "%s", err)
		return res
	}

	gen := gams.New(m.Graph, gams.Options{
		Scheme:      scheme,
		Formulation: formulation,
		LookupBound: opts.LookupBound,
		Trace:       opts.Trace,
	})

	if interactive {
		if opts.Choose == nil {
			diag.Errorf("", "interactive lookup type needs a terminal")
			return res
		}
		for _, d := range gen.Lookups() {
			f, err := opts.Choose(d)
			if err != nil {
				diag.Errorf(d.Name, "choosing lookup type: %s", err)
				return res
			}
			if err := gen.SetFormulation(d.Table, f); err != nil {
				diag.Errorf(d.Name, "%s", err)
				return res
			}
		}
	}

	if m.Objective.Empty() {
		gen.AddArbitraryObjective()
		diag.Infof("", "model has no objective; minimizing the final value of the first state instead")
	} else {
		gen.SetObjective(m.Objective)
	}

	var out bytes.Buffer
	if err := gen.Emit(&out); err != nil {
		diag.Errorf("", "generating GAMS: %s", err)
		return res
	}
	res.GAMS = out.String()
	return res
}

// EmitGAMS runs the full pipeline and writes the GAMS model to outPath.
func EmitGAMS(source []byte, outPath string, opts Options) (*diagnostic.Diagnostics, error) {
	res := Compile(source, opts)
	if errs := res.Diagnostics.Errors(); len(errs) > 0 {
		return res.Diagnostics, fmt.Errorf("compilation failed with %d error(s): %s", len(errs), errs[0].Message)
	}

	if err := os.WriteFile(outPath, []byte(res.GAMS), 0644); err != nil {
		return res.Diagnostics, fmt.Errorf("failed to write output file: %w", err)
	}
	return res.Diagnostics, nil
}
