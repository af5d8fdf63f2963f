// Package pipeline drives one compilation: lower, optimize, generate each
// requested target, and optionally interpret the result.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/GriffinCanCode/minicc/pkg/ast"
	"github.com/GriffinCanCode/minicc/pkg/codegen"
	"github.com/GriffinCanCode/minicc/pkg/interp"
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/linker"
	"github.com/GriffinCanCode/minicc/pkg/logger"
	"github.com/GriffinCanCode/minicc/pkg/optimizer"
)

// Options configures Run. Zero Targets means no code generation.
type Options struct {
	Level     int
	Targets   []codegen.Target
	Interpret bool
	MaxSteps  int // interpreter step limit, 0 for the default

	// OutputDir, when set, receives one file per target named
	// Basename plus the target's extension
	OutputDir string
	Basename  string

	// Link builds the x86-64 and C outputs into executables. It needs
	// OutputDir.
	Link bool

	Stdout io.Writer
	Stderr io.Writer
}

// Result collects every artifact of a run
type Result struct {
	Unoptimized  string // listing before optimization
	IR           *ir.List
	Optimization optimizer.Stats
	Outputs      []*codegen.Output
	Files        []string
	Executables  []string
	Run          *interp.Result
	Duration     time.Duration
}

// Output returns the rendered output for target, or nil
func (r *Result) Output(target codegen.Target) *codegen.Output {
	for _, out := range r.Outputs {
		if out.Target == target {
			return out
		}
	}
	return nil
}

// Run compiles root with opts
func Run(ctx context.Context, root ast.Node, opts Options) (res *Result, err error) {
	start := time.Now()
	res = &Result{}
	defer func() {
		res.Duration = time.Since(start)
		logger.LogCompilerComplete(err == nil, res.Duration.String())
	}()

	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Basename == "" {
		opts.Basename = "out"
	}
	if opts.Link && opts.OutputDir == "" {
		return res, fmt.Errorf("linking needs an output directory")
	}

	logger.LogPhase("ir")
	res.IR = ir.Generate(root)
	res.Unoptimized = ir.Format(res.IR)
	logger.LogPhaseComplete("ir")

	logger.LogPhase("optimize")
	res.Optimization, err = optimizer.Optimize(res.IR, opts.Level)
	if err != nil {
		return res, err
	}
	logger.LogPhaseComplete("optimize")

	if len(opts.Targets) > 0 {
		logger.LogPhase("codegen")
		for _, target := range opts.Targets {
			out, err := codegen.Generate(res.IR, target)
			if err != nil {
				return res, err
			}
			res.Outputs = append(res.Outputs, out)
		}
		logger.LogPhaseComplete("codegen")
	}

	if opts.OutputDir != "" {
		if err := writeOutputs(ctx, res, opts); err != nil {
			return res, err
		}
	}

	if opts.Interpret {
		logger.LogPhase("interpret")
		run, err := interp.Execute(res.IR, interp.Options{
			Stdout:   opts.Stdout,
			Stderr:   opts.Stderr,
			MaxSteps: maxSteps(opts.MaxSteps),
		})
		if err != nil {
			return res, err
		}
		res.Run = run
		logger.LogPhaseComplete("interpret")
	}
	return res, nil
}

func writeOutputs(ctx context.Context, res *Result, opts Options) error {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var lnk *linker.Linker
	if opts.Link {
		var err error
		if lnk, err = linker.Find(); err != nil {
			return err
		}
	}

	for _, out := range res.Outputs {
		name := opts.Basename
		if out.Target == codegen.TargetX86_32 {
			name += "_32"
		}
		path := filepath.Join(opts.OutputDir, name+out.Target.Ext())
		if err := codegen.WriteFile(path, out); err != nil {
			return err
		}
		res.Files = append(res.Files, path)

		if lnk == nil || !linkable(out.Target) {
			continue
		}
		exe := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%s", opts.Basename, out.Target))
		if err := lnk.Link(ctx, path, exe); err != nil {
			return err
		}
		res.Executables = append(res.Executables, exe)
	}
	return nil
}

func linkable(t codegen.Target) bool {
	return t == codegen.TargetX86_64 || t == codegen.TargetC
}

func maxSteps(n int) int {
	if n == 0 {
		return interp.DefaultMaxSteps
	}
	return n
}
