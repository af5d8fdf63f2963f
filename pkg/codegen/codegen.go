// Package codegen selects a back end for a target and runs it.
//
// Design: every back end renders into memory and reports warnings as
// diagnostics, so a caller can write any subset of targets from one
// optimized list.
package codegen

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/GriffinCanCode/minicc/pkg/codegen/amd64"
	"github.com/GriffinCanCode/minicc/pkg/codegen/cgen"
	"github.com/GriffinCanCode/minicc/pkg/codegen/emit"
	"github.com/GriffinCanCode/minicc/pkg/codegen/pseudo"
	"github.com/GriffinCanCode/minicc/pkg/diagnostics"
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// Target is an output format
type Target int

const (
	TargetX86_64 Target = iota
	TargetX86_32
	TargetPseudo
	TargetC
)

// Targets lists every target in a stable order
var Targets = []Target{TargetX86_64, TargetX86_32, TargetPseudo, TargetC}

var ErrUnknownTarget = errors.New("unknown target")

var targetNames = [...]string{
	TargetX86_64: amd64.TargetX86_64,
	TargetX86_32: amd64.TargetX86_32,
	TargetPseudo: "pseudo",
	TargetC:      "c",
}

var targetExts = [...]string{
	TargetX86_64: ".s",
	TargetX86_32: ".s",
	TargetPseudo: ".pasm",
	TargetC:      ".c",
}

func (t Target) String() string {
	if t >= 0 && int(t) < len(targetNames) {
		return targetNames[t]
	}
	return fmt.Sprintf("target(%d)", int(t))
}

// Ext is the file extension for output of t
func (t Target) Ext() string {
	if t >= 0 && int(t) < len(targetExts) {
		return targetExts[t]
	}
	return ".out"
}

// ParseTarget accepts a target name, case-insensitively. "amd64" and
// "x86_64" are aliases for x86-64; "asm" names the pseudo listing.
func ParseTarget(name string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "x86-64", "x86_64", "amd64":
		return TargetX86_64, nil
	case "x86-32", "x86_32", "x86", "386":
		return TargetX86_32, nil
	case "pseudo", "asm":
		return TargetPseudo, nil
	case "c":
		return TargetC, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
}

// Output is one rendered target
type Output struct {
	Target   Target
	Text     string
	Warnings []*diagnostics.Diagnostic
	Stats    emit.Stats
}

// Generate renders l for target. The list is read, never modified.
func Generate(l *ir.List, target Target) (*Output, error) {
	var sb strings.Builder
	out := &Output{Target: target}

	switch target {
	case TargetX86_64, TargetX86_32:
		gen := amd64.NewGenerator(&sb, target.String())
		if err := gen.Generate(l); err != nil {
			return nil, fmt.Errorf("%s: %w", target, err)
		}
		out.Warnings, out.Stats = gen.Diagnostics(), gen.Stats()
	case TargetPseudo:
		gen := pseudo.NewGenerator(&sb, pseudo.Options{})
		if err := gen.Generate(l); err != nil {
			return nil, fmt.Errorf("%s: %w", target, err)
		}
		out.Warnings, out.Stats = gen.Diagnostics(), gen.Stats()
	case TargetC:
		gen := cgen.NewGenerator(&sb)
		if err := gen.Generate(l); err != nil {
			return nil, fmt.Errorf("%s: %w", target, err)
		}
		out.Warnings, out.Stats = gen.Diagnostics(), gen.Stats()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}

	out.Text = sb.String()
	for _, w := range out.Warnings {
		logger.Warn("Code generation warning", "target", target.String(), "diagnostic", w.String())
	}
	return out, nil
}

// WriteFile writes out.Text to path
func WriteFile(path string, out *Output) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	n, err := f.WriteString(out.Text)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.LogOutputFile(out.Target.String(), path, n)
	return nil
}
