package codegen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GriffinCanCode/minicc/pkg/ast"
	"github.com/GriffinCanCode/minicc/pkg/ir"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name string
		want Target
		ok   bool
	}{
		{"x86-64", TargetX86_64, true},
		{"AMD64", TargetX86_64, true},
		{"x86-32", TargetX86_32, true},
		{" pseudo ", TargetPseudo, true},
		{"c", TargetC, true},
		{"arm64", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.name)
			if !tt.ok {
				if !errors.Is(err, ErrUnknownTarget) {
					t.Errorf("expected ErrUnknownTarget, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestTargetNames(t *testing.T) {
	for _, target := range Targets {
		parsed, err := ParseTarget(target.String())
		if err != nil || parsed != target {
			t.Errorf("%s does not parse back: %v %v", target, parsed, err)
		}
		if !strings.HasPrefix(target.Ext(), ".") {
			t.Errorf("%s: bad extension %q", target, target.Ext())
		}
	}
}

func TestGenerateAllTargets(t *testing.T) {
	prog, _ := ast.Sample("loop")
	l := ir.Generate(prog)
	before := ir.Format(l)

	markers := map[Target]string{
		TargetX86_64: "# x86-64 assembly",
		TargetX86_32: "# x86-32 target",
		TargetPseudo: "; Assembly code",
		TargetC:      "#include <stdio.h>",
	}
	for _, target := range Targets {
		t.Run(target.String(), func(t *testing.T) {
			out, err := Generate(l, target)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.Text, markers[target]) {
				t.Errorf("missing %q in:\n%s", markers[target], out.Text)
			}
			if out.Stats.Instructions == 0 {
				t.Error("no instructions counted")
			}
			if len(out.Warnings) != 0 {
				t.Errorf("unexpected warnings: %v", out.Warnings)
			}
		})
	}
	if ir.Format(l) != before {
		t.Error("Generate modified the list")
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(ir.NewList(), Target(42)); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("expected ErrUnknownTarget, got %v", err)
	}
	if _, err := Generate(nil, TargetC); err == nil {
		t.Error("expected an error for a nil list")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out"+TargetC.Ext())
	out := &Output{Target: TargetC, Text: "int main(void) { return 0; }\n"}
	if err := WriteFile(path, out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out.Text {
		t.Errorf("got %q", data)
	}

	if err := WriteFile(filepath.Join(t.TempDir(), "missing", "x.c"), out); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
