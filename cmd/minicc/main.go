// Package main implements the minicc driver.
//
// Philosophy: the back end is the product; the driver feeds it the built-in
// sample programs and shows every stage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/GriffinCanCode/minicc/pkg/ast"
	"github.com/GriffinCanCode/minicc/pkg/codegen"
	"github.com/GriffinCanCode/minicc/pkg/interp"
	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
	"github.com/GriffinCanCode/minicc/pkg/optimizer"
	"github.com/GriffinCanCode/minicc/pkg/pipeline"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "demo":
		os.Exit(demo(os.Args[2:]))
	case "samples":
		for _, name := range ast.SampleNames() {
			fmt.Println(name)
		}
	case "version":
		fmt.Printf("minicc version %s\n", version)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`minicc - educational compiler back end

Usage:
    minicc demo [options] [sample]   Compile a sample program (default: branch)
    minicc samples                   List the sample programs
    minicc version                   Show version
    minicc help                      Show this help message

Options:
    -O <level>       Optimization level (0-3, default: 2)
    -target <list>   Comma-separated targets: x86-64, x86-32, pseudo, c (default: all)
    -o <dir>         Write one file per target into dir
    -link            Build x86-64 and C output into executables (needs -o)
    -run             Interpret the optimized program
    -quiet           Print only the interpreter output
    -v               Verbose logging
    -log <file>      Write JSON logs to file`)
}

func demo(args []string) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	level := fs.Int("O", 2, "optimization level")
	targets := fs.String("target", "x86-64,x86-32,pseudo,c", "targets")
	outDir := fs.String("o", "", "output directory")
	link := fs.Bool("link", false, "build executables")
	run := fs.Bool("run", true, "interpret the program")
	quiet := fs.Bool("quiet", false, "print only program output")
	verbose := fs.Bool("v", false, "verbose logging")
	logPath := fs.String("log", "", "log file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	switch {
	case *logPath != "":
		if err := logger.Init(logger.Config{Level: logger.LevelDebug, Format: "json", LogFile: *logPath}); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		defer logger.Close()
	case *verbose:
		logger.InitDev()
	}
	logger.LogCompilerStart(os.Args)

	name := "branch"
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}
	prog, ok := ast.Sample(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: no sample %q (have %s)\n", name, strings.Join(ast.SampleNames(), ", "))
		return 1
	}
	if *level < 0 || *level > optimizer.MaxLevel {
		fmt.Fprintf(os.Stderr, "error: optimization level must be 0-%d\n", optimizer.MaxLevel)
		return 1
	}

	var selected []codegen.Target
	for _, t := range strings.Split(*targets, ",") {
		if strings.TrimSpace(t) == "" {
			continue
		}
		target, err := codegen.ParseTarget(t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		selected = append(selected, target)
	}

	res, err := pipeline.Run(context.Background(), prog, pipeline.Options{
		Level:     *level,
		Targets:   selected,
		OutputDir: *outDir,
		Basename:  name,
		Link:      *link,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if !*quiet {
		fmt.Printf("=== %s: IR ===\n", name)
		fmt.Print(res.Unoptimized)
		fmt.Printf("\n=== IR after -O%d ===\n", *level)
		fmt.Print(ir.Format(res.IR))
		fmt.Println()
		fmt.Print(res.Optimization.String())

		for _, out := range res.Outputs {
			fmt.Printf("\n=== %s (%d instructions, %d registers) ===\n",
				out.Target, out.Stats.Instructions, out.Stats.RegistersUsed)
			fmt.Print(out.Text)
			for _, w := range out.Warnings {
				fmt.Fprintln(os.Stderr, w)
			}
		}
		for _, path := range res.Files {
			fmt.Printf("wrote %s\n", path)
		}
		for _, exe := range res.Executables {
			fmt.Printf("built %s\n", exe)
		}
	}

	if *run {
		if !*quiet {
			fmt.Println("\n=== run ===")
		}
		result, err := interp.Execute(res.IR, interp.DefaultOptions())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		for _, f := range result.Faults {
			fmt.Fprintf(os.Stderr, "fault: %v\n", f)
		}
		if !*quiet {
			fmt.Printf("\n=== returned %v after %d steps ===\n", result.Return, result.Steps)
		}
	}
	return 0
}
