// Package optimizer - IR-level optimizations
// Design: Transparent, bounded passes over the instruction list, repeated
// until a full iteration changes nothing.
package optimizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// MaxLevel is the most aggressive optimization level
const MaxLevel = 3

// DefaultMaxIterations bounds the fixed-point loop
const DefaultMaxIterations = 5

// ErrInvalidLevel is returned for levels outside 0..MaxLevel
var ErrInvalidLevel = errors.New("optimizer: invalid optimization level")

// Pass identifies one rewrite pass. The order of the constants is the order
// in which passes run inside one iteration.
type Pass int

const (
	PassConstantFolding Pass = iota
	PassConstantPropagation
	PassAlgebraicSimplification
	PassCopyPropagation
	PassDeadCodeElimination
	PassCommonSubexpression
	passCount
)

var passNames = [...]string{
	PassConstantFolding:         "constant-folding",
	PassConstantPropagation:     "constant-propagation",
	PassAlgebraicSimplification: "algebraic-simplification",
	PassCopyPropagation:         "copy-propagation",
	PassDeadCodeElimination:     "dead-code-elimination",
	PassCommonSubexpression:     "common-subexpression-elimination",
}

func (p Pass) String() string {
	if p >= 0 && p < passCount {
		return passNames[p]
	}
	return fmt.Sprintf("pass(%d)", int(p))
}

// Config selects the enabled passes and the iteration cap
type Config struct {
	Level         int
	MaxIterations int
	enabled       [passCount]bool
}

// LevelConfig returns the cumulative pass set for level: 1 folds, propagates
// constants and simplifies algebra; 2 adds copy propagation and dead-code
// elimination; 3 adds common-subexpression elimination.
func LevelConfig(level int) (Config, error) {
	if level < 0 || level > MaxLevel {
		return Config{}, fmt.Errorf("%w: %d (want 0..%d)", ErrInvalidLevel, level, MaxLevel)
	}

	cfg := Config{Level: level, MaxIterations: DefaultMaxIterations}
	if level >= 1 {
		cfg.Enable(PassConstantFolding)
		cfg.Enable(PassConstantPropagation)
		cfg.Enable(PassAlgebraicSimplification)
	}
	if level >= 2 {
		cfg.Enable(PassCopyPropagation)
		cfg.Enable(PassDeadCodeElimination)
	}
	if level >= 3 {
		cfg.Enable(PassCommonSubexpression)
	}
	return cfg, nil
}

func (c *Config) Enable(p Pass) {
	if p >= 0 && p < passCount {
		c.enabled[p] = true
	}
}

func (c *Config) Disable(p Pass) {
	if p >= 0 && p < passCount {
		c.enabled[p] = false
	}
}

func (c Config) Enabled(p Pass) bool {
	return p >= 0 && p < passCount && c.enabled[p]
}

// Stats accumulates what the optimizer changed
type Stats struct {
	Level      int
	Iterations int
	Eliminated int // instructions removed or reduced to copies
	Folded     int // compile-time evaluations and algebraic rewrites
	Propagated int // operands replaced by a constant or a copy source
	Before     int
	After      int
}

func (s Stats) total() int {
	return s.Eliminated + s.Folded + s.Propagated
}

// Changed reports whether any rewrite happened
func (s Stats) Changed() bool { return s.total() > 0 }

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "optimization level %d: %d iteration(s)\n", s.Level, s.Iterations)
	fmt.Fprintf(&b, "  instructions eliminated: %d\n", s.Eliminated)
	fmt.Fprintf(&b, "  constants folded:        %d\n", s.Folded)
	fmt.Fprintf(&b, "  constants propagated:    %d\n", s.Propagated)
	fmt.Fprintf(&b, "  instructions:            %d -> %d\n", s.Before, s.After)
	return b.String()
}

// Optimize rewrites list in place using the passes enabled for level
func Optimize(list *ir.List, level int) (Stats, error) {
	cfg, err := LevelConfig(level)
	if err != nil {
		return Stats{}, err
	}
	return Run(list, cfg), nil
}

// Run applies the passes enabled in cfg until one full iteration changes
// nothing or cfg.MaxIterations is reached.
func Run(list *ir.List, cfg Config) Stats {
	stats := Stats{Level: cfg.Level, Before: list.Len()}
	logger.Debug("Running optimization passes", "level", cfg.Level)

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	for stats.Iterations < maxIter && anyEnabled(cfg) {
		stats.Iterations++
		before := stats.total()

		for p := Pass(0); p < passCount; p++ {
			if !cfg.Enabled(p) {
				continue
			}
			n := runPass(list, p)
			logger.LogOptimization(p.String(), n)
			switch p {
			case PassConstantFolding, PassAlgebraicSimplification:
				stats.Folded += n
			case PassConstantPropagation, PassCopyPropagation:
				stats.Propagated += n
			case PassDeadCodeElimination, PassCommonSubexpression:
				stats.Eliminated += n
			}
		}

		if stats.total() == before {
			break
		}
	}

	stats.After = list.Len()
	logger.LogOptimizationStats(stats.Level, stats.Iterations, stats.Eliminated, stats.Folded, stats.Propagated)
	return stats
}

func anyEnabled(cfg Config) bool {
	for p := Pass(0); p < passCount; p++ {
		if cfg.Enabled(p) {
			return true
		}
	}
	return false
}

func runPass(list *ir.List, p Pass) int {
	switch p {
	case PassConstantFolding:
		return ConstantFold(list)
	case PassConstantPropagation:
		return PropagateConstants(list)
	case PassAlgebraicSimplification:
		return SimplifyAlgebra(list)
	case PassCopyPropagation:
		return PropagateCopies(list)
	case PassDeadCodeElimination:
		return DeadCodeElimination(list)
	case PassCommonSubexpression:
		return CommonSubexpressionElimination(list)
	}
	return 0
}

// rewriteConst turns the instruction into "result = c"
func rewriteConst(in *ir.Instruction, c ir.Operand) {
	in.Opcode = ir.OpLoadConst
	in.Op1 = c
	in.Op2 = ir.Operand{}
	in.BinOp = 0
}

// rewriteCopy turns the instruction into "result = src"
func rewriteCopy(in *ir.Instruction, src ir.Operand) {
	in.Opcode = ir.OpAssign
	in.Op1 = src
	in.Op2 = ir.Operand{}
	in.BinOp = 0
}
