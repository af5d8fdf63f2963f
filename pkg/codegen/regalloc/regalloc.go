// Package regalloc implements on-demand register allocation over a fixed pool.
//
// Design: Registers are handed out first-free within their class and
// released once the temp's live interval ends. There is no spilling: an
// exhausted pool is reported to the caller, which skips the instruction.
package regalloc

import (
	"fmt"

	"github.com/GriffinCanCode/minicc/pkg/ir"
	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// Class separates general-purpose and floating-point registers
type Class int

const (
	General Class = iota
	Float
)

func (c Class) String() string {
	if c == Float {
		return "float"
	}
	return "general"
}

// ClassOf returns the register class that holds values of type t
func ClassOf(t ir.DataType) Class {
	if t == ir.Float {
		return Float
	}
	return General
}

// Config holds register allocation configuration for an architecture
type Config struct {
	General     []string // Allocatable general registers, in preference order
	Float       []string // Allocatable float registers, in preference order
	Reserved    []string // Never allocated (return, division, scratch)
	CalleeSaved []string // Must be preserved across the function if used
	CallerSaved []string // Clobbered by calls
}

// AMD64Config prefers callee-saved general registers, then the
// caller-saved ones the emitter saves around printf. %rax and %rdx are left
// for returns and idiv, %rcx and %xmm14-15 are emitter scratch.
func AMD64Config() *Config {
	return &Config{
		General: []string{"%rbx", "%r12", "%r13", "%r14", "%r15",
			"%r10", "%r11", "%rsi", "%rdi", "%r8", "%r9"},
		Float:       []string{"%xmm8", "%xmm9", "%xmm10", "%xmm11"},
		Reserved:    []string{"%rax", "%rdx", "%rcx", "%xmm0", "%xmm14", "%xmm15"},
		CalleeSaved: []string{"%rbx", "%r12", "%r13", "%r14", "%r15"},
		CallerSaved: []string{"%rax", "%rcx", "%rdx", "%rsi", "%rdi", "%r8", "%r9", "%r10", "%r11",
			"%xmm8", "%xmm9", "%xmm10", "%xmm11"},
	}
}

// PseudoConfig is the teaching machine: eight general and four float
// registers, nothing reserved.
func PseudoConfig() *Config {
	return &Config{
		General: []string{"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7"},
		Float:   []string{"F0", "F1", "F2", "F3"},
	}
}

// Validate reports a register that is both allocatable and reserved, or
// listed twice
func (c *Config) Validate() error {
	reserved := make(map[string]bool, len(c.Reserved))
	for _, name := range c.Reserved {
		reserved[name] = true
	}
	seen := make(map[string]bool)
	for _, name := range append(append([]string{}, c.General...), c.Float...) {
		if reserved[name] {
			return fmt.Errorf("register %s is both allocatable and reserved", name)
		}
		if seen[name] {
			return fmt.Errorf("register %s listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

// Register is one physical register of the pool
type Register struct {
	Name  string
	Class Class
	temp  int
	free  bool
}

// Pool tracks which temp, if any, each register holds
type Pool struct {
	cfg         *Config
	regs        []*Register
	byTemp      map[int]*Register
	used        map[string]bool
	callerSaved map[string]bool
}

// NewPool creates a pool with every register of cfg free. A register that
// cfg also lists as reserved is never handed out.
func NewPool(cfg *Config) *Pool {
	p := &Pool{cfg: cfg, callerSaved: make(map[string]bool)}
	reserved := make(map[string]bool)
	for _, name := range cfg.Reserved {
		reserved[name] = true
	}
	for _, name := range cfg.CallerSaved {
		p.callerSaved[name] = true
	}
	add := func(names []string, class Class) {
		for _, name := range names {
			if reserved[name] {
				logger.Warn("Reserved register left out of the pool", "reg", name)
				continue
			}
			p.regs = append(p.regs, &Register{Name: name, Class: class})
		}
	}
	add(cfg.General, General)
	add(cfg.Float, Float)
	p.Reset()
	return p
}

// Reset frees every register and forgets usage history
func (p *Pool) Reset() {
	for _, r := range p.regs {
		r.free = true
		r.temp = 0
	}
	p.byTemp = make(map[int]*Register)
	p.used = make(map[string]bool)
}

// Allocate binds temp to the first free register of class. ok is false
// when the class is exhausted.
func (p *Pool) Allocate(temp int, class Class) (string, bool) {
	if r, bound := p.byTemp[temp]; bound {
		if r.Class == class {
			return r.Name, true
		}
		p.Free(temp)
	}
	for _, r := range p.regs {
		if r.free && r.Class == class {
			r.free = false
			r.temp = temp
			p.byTemp[temp] = r
			p.used[r.Name] = true
			logger.Debug("Allocated register", "temp", temp, "reg", r.Name)
			return r.Name, true
		}
	}
	return "", false
}

// Rebind moves the register held by from over to to, releasing from
func (p *Pool) Rebind(from, to int) (string, bool) {
	r, ok := p.byTemp[from]
	if !ok {
		return "", false
	}
	delete(p.byTemp, from)
	r.temp = to
	p.byTemp[to] = r
	return r.Name, true
}

// Lookup returns the register bound to temp
func (p *Pool) Lookup(temp int) (string, bool) {
	r, ok := p.byTemp[temp]
	if !ok {
		return "", false
	}
	return r.Name, true
}

// ClassOfTemp returns the class of the register bound to temp
func (p *Pool) ClassOfTemp(temp int) (Class, bool) {
	r, ok := p.byTemp[temp]
	if !ok {
		return General, false
	}
	return r.Class, true
}

// Free releases the register bound to temp, if any
func (p *Pool) Free(temp int) {
	r, ok := p.byTemp[temp]
	if !ok {
		return
	}
	r.free = true
	r.temp = 0
	delete(p.byTemp, temp)
	logger.Debug("Freed register", "temp", temp, "reg", r.Name)
}

// Binding is a register currently holding a temp
type Binding struct {
	Temp  int
	Reg   string
	Class Class
}

// CallerSavedBound returns the bound registers a call clobbers, in pool
// order
func (p *Pool) CallerSavedBound() []Binding {
	var out []Binding
	for _, r := range p.regs {
		if !r.free && p.callerSaved[r.Name] {
			out = append(out, Binding{Temp: r.temp, Reg: r.Name, Class: r.Class})
		}
	}
	return out
}

// InUse returns the number of registers currently bound
func (p *Pool) InUse() int { return len(p.byTemp) }

// Used returns every register that was ever allocated, in pool order
func (p *Pool) Used() []string {
	var out []string
	for _, r := range p.regs {
		if p.used[r.Name] {
			out = append(out, r.Name)
		}
	}
	return out
}

// UsedCalleeSaved returns the callee-saved registers that were allocated,
// in configuration order
func (p *Pool) UsedCalleeSaved() []string {
	var out []string
	for _, name := range p.cfg.CalleeSaved {
		if p.used[name] {
			out = append(out, name)
		}
	}
	return out
}
