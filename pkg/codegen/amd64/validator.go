// Package amd64 - Assembly validation and correctness verification
package amd64

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/minicc/pkg/logger"
)

// ValidationError represents an assembly validation error
type ValidationError struct {
	Line    int
	Message string
	Code    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s\n  %s", e.Line, e.Message, e.Code)
}

// asmLine is one source line split into its parts. Exactly one of label,
// directive and mnemonic is set on a non-blank, non-comment line.
type asmLine struct {
	num       int
	text      string
	label     string
	directive string
	mnemonic  string
	operands  []string
}

// Validator validates generated x86-64 assembly
type Validator struct {
	errors []ValidationError
	warns  []ValidationError
}

// NewValidator creates a new assembly validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate performs comprehensive validation on assembly code
func (v *Validator) Validate(assembly string) error {
	lines := parseLines(assembly)

	v.validateSyntax(lines)
	v.validateRegisters(lines)
	v.validateCallingConvention(lines)
	v.validateStackBalance(lines)
	v.validateInstructionValidity(lines)
	v.validateMemoryAddressing(lines)

	if len(v.errors) > 0 {
		return v.formatErrors()
	}

	if len(v.warns) > 0 {
		v.logWarnings()
	}

	return nil
}

// Warnings returns the warnings found by the last Validate
func (v *Validator) Warnings() []ValidationError { return v.warns }

func parseLines(assembly string) []asmLine {
	raw := strings.Split(assembly, "\n")
	lines := make([]asmLine, 0, len(raw))
	for i, text := range raw {
		l := asmLine{num: i + 1, text: text}
		s := strings.TrimSpace(text)
		if idx := strings.Index(s, "#"); idx >= 0 && !strings.HasPrefix(s, ".") {
			s = strings.TrimSpace(s[:idx])
		}
		switch {
		case s == "":
		case strings.HasSuffix(s, ":"):
			l.label = strings.TrimSuffix(s, ":")
		case strings.HasPrefix(s, "."):
			l.directive = s
		default:
			fields := strings.SplitN(s, " ", 2)
			l.mnemonic = fields[0]
			if len(fields) == 2 {
				for _, op := range splitOperands(fields[1]) {
					l.operands = append(l.operands, strings.TrimSpace(op))
				}
			}
		}
		lines = append(lines, l)
	}
	return lines
}

// splitOperands splits on commas outside parentheses
func splitOperands(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// isFunctionLabel reports whether a label starts a function rather than a
// local jump target
func (l asmLine) isFunctionLabel() bool {
	return l.label != "" && !strings.HasPrefix(l.label, ".L")
}

// validateSyntax checks for basic syntax errors
func (v *Validator) validateSyntax(lines []asmLine) {
	for _, l := range lines {
		if l.mnemonic != "" && !isValidInstruction(l.mnemonic) {
			v.addError(l.num, "malformed instruction", l.text)
		}

		// Check for invalid label format
		if l.label != "" && strings.ContainsAny(l.label, " \t") {
			v.addError(l.num, "invalid label format (contains spaces)", l.text)
		}
	}
}

var validRegs = map[string]bool{
	// 64-bit registers
	"%rax": true, "%rbx": true, "%rcx": true, "%rdx": true,
	"%rsi": true, "%rdi": true, "%rbp": true, "%rsp": true,
	"%r8": true, "%r9": true, "%r10": true, "%r11": true,
	"%r12": true, "%r13": true, "%r14": true, "%r15": true,
	// 32-bit registers
	"%eax": true, "%ebx": true, "%ecx": true, "%edx": true,
	"%esi": true, "%edi": true, "%ebp": true, "%esp": true,
	// 8-bit registers
	"%al": true, "%bl": true, "%cl": true, "%dl": true,
	// Instruction pointer (rip-relative data)
	"%rip": true,
}

var regPattern = regexp.MustCompile(`%[a-z0-9]+`)

func isValidRegister(reg string) bool {
	if validRegs[reg] {
		return true
	}
	// SSE registers %xmm0-%xmm15
	if n, ok := strings.CutPrefix(reg, "%xmm"); ok {
		idx, err := strconv.Atoi(n)
		return err == nil && idx >= 0 && idx <= 15 && strconv.Itoa(idx) == n
	}
	return false
}

// validateRegisters checks register usage correctness
func (v *Validator) validateRegisters(lines []asmLine) {
	for _, l := range lines {
		if l.mnemonic == "" {
			continue
		}
		for _, op := range l.operands {
			for _, reg := range regPattern.FindAllString(op, -1) {
				if !isValidRegister(reg) {
					v.addError(l.num, fmt.Sprintf("invalid register: %s", reg), l.text)
				}
			}
		}
	}
}

func isReturn(mnemonic string) bool {
	return mnemonic == "ret" || mnemonic == "retq"
}

// validateCallingConvention checks System V ABI compliance
func (v *Validator) validateCallingConvention(lines []asmLine) {
	inFunction := false
	functionName := ""
	savedRegs := make(map[string]bool)

	for _, l := range lines {
		// Track function boundaries
		if l.isFunctionLabel() {
			inFunction = true
			functionName = l.label
			savedRegs = make(map[string]bool)
		}

		if !inFunction || l.mnemonic == "" {
			continue
		}

		switch {
		case l.mnemonic == "pushq" && len(l.operands) == 1:
			if isCalleeSaved(l.operands[0]) {
				savedRegs[l.operands[0]] = true
			}
		case l.mnemonic == "popq" && len(l.operands) == 1:
			delete(savedRegs, l.operands[0])
		case l.mnemonic == "leave":
			// leave restores rbp automatically
			delete(savedRegs, "%rbp")
		case isReturn(l.mnemonic):
			// Verify all saved registers were restored
			if len(savedRegs) > 0 {
				v.addError(l.num, fmt.Sprintf("callee-saved registers not restored in %s: %v", functionName, savedRegs), l.text)
			}
			inFunction = false
		}
	}
}

// validateStackBalance checks stack push/pop balance
func (v *Validator) validateStackBalance(lines []asmLine) {
	stackDepth := 0
	inFunction := false

	for _, l := range lines {
		if l.isFunctionLabel() {
			inFunction = true
			stackDepth = 0
		}

		if !inFunction || l.mnemonic == "" {
			continue
		}

		touchesRSP := len(l.operands) == 2 && l.operands[1] == "%rsp"
		switch {
		case l.mnemonic == "pushq":
			stackDepth++
		case l.mnemonic == "popq":
			stackDepth--
		case l.mnemonic == "subq" && touchesRSP:
			stackDepth++
		case l.mnemonic == "addq" && touchesRSP:
			stackDepth--
		case isReturn(l.mnemonic):
			if stackDepth < 0 {
				v.addError(l.num, "stack underflow detected", l.text)
			}
			// pushq %rbp is undone by leave, which is not counted
			if stackDepth > 2 {
				v.addWarn(l.num, fmt.Sprintf("potential stack imbalance: depth=%d", stackDepth), l.text)
			}
			inFunction = false
		}
	}
}

// validateInstructionValidity checks for invalid instruction combinations
func (v *Validator) validateInstructionValidity(lines []asmLine) {
	var prev asmLine
	for _, l := range lines {
		if l.mnemonic == "" {
			continue
		}

		// Check for invalid immediate values as destinations
		if len(l.operands) >= 2 && isInstructionWithDestination(l.mnemonic) {
			if strings.HasPrefix(l.operands[len(l.operands)-1], "$") {
				v.addError(l.num, "immediate value cannot be destination", l.text)
			}
		}

		// Check for invalid memory-to-memory operations
		if len(l.operands) == 2 && isMemoryOperand(l.operands[0]) && isMemoryOperand(l.operands[1]) {
			v.addError(l.num, "x86-64 doesn't support memory-to-memory operands", l.text)
		}

		// Check division without proper setup
		if l.mnemonic == "idivq" && prev.mnemonic != "cqto" {
			v.addWarn(l.num, "division without cqto may cause incorrect results", l.text)
		}

		// Conversion and SSE arithmetic write a register
		if isSSEDestination(l.mnemonic) && len(l.operands) == 2 && !strings.HasPrefix(l.operands[1], "%") {
			v.addError(l.num, fmt.Sprintf("%s needs a register destination", l.mnemonic), l.text)
		}

		prev = l
	}
}

// validateMemoryAddressing checks memory addressing mode correctness
func (v *Validator) validateMemoryAddressing(lines []asmLine) {
	// Pattern for memory operands with explicit scale: (%base,%index,scale)
	scaledPattern := regexp.MustCompile(`\(%[a-z0-9]+,%[a-z0-9]+,(\d+)\)`)

	for _, l := range lines {
		if l.mnemonic == "" {
			continue
		}
		for _, op := range l.operands {
			for _, match := range scaledPattern.FindAllStringSubmatch(op, -1) {
				scale := match[1]
				if scale != "1" && scale != "2" && scale != "4" && scale != "8" {
					v.addError(l.num, fmt.Sprintf("invalid scale factor: %s (must be 1, 2, 4, or 8)", scale), l.text)
				}
			}
		}
	}
}

// Helper functions

func (v *Validator) addError(line int, msg, code string) {
	v.errors = append(v.errors, ValidationError{Line: line, Message: msg, Code: code})
}

func (v *Validator) addWarn(line int, msg, code string) {
	v.warns = append(v.warns, ValidationError{Line: line, Message: msg, Code: code})
}

func (v *Validator) formatErrors() error {
	var sb strings.Builder
	sb.WriteString("Assembly validation failed:\n")
	for _, err := range v.errors {
		sb.WriteString("  " + err.Error() + "\n")
	}
	return fmt.Errorf("%s", sb.String())
}

func (v *Validator) logWarnings() {
	for _, warn := range v.warns {
		logger.Warn("Assembly validation warning", "line", warn.Line, "msg", warn.Message)
	}
}

var validInsts = map[string]bool{
	"movq": true, "movl": true, "movabsq": true, "movzbq": true, "movsd": true,
	"leaq": true, "pushq": true, "popq": true,
	"addq": true, "subq": true, "imulq": true, "idivq": true, "cqto": true, "cltq": true,
	"andb": true, "xorb": true, "xorl": true, "xorq": true, "andq": true, "orq": true,
	"addsd": true, "subsd": true, "mulsd": true, "divsd": true, "pxor": true,
	"cvtsi2sdq": true, "cvttsd2siq": true, "ucomisd": true,
	"cmpq": true, "testq": true,
	"sete": true, "setne": true, "setl": true, "setg": true, "setle": true, "setge": true,
	"seta": true, "setae": true, "setb": true, "setbe": true,
	"jmp": true, "jz": true, "jnz": true, "je": true, "jne": true, "jp": true,
	"callq": true, "call": true, "retq": true, "ret": true, "leave": true,
}

func isValidInstruction(mnemonic string) bool {
	return validInsts[mnemonic]
}

func isCalleeSaved(reg string) bool {
	for _, r := range CalleeSaved {
		if r == reg {
			return true
		}
	}
	return reg == "%rbp" || reg == "%rsp"
}

func isInstructionWithDestination(mnemonic string) bool {
	destInsts := []string{"mov", "add", "sub", "imul", "lea", "and", "or", "xor", "cvt"}
	for _, inst := range destInsts {
		if strings.HasPrefix(mnemonic, inst) {
			return true
		}
	}
	return false
}

func isSSEDestination(mnemonic string) bool {
	switch mnemonic {
	case "addsd", "subsd", "mulsd", "divsd", "cvtsi2sdq", "cvttsd2siq", "ucomisd", "pxor":
		return true
	}
	return false
}

func isMemoryOperand(operand string) bool {
	return strings.Contains(operand, "(") && strings.Contains(operand, ")")
}

// ValidateProgram validates an entire generated program
func ValidateProgram(assembly string) error {
	validator := NewValidator()
	return validator.Validate(assembly)
}

// QuickValidate performs fast basic validation for development
func QuickValidate(assembly string) bool {
	validator := NewValidator()
	lines := parseLines(assembly)

	// Just check syntax and registers for quick feedback
	validator.validateSyntax(lines)
	validator.validateRegisters(lines)

	return len(validator.errors) == 0
}

// ValidateAndReport validates assembly and returns a detailed report
func ValidateAndReport(assembly string) (bool, string) {
	validator := NewValidator()
	err := validator.Validate(assembly)

	var report strings.Builder
	report.WriteString("=== Assembly Validation Report ===\n\n")

	if err != nil {
		fmt.Fprintf(&report, "Status: FAILED\n\nErrors:\n%s\n", err.Error())
		return false, report.String()
	}

	report.WriteString("Status: PASSED\n\n")

	if len(validator.warns) > 0 {
		report.WriteString("Warnings:\n")
		for _, warn := range validator.warns {
			fmt.Fprintf(&report, "  Line %d: %s\n", warn.Line, warn.Message)
		}
	} else {
		report.WriteString("No warnings.\n")
	}

	lines := parseLines(assembly)
	instCount := 0
	for _, l := range lines {
		if l.mnemonic != "" {
			instCount++
		}
	}

	report.WriteString("\nStatistics:\n")
	fmt.Fprintf(&report, "  Total lines: %d\n", len(lines))
	fmt.Fprintf(&report, "  Instructions: %d\n", instCount)

	logger.Info("Assembly validation passed", "instructions", instCount, "warnings", len(validator.warns))

	return true, report.String()
}
