// Package amd64 - Tests for assembly validator
package amd64

import (
	"strings"
	"testing"
)

func TestValidatorAccepts(t *testing.T) {
	tests := []struct {
		name string
		asm  string
	}{
		{
			name: "frame",
			asm: `
	.section .text
	.globl main
main:
	pushq %rbp
	movq %rsp, %rbp
	movq %rdi, %rax
	addq %rsi, %rax
	leave
	retq
`,
		},
		{
			name: "callee_saved_restored",
			asm: `
main:
	pushq %rbx
	pushq %r12
	movq $42, %rax
	popq %r12
	popq %rbx
	retq
`,
		},
		{
			name: "division_setup",
			asm: `
main:
	movq %rdi, %rax
	cqto
	idivq %rsi
	retq
`,
		},
		{
			name: "sse_and_rip_relative",
			asm: `
main:
	movsd .LF0(%rip), %xmm8
	cvtsi2sdq v_x(%rip), %xmm15
	addsd %xmm15, %xmm8
	ucomisd .LF1(%rip), %xmm8
	seta %al
	movzbq %al, %rbx
	retq
`,
		},
		{
			// .string payloads contain % and words like ret
			name: "data_directives_ignored",
			asm: `
	.section .rodata
.LC0:
	.string "ret %d %zz\n"
	.section .text
main:
	leaq .LC0(%rip), %rdi
	movl $0, %eax
	callq printf@PLT
	retq
`,
		},
		{
			name: "local_return_label",
			asm: `
main:
	pushq %rbp
	movq %rsp, %rbp
	pushq %rbx
	subq $8, %rsp
	jmp .Lret_main
	xorl %eax, %eax
.Lret_main:
	addq $8, %rsp
	popq %rbx
	leave
	retq
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewValidator().Validate(tt.asm); err != nil {
				t.Errorf("valid assembly rejected: %v", err)
			}
		})
	}
}

func TestValidatorRejects(t *testing.T) {
	tests := []struct {
		name    string
		asm     string
		wantErr string
	}{
		{
			name:    "invalid_register",
			asm:     "main:\n\tmovq %invalid, %rax\n\tretq\n",
			wantErr: "invalid register",
		},
		{
			name:    "xmm_out_of_range",
			asm:     "main:\n\tmovsd %xmm16, %xmm0\n\tretq\n",
			wantErr: "invalid register",
		},
		{
			name:    "memory_to_memory",
			asm:     "main:\n\tmovq (%rdi), (%rsi)\n\tretq\n",
			wantErr: "memory-to-memory",
		},
		{
			name:    "callee_saved_not_restored",
			asm:     "main:\n\tpushq %rbx\n\tpushq %r12\n\tmovq $42, %rax\n\tpopq %rbx\n\tretq\n",
			wantErr: "not restored",
		},
		{
			name:    "scale_factor",
			asm:     "main:\n\tmovq (%rax,%rbx,3), %rcx\n\tretq\n",
			wantErr: "scale factor",
		},
		{
			name:    "immediate_destination",
			asm:     "main:\n\tmovq %rax, $42\n\tretq\n",
			wantErr: "immediate",
		},
		{
			name:    "unknown_mnemonic",
			asm:     "main:\n\tfrobq %rax\n\tretq\n",
			wantErr: "malformed instruction",
		},
		{
			name:    "sse_memory_destination",
			asm:     "main:\n\taddsd %xmm8, v_x(%rip)\n\tretq\n",
			wantErr: "register destination",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator().Validate(tt.asm)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in error, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidatorDivisionWarning(t *testing.T) {
	v := NewValidator()
	err := v.Validate("main:\n\tmovq %rdi, %rax\n\tidivq %rsi\n\tretq\n")
	if err != nil {
		t.Fatalf("division without cqto should only warn: %v", err)
	}
	if len(v.Warnings()) != 1 || !strings.Contains(v.Warnings()[0].Message, "cqto") {
		t.Errorf("warnings = %v", v.Warnings())
	}
}

func TestQuickValidate(t *testing.T) {
	if !QuickValidate("main:\n\tmovq %rdi, %rax\n\tretq\n") {
		t.Error("QuickValidate failed on valid assembly")
	}
	if QuickValidate("main:\n\tmovq %invalid, %rax\n") {
		t.Error("QuickValidate passed on invalid assembly")
	}
}

func TestValidateAndReport(t *testing.T) {
	asm := `
	.globl add
add:
	pushq %rbp
	movq %rsp, %rbp
	movq %rdi, %rax
	addq %rsi, %rax
	popq %rbp
	retq
`
	passed, report := ValidateAndReport(asm)
	if !passed {
		t.Fatalf("ValidateAndReport failed on valid assembly:\n%s", report)
	}
	for _, want := range []string{"PASSED", "Statistics", "Instructions: 6"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestSplitOperands(t *testing.T) {
	got := splitOperands("(%rax,%rbx,8), %rcx")
	if len(got) != 2 || got[0] != "(%rax,%rbx,8)" {
		t.Errorf("splitOperands = %q", got)
	}
}

// Benchmark validator performance
func BenchmarkValidator(b *testing.B) {
	asm := `
	.globl main
main:
	pushq %rbp
	movq %rsp, %rbp
	movq %rdi, %rax
	addq %rsi, %rax
	imulq %rdx, %rax
	popq %rbp
	retq
`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = NewValidator().Validate(asm)
	}
}
