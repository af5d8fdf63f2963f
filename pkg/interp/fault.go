package interp

import (
	"errors"
	"fmt"
)

// ErrNilList is returned when there is nothing to execute
var ErrNilList = errors.New("interp: nil instruction list")

// FaultKind classifies a recoverable runtime fault
type FaultKind int

const (
	MissingVariable FaultKind = iota
	DivisionByZero
	UndefinedLabel
	DuplicateLabel
	BadOperand
	UnsupportedInstruction
	StepLimit
)

var faultNames = [...]string{
	MissingVariable:        "missing-variable",
	DivisionByZero:         "division-by-zero",
	UndefinedLabel:         "undefined-label",
	DuplicateLabel:         "duplicate-label",
	BadOperand:             "bad-operand",
	UnsupportedInstruction: "unsupported-instruction",
	StepLimit:              "step-limit",
}

func (k FaultKind) String() string {
	if k >= 0 && int(k) < len(faultNames) {
		return faultNames[k]
	}
	return fmt.Sprintf("fault(%d)", int(k))
}

// Fault is a runtime error that was replaced by a safe default. Execution
// continues after every kind except StepLimit.
type Fault struct {
	Kind    FaultKind
	PC      int
	Message string
}

func (f Fault) Error() string {
	return fmt.Sprintf("%s at %d: %s", f.Kind, f.PC, f.Message)
}
