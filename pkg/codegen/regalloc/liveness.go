package regalloc

import (
	"sort"

	"github.com/GriffinCanCode/minicc/pkg/ir"
)

// Interval represents the live range of a temp in instruction positions
type Interval struct {
	Temp  int
	Start int // First instruction where the temp is defined
	End   int // Last instruction where the temp is read
}

// Liveness maps each temp to its live interval
type Liveness map[int]*Interval

// ComputeLiveness numbers insts and computes one interval per temp.
// A Param's read is charged to the Call that consumes it, and an interval
// that spans a loop header is stretched to the loop's backward jump.
func ComputeLiveness(insts []*ir.Instruction) Liveness {
	live := make(Liveness)
	labels := make(map[string]int)

	use := func(op ir.Operand, pos int) {
		if op.Kind != ir.TempOperand {
			return
		}
		iv, ok := live[op.ID]
		if !ok {
			iv = &Interval{Temp: op.ID, Start: pos, End: pos}
			live[op.ID] = iv
		}
		if pos > iv.End {
			iv.End = pos
		}
	}

	for pos, in := range insts {
		if in.Opcode == ir.OpLabel {
			labels[in.Op1.Name] = pos
		}

		readPos := pos
		if in.Opcode == ir.OpParam {
			readPos = consumingCall(insts, pos)
		}
		use(in.Op1, readPos)
		use(in.Op2, readPos)

		if in.Result.Kind == ir.TempOperand {
			if iv, ok := live[in.Result.ID]; ok {
				if pos < iv.Start {
					iv.Start = pos
				}
			} else {
				live[in.Result.ID] = &Interval{Temp: in.Result.ID, Start: pos, End: pos}
			}
		}
	}

	for pos, in := range insts {
		if !in.Opcode.IsJump() {
			continue
		}
		head, ok := labels[in.Target()]
		if !ok || head > pos {
			continue
		}
		for _, iv := range live {
			if iv.Start < head && iv.End >= head && iv.End < pos {
				iv.End = pos
			}
		}
	}

	return live
}

// consumingCall returns the position of the Call that takes the Param at
// pos, or pos when none follows.
func consumingCall(insts []*ir.Instruction, pos int) int {
	for i := pos + 1; i < len(insts); i++ {
		if insts[i].Opcode == ir.OpCall {
			return i
		}
	}
	return pos
}

// EndsAt reports whether temp is last read at pos
func (l Liveness) EndsAt(temp, pos int) bool {
	iv, ok := l[temp]
	return ok && iv.End <= pos
}

// LiveAfter reports whether temp is still needed after pos
func (l Liveness) LiveAfter(temp, pos int) bool {
	iv, ok := l[temp]
	return ok && iv.End > pos
}

// ExpiryIndex maps each position to the temps whose interval ends there,
// in ascending temp order
func (l Liveness) ExpiryIndex() map[int][]int {
	index := make(map[int][]int)
	for id, iv := range l {
		index[iv.End] = append(index[iv.End], id)
	}
	for _, temps := range index {
		sort.Ints(temps)
	}
	return index
}
