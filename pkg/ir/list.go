package ir

// ID addresses an instruction in a List's arena
type ID int

// None is the end-of-list / no-instruction marker
const None ID = -1

// List is the instruction stream. Instructions are stored in an arena and
// linked by index; removal unlinks in O(1) and never frees storage, so an
// ID handed out by Append stays valid (and keeps its successor link) for the
// life of the list.
//
// Pointers returned by At are invalidated by the next Append.
type List struct {
	arena []Instruction
	head  ID
	tail  ID
	live  int
}

func NewList() *List {
	return &List{head: None, tail: None}
}

// Append links inst at the tail and returns its ID
func (l *List) Append(inst Instruction) ID {
	id := ID(len(l.arena))
	inst.prev = l.tail
	inst.next = None
	inst.removed = false
	l.arena = append(l.arena, inst)
	if l.tail == None {
		l.head = id
	} else {
		l.arena[l.tail].next = id
	}
	l.tail = id
	l.live++
	return id
}

func (l *List) Head() ID { return l.head }
func (l *List) Tail() ID { return l.tail }

// Next returns the successor of id. It is safe to call on a removed
// instruction while iterating.
func (l *List) Next(id ID) ID {
	if id == None {
		return None
	}
	return l.arena[id].next
}

func (l *List) Prev(id ID) ID {
	if id == None {
		return None
	}
	return l.arena[id].prev
}

// At returns the instruction stored under id
func (l *List) At(id ID) *Instruction {
	return &l.arena[id]
}

// Removed reports whether id has been unlinked
func (l *List) Removed(id ID) bool {
	return l.arena[id].removed
}

// Remove unlinks id. The removed node keeps its next link so a forward
// walk that is standing on it can continue.
func (l *List) Remove(id ID) {
	in := &l.arena[id]
	if in.removed {
		return
	}
	if in.prev == None {
		l.head = in.next
	} else {
		l.arena[in.prev].next = in.next
	}
	if in.next == None {
		l.tail = in.prev
	} else {
		l.arena[in.next].prev = in.prev
	}
	in.removed = true
	l.live--
}

// Len returns the number of linked instructions
func (l *List) Len() int { return l.live }

// IDs returns the linked instruction IDs in program order
func (l *List) IDs() []ID {
	ids := make([]ID, 0, l.live)
	for id := l.head; id != None; id = l.arena[id].next {
		ids = append(ids, id)
	}
	return ids
}

// Instructions returns the linked instructions in program order
func (l *List) Instructions() []*Instruction {
	out := make([]*Instruction, 0, l.live)
	for id := l.head; id != None; id = l.arena[id].next {
		out = append(out, &l.arena[id])
	}
	return out
}

// Clone returns an independent copy of the list
func (l *List) Clone() *List {
	c := &List{head: l.head, tail: l.tail, live: l.live}
	c.arena = append([]Instruction(nil), l.arena...)
	return c
}
