package ir

// VarTypeTable maps a source variable to its declared type for one
// generation session. A later declaration of the same name shadows the
// earlier one.
type VarTypeTable struct {
	types map[string]DataType
}

func NewVarTypeTable() *VarTypeTable {
	return &VarTypeTable{types: make(map[string]DataType)}
}

func (t *VarTypeTable) Declare(name string, typ DataType) {
	t.types[name] = typ
}

// Lookup returns the declared type and whether name was declared
func (t *VarTypeTable) Lookup(name string) (DataType, bool) {
	typ, ok := t.types[name]
	return typ, ok
}

// TypeOf returns the declared type of name, or Int when name was never
// declared.
func (t *VarTypeTable) TypeOf(name string) DataType {
	if typ, ok := t.types[name]; ok {
		return typ
	}
	return Int
}

func (t *VarTypeTable) Len() int { return len(t.types) }
