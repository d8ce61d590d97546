package ir

import (
	"encoding/json"
	"fmt"
)

// Type is a Bril type: a primitive name like "int" or "bool", or a
// parameterized pointer type. The wire form is a bare string for primitives
// and {"ptr": <type>} for pointers. Passes preserve types verbatim and copy
// them onto any instruction they synthesize.
type Type struct {
	Prim string // primitive name; empty when Ptr is set
	Ptr  *Type  // pointee of a ptr<T>
}

// IntType and BoolType are the primitive types produced by arithmetic and
// comparison opcodes.
var (
	IntType  = &Type{Prim: "int"}
	BoolType = &Type{Prim: "bool"}
)

// PtrTo returns the pointer type with the given pointee.
func PtrTo(t *Type) *Type {
	return &Type{Ptr: t}
}

// Equals reports structural equality. A nil type only equals nil.
func (t *Type) Equals(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Ptr != nil || other.Ptr != nil {
		return t.Ptr != nil && other.Ptr != nil && t.Ptr.Equals(other.Ptr)
	}
	return t.Prim == other.Prim
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Ptr != nil {
		return fmt.Sprintf("ptr<%s>", t.Ptr)
	}
	return t.Prim
}

// MarshalJSON emits the wire form: "int" or {"ptr": <type>}.
func (t *Type) MarshalJSON() ([]byte, error) {
	if t.Ptr != nil {
		return json.Marshal(map[string]*Type{"ptr": t.Ptr})
	}
	return json.Marshal(t.Prim)
}

// UnmarshalJSON accepts either a bare string or a {"ptr": <type>} object.
func (t *Type) UnmarshalJSON(data []byte) error {
	var prim string
	if err := json.Unmarshal(data, &prim); err == nil {
		t.Prim = prim
		t.Ptr = nil
		return nil
	}
	var obj map[string]*Type
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("malformed type %s", data)
	}
	pointee, ok := obj["ptr"]
	if !ok || len(obj) != 1 {
		return fmt.Errorf("malformed parameterized type %s", data)
	}
	t.Prim = ""
	t.Ptr = pointee
	return nil
}
