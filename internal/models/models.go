package models

// Kind is the inferred category of a JSON node. Interface is the fallback for
// null and for anything that cannot be narrowed further.
type Kind int

const (
	Interface Kind = iota
	String
	Int
	Float
	Bool
	Slice
	Struct
)

var kindNames = [...]string{
	Interface: "any",
	String:    "string",
	Int:       "int",
	Float:     "float",
	Bool:      "bool",
	Slice:     "slice",
	Struct:    "struct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// TypeInfo describes the Go type inferred for one JSON node.
type TypeInfo struct {
	Kind Kind
	// Elem is the element type of a Slice.
	Elem *TypeInfo
	// StructName is the declared name of a Struct.
	StructName string
	// Name overrides the rendered type token. Set by configured type mappings.
	Name      string
	IsPointer bool
}

// SliceOf returns a Slice type with the given element.
func SliceOf(elem TypeInfo) TypeInfo {
	return TypeInfo{Kind: Slice, Elem: &elem}
}

// StructOf returns a reference to the named struct.
func StructOf(name string) TypeInfo {
	return TypeInfo{Kind: Struct, StructName: name}
}

// Innermost returns the non-slice type at the bottom of a (possibly nested)
// slice type, and how many slice levels wrap it.
func (t TypeInfo) Innermost() (TypeInfo, int) {
	depth := 0
	for t.Kind == Slice && t.Elem != nil {
		t = *t.Elem
		depth++
	}
	return t, depth
}

// FieldInfo is one field of a generated struct.
type FieldInfo struct {
	JSONKey   string
	GoName    string
	GoType    TypeInfo
	Omitempty bool
	Skip      bool
}

// StructDef is a generated struct declaration.
type StructDef struct {
	Name   string
	Fields []FieldInfo
	IsRoot bool
}

// AnalysisResult holds everything the generator needs to render declarations.
// Structs are in emission order: depth-first, parents before children.
type AnalysisResult struct {
	RootName string
	Root     TypeInfo
	Structs  []StructDef
	// Imports lists packages referenced by configured type mappings.
	Imports map[string]struct{}
}
