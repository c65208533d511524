package analyzer

import (
	"github.com/mcncl/jsonstruct/internal/config"
	"github.com/mcncl/jsonstruct/internal/models"
	"github.com/mcncl/jsonstruct/internal/naming"
)

// DefaultRootName is the default name for the root type if not specified.
const DefaultRootName = "RootType"

// itemSuffix names the element struct of a root-level array of objects.
const itemSuffix = "Item"

// Analyzer infers Go types and struct definitions from a JSON value.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	config *config.Config
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{config: config.NewConfig()}
}

// NewAnalyzerWithConfig creates a new Analyzer instance with custom configuration.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// pending is an object node whose struct has been named but not yet built.
type pending struct {
	name   string
	obj    models.JSONObject
	isRoot bool
}

// analysis is the state of a single Analyze call.
type analysis struct {
	config   *config.Config
	declared *naming.Unique
	result   models.AnalysisResult
}

// Analyze walks root and returns the struct declarations needed to describe
// it. Structs are listed parents first, depth-first, in key order.
//
// Objects are expanded from an explicit stack rather than by recursion, so
// deeply nested input does not grow the call stack.
func (a *Analyzer) Analyze(root models.JSONValue, rootName string) models.AnalysisResult {
	if rootName == "" {
		rootName = DefaultRootName
	}

	run := &analysis{
		config:   a.config,
		declared: naming.NewUnique(),
		result: models.AnalysisResult{
			RootName: rootName,
			Structs:  make([]models.StructDef, 0),
			Imports:  make(map[string]struct{}),
		},
	}
	run.declared.Reserve(rootName)

	var stack []pending
	if obj, ok := root.(models.JSONObject); ok {
		run.result.Root = models.StructOf(rootName)
		stack = append(stack, pending{name: rootName, obj: obj, isRoot: true})
	} else {
		rootType, next := run.inferType(root, "", rootName+itemSuffix)
		run.result.Root = rootType
		if next != nil {
			stack = append(stack, *next)
		}
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		def, children := run.buildStruct(current)
		run.result.Structs = append(run.result.Structs, def)

		// Push in reverse so the first child is expanded next.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	return run.result
}

// buildStruct creates the definition for one object and returns the nested
// objects it references, in key order.
func (r *analysis) buildStruct(p pending) (models.StructDef, []pending) {
	def := models.StructDef{
		Name:   p.name,
		Fields: make([]models.FieldInfo, 0, len(p.obj)),
		IsRoot: p.isRoot,
	}
	fieldNames := naming.NewUnique()
	var children []pending

	for _, member := range p.obj {
		goName := fieldNames.Claim(r.config.GetFieldName(member.Key))

		var fieldType models.TypeInfo
		if mapping, found := r.config.FindTypeMapping(member.Key); found {
			fieldType = models.TypeInfo{Kind: shallowKind(member.Value), Name: mapping.Type}
			if mapping.Import != "" {
				r.result.Imports[mapping.Import] = struct{}{}
			}
		} else {
			var next *pending
			fieldType, next = r.inferType(member.Value, p.name, goName)
			if next != nil {
				children = append(children, *next)
			}
		}

		if r.config.Types.OptionalAsPointers && isOptional(member.Value, fieldType) {
			fieldType.IsPointer = true
		}

		def.Fields = append(def.Fields, models.FieldInfo{
			JSONKey:   member.Key,
			GoName:    goName,
			GoType:    fieldType,
			Omitempty: r.omitempty(fieldType),
			Skip:      r.config.ShouldSkipField(member.Key),
		})
	}

	return def, children
}

// inferType determines the type of value. Arrays are unwrapped level by level
// using a representative element; if the innermost value is an object it is
// given a struct name derived from parent and base and returned as pending.
func (r *analysis) inferType(value models.JSONValue, parent, base string) (models.TypeInfo, *pending) {
	depth := 0
	for {
		arr, ok := value.(models.JSONArray)
		if !ok {
			break
		}
		depth++
		elem, ok := r.representative(arr)
		if !ok {
			return wrapSlice(models.TypeInfo{Kind: models.Interface}, depth), nil
		}
		value = elem
	}

	var next *pending
	var t models.TypeInfo
	switch v := value.(type) {
	case models.JSONBool:
		t = models.TypeInfo{Kind: models.Bool}
	case models.JSONInt:
		t = models.TypeInfo{Kind: models.Int}
	case models.JSONFloat:
		t = models.TypeInfo{Kind: models.Float}
	case models.JSONString:
		t = models.TypeInfo{Kind: models.String}
	case models.JSONObject:
		name := r.structName(parent, base)
		t = models.StructOf(name)
		next = &pending{name: name, obj: v}
	default:
		// JSONNull, and a nil interface from hand-built values.
		t = models.TypeInfo{Kind: models.Interface}
	}
	return wrapSlice(t, depth), next
}

// representative picks the element whose type stands for the whole array.
// It reports false when the array is empty or, in uniform mode, when the
// elements do not agree on a kind.
func (r *analysis) representative(arr models.JSONArray) (models.JSONValue, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	if r.config.Arrays.Inference != config.ArrayInferenceUniform {
		return arr[0], true
	}

	first := shallowKind(arr[0])
	var widened models.JSONValue
	for _, elem := range arr[1:] {
		kind := shallowKind(elem)
		if kind == first {
			continue
		}
		// Integers and floats widen to float.
		if (first == models.Int && kind == models.Float) || (first == models.Float && kind == models.Int) {
			if kind == models.Float && widened == nil {
				widened = elem
			}
			continue
		}
		return nil, false
	}
	if widened != nil {
		return widened, true
	}
	return arr[0], true
}

// structName chooses the declared name for a nested struct. The field's own
// name is preferred; if it is already declared in this output the name is
// qualified with the parent, and only then suffixed with a number.
func (r *analysis) structName(parent, base string) string {
	name := base
	if r.config.Naming.QualifyNested && parent != "" {
		name = parent + base
	}
	if !r.declared.Taken(name) {
		r.declared.Reserve(name)
		return name
	}
	if parent != "" {
		qualified := parent + base
		if !r.declared.Taken(qualified) {
			r.declared.Reserve(qualified)
			return qualified
		}
	}
	return r.declared.Claim(name)
}

func (r *analysis) omitempty(t models.TypeInfo) bool {
	if t.IsPointer && r.config.JSONTags.OmitemptyForPointers {
		return true
	}
	return t.Kind == models.Slice && r.config.JSONTags.OmitemptyForSlices
}

// isOptional reports whether a field should become a pointer when
// optional-as-pointers is enabled: nested structs, and nulls whose type was
// fixed by a type mapping.
func isOptional(value models.JSONValue, t models.TypeInfo) bool {
	if t.Kind == models.Struct {
		return true
	}
	_, isNull := value.(models.JSONNull)
	return isNull && t.Name != ""
}

// shallowKind classifies a value without looking inside arrays or objects.
func shallowKind(value models.JSONValue) models.Kind {
	switch value.(type) {
	case models.JSONBool:
		return models.Bool
	case models.JSONInt:
		return models.Int
	case models.JSONFloat:
		return models.Float
	case models.JSONString:
		return models.String
	case models.JSONArray:
		return models.Slice
	case models.JSONObject:
		return models.Struct
	default:
		return models.Interface
	}
}

func wrapSlice(t models.TypeInfo, depth int) models.TypeInfo {
	for i := 0; i < depth; i++ {
		t = models.SliceOf(t)
	}
	return t
}
