package generator

import (
	"bytes"
	"fmt"
	"go/token"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mcncl/jsonstruct/internal/config"
	"github.com/mcncl/jsonstruct/internal/errors"
	"github.com/mcncl/jsonstruct/internal/models"
)

// Generator renders analysis results as Go declarations
type Generator struct {
	config *config.Config
}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{config: config.NewConfig()}
}

// NewGeneratorWithConfig creates a Generator that honours cfg's type options.
func NewGeneratorWithConfig(cfg *config.Config) *Generator {
	return &Generator{config: cfg}
}

// GenerateStructs renders a complete Go file: package clause, imports and
// declarations.
func (g *Generator) GenerateStructs(result models.AnalysisResult, packageName string) (string, error) {
	if !token.IsIdentifier(packageName) {
		return "", errors.NewGenerateError(fmt.Sprintf("invalid package name '%s'", packageName), nil)
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("package %s\n", packageName))

	if len(result.Imports) > 0 {
		buf.WriteString("\nimport (\n")

		imports := make([]string, 0, len(result.Imports))
		for imp := range result.Imports {
			imports = append(imports, imp)
		}
		sort.Strings(imports)

		// Standard library imports have no dot in the first path element.
		stdLibImports := make([]string, 0)
		thirdPartyImports := make([]string, 0)
		for _, imp := range imports {
			if !strings.Contains(strings.SplitN(imp, "/", 2)[0], ".") {
				stdLibImports = append(stdLibImports, imp)
			} else {
				thirdPartyImports = append(thirdPartyImports, imp)
			}
		}

		for _, imp := range stdLibImports {
			buf.WriteString(fmt.Sprintf("\t%q\n", imp))
		}
		if len(stdLibImports) > 0 && len(thirdPartyImports) > 0 {
			buf.WriteString("\n")
		}
		for _, imp := range thirdPartyImports {
			buf.WriteString(fmt.Sprintf("\t%q\n", imp))
		}

		buf.WriteString(")\n")
	}

	buf.WriteString("\n")
	buf.WriteString(g.Declarations(result))
	return buf.String(), nil
}

// Declarations renders only the type declarations, one block per struct,
// separated by blank lines. A root that is not an object is declared first
// as a named type.
func (g *Generator) Declarations(result models.AnalysisResult) string {
	var buf bytes.Buffer

	if result.Root.Kind != models.Struct {
		buf.WriteString(fmt.Sprintf("type %s %s\n", result.RootName, g.TypeString(result.Root)))
	}

	for _, def := range result.Structs {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		g.writeStruct(&buf, def)
	}

	return buf.String()
}

func (g *Generator) writeStruct(buf *bytes.Buffer, def models.StructDef) {
	buf.WriteString(fmt.Sprintf("type %s struct {\n", def.Name))

	types := make([]string, len(def.Fields))
	maxNameWidth := 0
	maxTypeWidth := 0
	for i, field := range def.Fields {
		types[i] = g.TypeString(field.GoType)
		if w := utf8.RuneCountInString(field.GoName); w > maxNameWidth {
			maxNameWidth = w
		}
		if w := utf8.RuneCountInString(types[i]); w > maxTypeWidth {
			maxTypeWidth = w
		}
	}

	for i, field := range def.Fields {
		buf.WriteString("\t")
		buf.WriteString(pad(field.GoName, maxNameWidth))
		buf.WriteString(" ")
		buf.WriteString(pad(types[i], maxTypeWidth))
		buf.WriteString(" ")
		buf.WriteString(jsonTag(field))
		buf.WriteString("\n")
	}

	buf.WriteString("}\n")
}

// TypeString converts a TypeInfo to the Go type expression used in output.
func (g *Generator) TypeString(t models.TypeInfo) string {
	inner, depth := t.Innermost()

	var typeStr string
	switch {
	case inner.Name != "":
		typeStr = inner.Name
	case inner.Kind == models.Struct:
		typeStr = inner.StructName
	case inner.Kind == models.String:
		typeStr = "string"
	case inner.Kind == models.Int:
		typeStr = "int"
		if g.config.Types.ForceInt64 {
			typeStr = "int64"
		}
	case inner.Kind == models.Float:
		typeStr = "float64"
	case inner.Kind == models.Bool:
		typeStr = "bool"
	default:
		typeStr = "interface{}"
	}

	if inner.IsPointer {
		typeStr = "*" + typeStr
	}
	typeStr = strings.Repeat("[]", depth) + typeStr
	if t.IsPointer && depth > 0 {
		typeStr = "*" + typeStr
	}
	return typeStr
}

// jsonTag renders the struct tag preserving the original JSON key. Keys that
// contain a backquote cannot sit in a raw string, so the tag is quoted.
// A key of "-" needs a trailing comma or encoding/json skips the field.
func jsonTag(field models.FieldInfo) string {
	name := field.JSONKey
	switch {
	case field.Skip:
		name = "-"
	case field.Omitempty:
		name += ",omitempty"
	case name == "-":
		name += ","
	}
	content := "json:" + strconv.Quote(name)
	if strings.ContainsRune(content, '`') {
		return strconv.Quote(content)
	}
	return "`" + content + "`"
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
