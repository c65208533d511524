// Package emit is the single entry point that turns a parsed JSON value into
// Go declaration text. It performs no I/O and never fails: every JSON value
// maps to some Go type, with interface{} as the fallback.
//
// Output is deterministic. Object keys keep their document order and struct
// blocks appear parent first, depth-first, so the same input always yields
// the same bytes.
package emit

import (
	"github.com/mcncl/jsonstruct/internal/analyzer"
	"github.com/mcncl/jsonstruct/internal/config"
	"github.com/mcncl/jsonstruct/internal/generator"
	"github.com/mcncl/jsonstruct/internal/models"
)

// Emitter couples an analyzer and a generator sharing one configuration.
// It is safe for concurrent use as long as the configuration is not mutated.
type Emitter struct {
	analyzer  *analyzer.Analyzer
	generator *generator.Generator
}

// New creates an Emitter. A nil cfg means defaults.
func New(cfg *config.Config) *Emitter {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Emitter{
		analyzer:  analyzer.NewAnalyzerWithConfig(cfg),
		generator: generator.NewGeneratorWithConfig(cfg),
	}
}

// Emit returns the declarations describing value, naming the top-level type
// rootName.
func (e *Emitter) Emit(value models.JSONValue, rootName string) string {
	return e.generator.Declarations(e.Analyze(value, rootName))
}

// Analyze exposes the inferred structure without rendering it.
func (e *Emitter) Analyze(value models.JSONValue, rootName string) models.AnalysisResult {
	return e.analyzer.Analyze(value, rootName)
}

// File renders value as a complete Go source file in package packageName.
func (e *Emitter) File(value models.JSONValue, rootName, packageName string) (string, error) {
	return e.generator.GenerateStructs(e.Analyze(value, rootName), packageName)
}

var defaultEmitter = New(nil)

// Emit converts value using the default configuration.
func Emit(value models.JSONValue, rootName string) string {
	return defaultEmitter.Emit(value, rootName)
}
