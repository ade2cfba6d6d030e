// Package trace hands out the tracers of the module. Packages working on formula text (lexer, grammar,
// parser) trace to the syntax tracer, everything that computes values traces to the core tracer.
//
// Both tracers are the globals of package gtrace, so whoever runs the module decides where traces go. While
// a global is unset, traces go to a Go log adapter that reports errors only.
package trace

import (
	"sync"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
)

var (
	once          sync.Once
	defaultSyntax tracing.Trace
	defaultCore   tracing.Trace
)

func defaults() {
	once.Do(func() {
		defaultSyntax = gologadapter.New()
		defaultSyntax.SetTraceLevel(tracing.LevelError)
		defaultCore = gologadapter.New()
		defaultCore.SetTraceLevel(tracing.LevelError)
	})
}

// Syntax returns the syntax tracer.
func Syntax() tracing.Trace {
	if t := gtrace.SyntaxTracer; t != nil {
		return t
	}
	defaults()
	return defaultSyntax
}

// Core returns the core tracer.
func Core() tracing.Trace {
	if t := gtrace.CoreTracer; t != nil {
		return t
	}
	defaults()
	return defaultCore
}

// Init installs Go log adapters as the global tracers with the given level.
func Init(l tracing.TraceLevel) {
	gtrace.SyntaxTracer = gologadapter.New()
	gtrace.SyntaxTracer.SetTraceLevel(l)
	gtrace.CoreTracer = gologadapter.New()
	gtrace.CoreTracer.SetTraceLevel(l)
}
