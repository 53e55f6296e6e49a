// Package errors provides the classified error primitives used across docgen.
//
// Every error that crosses a component boundary is a ClassifiedError carrying a
// broad category, a severity, a stable machine-readable code and optional context.
// Configuration problems are detected before any generation work starts and use
// CategoryConfig; failures during parsing, analysis or rendering use
// CategoryGeneration (or CategoryFileSystem when the output cannot be written).
//
// Example usage:
//
//	err := errors.ConfigError("unknown classpath source").
//		WithCode(errors.CodeUnknownClasspathSource).
//		WithContext("source", name).
//		Build()
package errors
