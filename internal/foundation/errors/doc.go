// Package errors provides the classified error primitives used across sitegen.
//
// Every failure the build can surface is a ClassifiedError carrying a category
// (the build's error taxonomy), a severity, a retry hint and structured context
// such as the offending source path. Errors are created through the fluent
// ErrorBuilder:
//
//	err := errors.LayoutNotFound("layout not found").
//		WithContext("layout", name).
//		WithContext("path", doc.SourcePath).
//		Build()
//
// Key features:
//   - ErrorCategory: taxonomy (config, document_parse, layout_not_found, layout_cycle,
//     output_collision, io, internal, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity and context
//   - CLIErrorAdapter: exit code mapping and user-facing formatting
package errors
