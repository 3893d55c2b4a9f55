// Package errors provides the classified error primitives used across sitebake.
//
// Every failure the pipeline can raise is a ClassifiedError carrying a category,
// a severity and structured context (usually the offending path), so that the CLI
// can pick an exit code and the logs can name the file that broke the run.
//
// Key features:
//   - ErrorCategory: config, not_found, parse, render, template, filesystem, ...
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: kept for completeness; the build never retries
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing messages
//
// Example usage:
//
//	err := errors.NotFoundError("document not found").
//		WithContext("path", docPath).
//		WithCause(statErr).
//		Build()
package errors
