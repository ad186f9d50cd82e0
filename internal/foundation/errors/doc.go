// Package errors provides the classified error type used across stmdocs.
//
// Errors carry a category (config, validation, filesystem, build, internal),
// a severity and a small context map. The CLI maps categories to exit codes
// through CLIErrorAdapter.
//
// Example usage:
//
//	err := errors.FileSystemError("copy figure failed").
//		WithContext("path", src).
//		WithCause(ioErr).
//		Build()
package errors
