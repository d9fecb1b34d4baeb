// Package errors classifies every failure doxidize reports.
//
// A ClassifiedError carries a category, which decides the exit code of the
// CLI, a severity, a retry hint and free-form context such as the captured
// stderr of cargo or the location that was found missing. Errors are built
// with the fluent ErrorBuilder:
//
//	err := errors.ExternalToolError("cargo metadata failed").
//		WithContext(errors.KeyStderr, stderr).
//		Build()
//
// errors.Is and errors.As see through a ClassifiedError to its cause.
package errors
