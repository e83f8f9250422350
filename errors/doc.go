// Package errors provides structured error types for the occlusion module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes a field path and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseHost, errors.KindInvalidInput).
//		Path("target").
//		Detail("buffer lengths differ").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.StaleHandle(errors.PhaseHost, handle.Gen, gen)
//	err := errors.OutOfBounds(errors.PhaseGuest, off, length, size)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
