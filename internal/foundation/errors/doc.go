// Package errors provides classified errors for sitekeeper.
//
// A ClassifiedError carries a category (config, filesystem, network, ...),
// a severity and a retry hint. The CLI adapter turns them into exit codes.
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "write page").
//		WithContext("file", path).
//		Build()
package errors
