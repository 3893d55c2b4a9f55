package errors

// Package errors provides sentinel errors for source document discovery.
// They are carried as causes of classified errors so callers can match them
// with errors.Is.

import "errors"

var (
	// ErrDocsPathNotFound indicates the configured source directory does not exist.
	ErrDocsPathNotFound = errors.New("source directory not found")

	// ErrDocsDirWalkFailed indicates filesystem traversal of the source directory failed.
	ErrDocsDirWalkFailed = errors.New("source directory walk failed")

	// ErrFileReadFailed indicates reading a discovered document failed.
	ErrFileReadFailed = errors.New("document read failed")

	// ErrInvalidRelativePath indicates calculating a path relative to the source directory failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")

	// ErrPathCollision indicates two documents map to the same output file.
	ErrPathCollision = errors.New("path collision detected")
)
