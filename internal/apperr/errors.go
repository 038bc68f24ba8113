// Package apperr holds the error taxonomy shared by the export pipeline.
//
// Every typed error matches one of the sentinels below through errors.Is, so
// callers can branch on the category without caring about the payload.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrStoreLoad           = errors.New("store load failed")
	ErrDanglingLink        = errors.New("dangling link")
	ErrFileIO              = errors.New("file i/o failed")
	ErrConverterInvocation = errors.New("converter could not be started")
	ErrConverterFailed     = errors.New("converter failed")
)

// StoreLoadError reports that the org-roam database could not be opened or queried.
type StoreLoadError struct {
	Path string
	Op   string // "open", "query", "scan"
	Err  error
}

func (e *StoreLoadError) Error() string {
	return fmt.Sprintf("%s org-roam database %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreLoadError) Unwrap() error { return e.Err }

func (e *StoreLoadError) Is(target error) bool { return target == ErrStoreLoad }

// LinkResolutionError names an id link whose target is not in the node index.
type LinkResolutionError struct {
	ID         string
	SourceFile string
}

func (e *LinkResolutionError) Error() string {
	return fmt.Sprintf("link to unknown node id %q in %s", e.ID, e.SourceFile)
}

func (e *LinkResolutionError) Is(target error) bool { return target == ErrDanglingLink }

// FileIOError is a read or write failure on a note backing file.
type FileIOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileIOError) Unwrap() error { return e.Err }

func (e *FileIOError) Is(target error) bool { return target == ErrFileIO }

// ConverterInvocationError means the converter process never ran.
type ConverterInvocationError struct {
	NodeID string
	Title  string
	Err    error
}

func (e *ConverterInvocationError) Error() string {
	return fmt.Sprintf("starting converter for %q (%s): %v", e.Title, e.NodeID, e.Err)
}

func (e *ConverterInvocationError) Unwrap() error { return e.Err }

func (e *ConverterInvocationError) Is(target error) bool { return target == ErrConverterInvocation }

// ConverterFailureError means the converter ran and exited unsuccessfully.
// Stderr holds the captured diagnostic output.
type ConverterFailureError struct {
	NodeID   string
	Title    string
	ExitCode int
	Stderr   string
}

func (e *ConverterFailureError) Error() string {
	return fmt.Sprintf("failed to export %q (%s): converter exited with status %d", e.Title, e.NodeID, e.ExitCode)
}

func (e *ConverterFailureError) Is(target error) bool { return target == ErrConverterFailed }
