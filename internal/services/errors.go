package services

import "errors"

var (
	ErrNotFound = errors.New("resource not found")
	// ErrConflict signals a processing or generation run already active on
	// the target. Handlers map it to 409.
	ErrConflict = errors.New("operation already in progress")
)
