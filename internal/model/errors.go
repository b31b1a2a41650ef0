package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the lifecycle components.
var (
	ErrInvalidConfiguration = errors.New("configuration is not valid")
	ErrLoadFailure          = errors.New("failed to load minimalist ui")
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrUnknownLanguage      = errors.New("unknown language")
)

// FilesystemError is returned when copying or writing an asset fails.
type FilesystemError struct {
	Op   string // mkdir, copy, remove, read
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
