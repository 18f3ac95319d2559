package storage

import (
	"errors"

	"github.com/cartridge/replay/internal/spec"
)

var (
	// ErrConfig indicates invalid construction or sampling parameters.
	ErrConfig = errors.New("invalid configuration")
	// ErrSpecMismatch indicates an AddBatch payload that does not match the
	// data spec plus the batch axis.
	ErrSpecMismatch = spec.ErrSpecMismatch
	// ErrEmptyBuffer indicates too little history for the requested draw.
	ErrEmptyBuffer = errors.New("buffer is empty")
	// ErrOutOfRange indicates a direct request outside a row's valid window.
	ErrOutOfRange = errors.New("out of range")
	// ErrClosed indicates use of a closed backend.
	ErrClosed = errors.New("backend closed")
)
