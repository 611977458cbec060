package store

import "errors"

var (
	// Construction errors.
	ErrNilReducer = errors.New("store: nil reducer")
	ErrNilEffect  = errors.New("store: nil effect")

	// Lifecycle errors.
	ErrClosed = errors.New("store: closed")
)
