package app

import "errors"

var (
	// ErrGeneration wraps story service failures. The session keeps its
	// previous content.
	ErrGeneration = errors.New("dream generation failed")
	ErrNoDream    = errors.New("no dream to save")
)
