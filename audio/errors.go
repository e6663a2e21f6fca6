package audio

import "errors"

var (
	// ErrClosed is returned by operations on a closed Context.
	ErrClosed = errors.New("audio: context closed")
	// ErrNotStarted is returned when rendering before Begin.
	ErrNotStarted = errors.New("audio: context not started")
	// ErrDisposed is returned when connecting or reading a disposed node.
	ErrDisposed = errors.New("audio: node disposed")
	// ErrForeignNode is returned when connecting nodes of different contexts.
	ErrForeignNode = errors.New("audio: node belongs to another context")
)
