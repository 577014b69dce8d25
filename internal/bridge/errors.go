package bridge

import "errors"

var (
	// ErrUnknownCommandKind indicates a command topic with an unrecognized
	// final segment.
	ErrUnknownCommandKind = errors.New("bridge: unknown command kind")

	// ErrInvalidPayload indicates a command payload that failed to parse.
	ErrInvalidPayload = errors.New("bridge: invalid command payload")
)
