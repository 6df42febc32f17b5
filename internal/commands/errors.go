package commands

import "errors"

// Domain errors for the commands package.
var (
	// ErrUnknownCommand is returned by Dispatch for a name it does not handle.
	ErrUnknownCommand = errors.New("commands: unknown command")

	// ErrInvalidPayload is returned by Dispatch when the JSON arguments
	// cannot be decoded or a required argument is missing.
	ErrInvalidPayload = errors.New("commands: invalid payload")
)
