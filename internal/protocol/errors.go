package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMessageType is matched by every *UnknownTypeError.
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
	// ErrMalformedMessage covers invalid JSON and missing or invalid fields.
	ErrMalformedMessage = errors.New("protocol: malformed message")
)

// UnknownTypeError reports a message whose type discriminator is not
// recognized.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("protocol: unknown message type %q", e.Type)
}

// Is makes errors.Is(err, ErrUnknownMessageType) hold.
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownMessageType
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformedMessage}, args...)...)
}
