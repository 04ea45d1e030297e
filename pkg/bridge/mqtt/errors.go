package mqtt

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates the broker didn't respond in time.
	ErrTimeout = errors.New("mqtt timeout")
	// ErrUnexpectedMessage indicates a command payload of the wrong type.
	ErrUnexpectedMessage = errors.New("unexpected message")
)

// TopicError reports a malformed object topic.
type TopicError struct {
	Topic string
}

// Error implements error.
func (e *TopicError) Error() string {
	return fmt.Sprintf("invalid object topic %q", e.Topic)
}
