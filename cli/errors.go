package cli

import "errors"

// ErrUsage matches every command line usage error.
var ErrUsage = errors.New("cli usage error")

// ErrUnknownDocument is returned when a named document does not exist.
var ErrUnknownDocument = errors.New("unknown document")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}
