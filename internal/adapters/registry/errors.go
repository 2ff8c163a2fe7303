package registry

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrEmptyID          = errors.New("empty identifier")
	ErrDuplicateAccount = errors.New("account already registered")
	ErrDuplicateTopic   = errors.New("topic already registered")
	ErrUnknownTopic     = errors.New("unknown topic")
	ErrUnknownParent    = errors.New("unknown parent topic")
)
