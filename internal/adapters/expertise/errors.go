package expertise

import "errors"

// Sentinel kinds for expertise store errors.
var (
	ErrInvalidScore = errors.New("cached score out of range")
)
