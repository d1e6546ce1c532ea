package model

import "errors"

// ErrEventSkipped marks a single event that could not be used. It is
// recoverable: the event is dropped and processing continues.
var ErrEventSkipped = errors.New("event skipped")
