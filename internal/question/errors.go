package question

import "errors"

// ErrNotFound is returned when no question exists for an id
var ErrNotFound = errors.New("question not found")
