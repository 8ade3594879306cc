package memory

import "errors"

var ErrIteratorExhausted = errors.New("iterator exhausted")
