package core

import (
	"errors"
)

var (
	ErrNotInitialized = errors.New("subsystem used before initialization")
)
