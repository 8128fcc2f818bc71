package model

import (
	"errors"
)

var (
	ErrConfig   = errors.New("invalid config")
	ErrDuration = errors.New("invalid duration")
)
