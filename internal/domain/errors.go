package domain

import "errors"

var (
	ErrMalformedStorage = errors.New("malformed cart storage")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrIndexOutOfRange  = errors.New("cart index out of range")
)
