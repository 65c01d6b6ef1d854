package formtoken

import "errors"

var (
	ErrEmptySecret  = errors.New("form token secret is empty")
	ErrEmptyFormID  = errors.New("form id is empty")
	ErrInvalidToken = errors.New("invalid form token")
	ErrTokenReused  = errors.New("form token already used")
)
