package service

import "errors"

var (
	ErrInvalidAmount       = errors.New("amount must be positive and within the allowed limit")
	ErrInvalidCurrency     = errors.New("currency must be a 3-letter uppercase code")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserExists          = errors.New("user id or email already registered")
	ErrInvalidCredentials  = errors.New("invalid user id or password")
)
