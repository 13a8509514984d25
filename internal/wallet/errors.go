package wallet

import "errors"

var (
	// ErrNotFound occurs when the referenced wallet does not exist.
	ErrNotFound = errors.New("wallet not found")

	// ErrInsufficientFunds occurs when a debit would take the balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
