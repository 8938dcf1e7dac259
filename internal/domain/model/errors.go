package model

import "errors"

var (
	// ErrInvalidArgument reports loan terms or payment values outside the
	// calculator's contract (non-positive principal or term, negative rate,
	// non-finite input, non-positive payment).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrLoanNotFound is returned by repositories when no loan matches.
	ErrLoanNotFound = errors.New("loan not found")
)
