package domain

import "errors"

var (
	// Mutation errors
	ErrNotWriter     = errors.New("device is not in writer role")
	ErrEntryNotFound = errors.New("entry not found")
	ErrUnknownField  = errors.New("unknown entry field")
)
