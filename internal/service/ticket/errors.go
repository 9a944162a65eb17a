package ticket

import "errors"

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketNotSaved = errors.New("failed to save ticket")
	ErrInvalidData    = errors.New("invalid input data")
)
