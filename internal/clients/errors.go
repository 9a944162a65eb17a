package clients

import (
	"errors"
	"fmt"
)

// Kind sentinels for failures a peer service reports through its response
// envelope. Callers branch with errors.Is instead of matching status strings.
var (
	ErrInvalidData     = errors.New("invalid data")
	ErrNotEnoughSeats  = errors.New("not enough seats")
	ErrTrainNotFound   = errors.New("train not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrTicketNotSaved  = errors.New("ticket not saved")
	ErrFreeSeatsFailed = errors.New("free seats failed")
	ErrMailNotSent     = errors.New("mail not sent")
)

var kindByStatus = map[string]error{
	"INVALID_DATA":                   ErrInvalidData,
	"NOT_ENOUGH_SEATS":               ErrNotEnoughSeats,
	"TRAIN_NOT_FOUND":                ErrTrainNotFound,
	"TICKET_NOT_FOUND":               ErrTicketNotFound,
	"TICKET_NOT_SAVED_IN_COLLECTION": ErrTicketNotSaved,
	"FREE_THE_SEAT_OPERATION_FAILED": ErrFreeSeatsFailed,
	"MAIL_NOT_SENT":                  ErrMailNotSent,
}

// HTTPError is a failure envelope returned by a peer service.
type HTTPError struct {
	StatusCode     int
	ResponseStatus string
	Message        string
}

func (e *HTTPError) Error() string {
	if e.ResponseStatus != "" {
		return fmt.Sprintf("peer returned %d %s: %s", e.StatusCode, e.ResponseStatus, e.Message)
	}
	return fmt.Sprintf("peer returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the peer's responseStatus onto a kind sentinel so errors.Is
// works across the service boundary.
func (e *HTTPError) Unwrap() error {
	if kind, ok := kindByStatus[e.ResponseStatus]; ok {
		return kind
	}
	return nil
}
