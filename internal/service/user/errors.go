package user

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotSaved      = errors.New("failed to save user")
	ErrEmailNotValid     = errors.New("email is not valid")
	ErrPasswordIncorrect = errors.New("password is incorrect")
	ErrInvalidData       = errors.New("invalid input data")

	ErrTrainNotFound  = errors.New("train not found")
	ErrNotEnoughSeats = errors.New("not enough seats available")
	ErrTicketNotFound = errors.New("ticket not found")

	ErrTicketNotCreated = errors.New("failed to create ticket")
	ErrTicketNotBooked  = errors.New("failed to book ticket")
	ErrFreeSeatsFailed  = errors.New("freeing the seats failed")
)
