package train

import "errors"

var (
	ErrNotEnoughSeats     = errors.New("not enough seats available")
	ErrTrainNotFound      = errors.New("train not found")
	ErrTrainAlreadyExists = errors.New("train already exists")
	ErrTrainSaveFailed    = errors.New("failed to save train")
	ErrTrainUpdateFailed  = errors.New("failed to update train")
	ErrFreeSeatsFailed    = errors.New("freeing the seats failed")
	ErrInvalidData        = errors.New("invalid input data")
)
