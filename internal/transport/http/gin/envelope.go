package httpgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/railgo/railgo/internal/resilience"
	"github.com/railgo/railgo/internal/service/mail"
	"github.com/railgo/railgo/internal/service/ticket"
	"github.com/railgo/railgo/internal/service/train"
	"github.com/railgo/railgo/internal/service/user"
)

// Envelope is the response wrapper every endpoint returns, success or not.
// ResponseStatus names the failure kind; it is absent on success.
type Envelope struct {
	Status         bool   `json:"status"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Message        string `json:"message"`
	Data           any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

type kindSpec struct {
	kind     error
	httpCode int
	status   string
	message  string
}

// Kinds from every service, so each binary's router shares one mapping.
// Order matters where kinds alias across services.
var kindSpecs = []kindSpec{
	{resilience.ErrServiceUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable"},

	{train.ErrNotEnoughSeats, http.StatusInternalServerError, "NOT_ENOUGH_SEATS", "Not enough seats available"},
	{train.ErrTrainNotFound, http.StatusNotFound, "TRAIN_NOT_FOUND", "Train not found"},
	{train.ErrTrainAlreadyExists, http.StatusConflict, "TRAIN_ALREADY_EXISTS", "Train already exists"},
	{train.ErrTrainSaveFailed, http.StatusInternalServerError, "TRAIN_NOT_SAVED_IN_COLLECTION", "Failed to save train in collection"},
	{train.ErrTrainUpdateFailed, http.StatusInternalServerError, "TRAIN_UPDATING_FAILED", "Train update failed"},
	{train.ErrFreeSeatsFailed, http.StatusInternalServerError, "FREE_THE_SEAT_OPERATION_FAILED", "Freeing the seats failed"},
	{train.ErrInvalidData, http.StatusBadRequest, "INVALID_DATA", "Invalid input data"},

	{ticket.ErrTicketNotFound, http.StatusNotFound, "TICKET_NOT_FOUND", "Ticket not found"},
	{ticket.ErrTicketNotSaved, http.StatusInternalServerError, "TICKET_NOT_SAVED_IN_COLLECTION", "Failed to save ticket in collection"},
	{ticket.ErrInvalidData, http.StatusBadRequest, "INVALID_DATA", "Invalid input data"},

	{user.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found"},
	{user.ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS", "User already exists"},
	{user.ErrUserNotSaved, http.StatusInternalServerError, "USER_NOT_SAVED_IN_COLLECTION", "Failed to save user in collection"},
	{user.ErrEmailNotValid, http.StatusBadRequest, "EMAIL_NOT_VALID", "Email is not valid"},
	{user.ErrPasswordIncorrect, http.StatusUnauthorized, "PASSWORD_INCORRECT", "Password is incorrect"},
	{user.ErrTicketNotCreated, http.StatusInternalServerError, "TICKET_NOT_CREATED", "Failed to create ticket"},
	{user.ErrTicketNotBooked, http.StatusInternalServerError, "TICKET_NOT_BOOKED", "Failed to book ticket"},
	{user.ErrFreeSeatsFailed, http.StatusInternalServerError, "FREE_THE_SEAT_OPERATION_FAILED", "Freeing the seats failed"},
	{user.ErrNotEnoughSeats, http.StatusInternalServerError, "NOT_ENOUGH_SEATS", "Not enough seats available"},
	{user.ErrTrainNotFound, http.StatusNotFound, "TRAIN_NOT_FOUND", "Train not found"},
	{user.ErrTicketNotFound, http.StatusNotFound, "TICKET_NOT_FOUND", "Ticket not found"},
	{user.ErrInvalidData, http.StatusBadRequest, "INVALID_DATA", "Invalid input data"},

	{mail.ErrMailNotSent, http.StatusInternalServerError, "MAIL_NOT_SENT", "Error while sending mail"},
}

// respondErr turns a service error into the failure envelope, deriving the
// HTTP status from the kind.
func respondErr(c *gin.Context, err error) {
	for _, spec := range kindSpecs {
		if errors.Is(err, spec.kind) {
			c.JSON(spec.httpCode, Envelope{
				Status:         false,
				ResponseStatus: spec.status,
				Message:        spec.message,
			})
			return
		}
	}

	c.JSON(http.StatusInternalServerError, Envelope{
		Status:  false,
		Message: "internal error",
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Envelope{
		Status:         false,
		ResponseStatus: "INVALID_DATA",
		Message:        msg,
	})
}
