// Package user implements accounts and the booking orchestrator: signup and
// login, plus the book/cancel/reschedule protocols composed over the train
// engine, the ticket registry, and the mail sink. The orchestrator is the
// only component that mutates tickets, so compensation lives here.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/railgo/railgo/internal/clients"
	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/keylock"
	"github.com/railgo/railgo/internal/repository"
)

// Protocol deadlines. A child call that would outlive the deadline is
// aborted and compensated as if it had failed.
const (
	bookDeadline       = 30 * time.Second
	cancelDeadline     = 15 * time.Second
	rescheduleDeadline = 30 * time.Second
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// TrainAPI is the slice of the train engine the orchestrator calls.
type TrainAPI interface {
	Book(ctx context.Context, req clients.BookSeatsRequest) (*domain.BookingQuote, error)
	BookSeats(ctx context.Context, trainPrn, travelDate string, count int) ([]domain.Seat, error)
	FreeBookedSeats(ctx context.Context, trainPrn string, seats []domain.Seat, travelDate string) error
	CanBeBooked(ctx context.Context, trainPrn, source, destination, travelDate string) error
	ArrivalAt(ctx context.Context, trainPrn, station, travelDate string) (*domain.LocalDateTime, error)
}

// TicketAPI is the slice of the ticket registry the orchestrator calls.
type TicketAPI interface {
	Create(ctx context.Context, req domain.TicketRequest) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Ticket, error)
	FetchAll(ctx context.Context, ids []string) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	Reschedule(ctx context.Context, id, updatedTravelDate string, upd *clients.RescheduleUpdate) error
}

// MailAPI is the notification sink.
type MailAPI interface {
	Send(ctx context.Context, email string, ticket domain.Ticket) error
}

// Store is the slice of the document store holding user accounts.
type Store interface {
	Insert(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

type Service struct {
	store   Store
	trains  TrainAPI
	tickets TicketAPI
	mailer  MailAPI
	locks   *keylock.KeyedMutex
	log     *slog.Logger
}

func New(store Store, trains TrainAPI, tickets TicketAPI, mailer MailAPI, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		trains:  trains,
		tickets: tickets,
		mailer:  mailer,
		locks:   keylock.New(),
		log:     log,
	}
}

// Signup registers a new account. The email is case-folded before the
// uniqueness check; the password is stored as a bcrypt hash.
//
// Returns:
//   - *domain.User: the created account, hash included (callers strip it).
//   - error: user.ErrEmailNotValid, user.ErrInvalidData on an empty
//     password, user.ErrUserAlreadyExists.
func (s *Service) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	const op = "service.user.Signup"

	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%s:%w", op, ErrEmailNotValid)
	}
	if password == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidData)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	u := &domain.User{
		UserID:           uuid.NewString(),
		UserEmail:        email,
		HashedPassword:   string(hash),
		TicketsBookedIds: []string{},
	}

	if err := s.store.Insert(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserAlreadyExists)
		}

		return nil, fmt.Errorf("%s:%w:%w", op, ErrUserNotSaved, err)
	}

	return u, nil
}

// Login verifies the credentials and returns the account together with its
// resolved tickets.
//
// Returns:
//   - error: user.ErrUserNotFound, user.ErrPasswordIncorrect.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.UserWithTickets, error) {
	const op = "service.user.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrPasswordIncorrect)
	}

	tickets, err := s.tickets.FetchAll(ctx, u.TicketsBookedIds)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &domain.UserWithTickets{
		UserID:     u.UserID,
		UserEmail:  u.UserEmail,
		TicketList: tickets,
	}, nil
}

// BookTicketRequest identifies the caller and the journey to book. Identity
// is request-scoped; the orchestrator holds no session state.
type BookTicketRequest struct {
	UserID       string
	TrainPrn     string
	Source       string
	Destination  string
	DateOfTravel string
	Count        int
}

// BookingResult is the success shape of the booking protocol. A failed
// notification leaves the ticket valid and is reported in Warning.
type BookingResult struct {
	TicketID string `json:"ticketId"`
	MailSent bool   `json:"mailSent"`
	Warning  string `json:"warning,omitempty"`
}

// Book runs the booking protocol: validate, allocate seats on the train,
// persist the ticket, notify, record ownership. If ticket creation fails
// after seats were allocated, the seats are freed again before the error
// surfaces; if recording ownership fails, the ticket is deleted and the
// seats freed.
//
// Returns:
//   - error: user.ErrInvalidData, user.ErrUserNotFound,
//     user.ErrTrainNotFound, user.ErrNotEnoughSeats,
//     user.ErrTicketNotCreated, user.ErrTicketNotBooked.
func (s *Service) Book(ctx context.Context, req BookTicketRequest) (*BookingResult, error) {
	const op = "service.user.Book"

	ctx, cancel := context.WithTimeout(ctx, bookDeadline)
	defer cancel()

	if req.Count <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidData)
	}
	if err := validateFutureDate(req.DateOfTravel); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	u, err := s.store.Get(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	unlock := s.locks.Lock(u.UserID)
	defer unlock()

	quote, err := s.trains.Book(ctx, clients.BookSeatsRequest{
		UserID:                  u.UserID,
		TrainPrn:                req.TrainPrn,
		UserEmail:               u.UserEmail,
		Source:                  req.Source,
		Destination:             req.Destination,
		TravelDate:              req.DateOfTravel,
		NumberOfSeatsToBeBooked: req.Count,
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapTrainErr(err))
	}

	ticketReq := domain.TicketRequest{
		TrainID:                   req.TrainPrn,
		UserID:                    u.UserID,
		Email:                     u.UserEmail,
		Source:                    req.Source,
		Destination:               req.Destination,
		DateOfTravel:              req.DateOfTravel,
		BookedSeatsIndex:          quote.BookedSeatsIndex,
		ArrivalTimeAtSource:       quote.ArrivalTimeAtSource,
		ReachingTimeAtDestination: quote.ReachingTimeAtDestination,
	}

	ticketID, err := s.tickets.Create(ctx, ticketReq)
	if err != nil {
		s.freeSeats(ctx, req.TrainPrn, quote.BookedSeatsIndex, req.DateOfTravel)
		return nil, fmt.Errorf("%s:%w:%w", op, ErrTicketNotCreated, err)
	}

	ticket := domain.Ticket{
		TicketID:                  ticketID,
		UserID:                    u.UserID,
		TrainID:                   req.TrainPrn,
		DateOfTravel:              req.DateOfTravel,
		Source:                    req.Source,
		ArrivalTimeAtSource:       quote.ArrivalTimeAtSource,
		Destination:               req.Destination,
		ReachingTimeAtDestination: quote.ReachingTimeAtDestination,
		BookedSeatsIndex:          quote.BookedSeatsIndex,
	}

	result := &BookingResult{TicketID: ticketID, MailSent: true}
	if err := s.mailer.Send(ctx, u.UserEmail, ticket); err != nil {
		result.MailSent = false
		result.Warning = "booking confirmed, notification email failed"
		s.log.Warn("booking notification failed",
			"ticket_id", ticketID, "user_id", u.UserID, "error", err)
	}

	u.TicketsBookedIds = append(u.TicketsBookedIds, ticketID)
	if err := s.store.Update(ctx, u); err != nil {
		bg := context.WithoutCancel(ctx)
		if delErr := s.tickets.Delete(bg, ticketID); delErr != nil {
			s.log.Error("compensation: ticket delete failed",
				"ticket_id", ticketID, "error", delErr)
		}
		s.freeSeats(ctx, req.TrainPrn, quote.BookedSeatsIndex, req.DateOfTravel)
		return nil, fmt.Errorf("%s:%w:%w", op, ErrTicketNotBooked, err)
	}

	return result, nil
}

// Cancel runs the cancellation protocol. Seats are freed before the ticket
// is deleted; if freeing keeps failing the ticket stays, so a ticket always
// corresponds to booked seats.
//
// Returns:
//   - error: user.ErrUserNotFound, user.ErrTicketNotFound,
//     user.ErrFreeSeatsFailed.
func (s *Service) Cancel(ctx context.Context, userID, ticketID string) error {
	const op = "service.user.Cancel"

	ctx, cancel := context.WithTimeout(ctx, cancelDeadline)
	defer cancel()

	u, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	unlock := s.locks.Lock(u.UserID)
	defer unlock()

	t, err := s.ownedTicket(ctx, u, ticketID)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.trains.FreeBookedSeats(ctx, t.TrainID, t.BookedSeatsIndex, t.DateOfTravel); err != nil {
		return fmt.Errorf("%s:%w:%w", op, ErrFreeSeatsFailed, err)
	}

	if err := s.tickets.Delete(ctx, t.TicketID); err != nil {
		if !errors.Is(err, clients.ErrTicketNotFound) {
			return fmt.Errorf("%s:%w", op, err)
		}
	}

	u.TicketsBookedIds = removeID(u.TicketsBookedIds, t.TicketID)
	if err := s.store.Update(ctx, u); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Reschedule runs the reschedule protocol: validate the route on the new
// date, free the current seats, allocate the same count on the new date,
// and persist the moved ticket. When the new-date allocation fails the
// original date is re-allocated best effort; the ticket may end up on
// different cells of the old date.
//
// Returns:
//   - *domain.Ticket: the moved ticket.
//   - error: user.ErrInvalidData, user.ErrTicketNotFound,
//     user.ErrNotEnoughSeats, user.ErrFreeSeatsFailed.
func (s *Service) Reschedule(ctx context.Context, userID, ticketID, updatedDate string) (*domain.Ticket, error) {
	const op = "service.user.Reschedule"

	ctx, cancel := context.WithTimeout(ctx, rescheduleDeadline)
	defer cancel()

	if err := validateFutureDate(updatedDate); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	u, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	unlock := s.locks.Lock(u.UserID)
	defer unlock()

	t, err := s.ownedTicket(ctx, u, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := s.trains.CanBeBooked(ctx, t.TrainID, t.Source, t.Destination, updatedDate); err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapTrainErr(err))
	}

	if err := s.trains.FreeBookedSeats(ctx, t.TrainID, t.BookedSeatsIndex, t.DateOfTravel); err != nil {
		return nil, fmt.Errorf("%s:%w:%w", op, ErrFreeSeatsFailed, err)
	}

	count := len(t.BookedSeatsIndex)

	newSeats, err := s.trains.BookSeats(ctx, t.TrainID, updatedDate, count)
	if err != nil {
		s.reacquireOldDate(ctx, t, count)
		return nil, fmt.Errorf("%s:%w", op, mapTrainErr(err))
	}

	atSource, err := s.trains.ArrivalAt(ctx, t.TrainID, t.Source, updatedDate)
	if err != nil {
		s.log.Warn("arrival lookup failed after reschedule allocation",
			"ticket_id", t.TicketID, "error", err)
	}
	atDestination, err := s.trains.ArrivalAt(ctx, t.TrainID, t.Destination, updatedDate)
	if err != nil {
		s.log.Warn("arrival lookup failed after reschedule allocation",
			"ticket_id", t.TicketID, "error", err)
	}

	err = s.tickets.Reschedule(ctx, t.TicketID, updatedDate, &clients.RescheduleUpdate{
		BookedSeatsIndex:          newSeats,
		ArrivalTimeAtSource:       atSource,
		ReachingTimeAtDestination: atDestination,
	})
	if err != nil {
		s.freeSeats(ctx, t.TrainID, newSeats, updatedDate)
		s.reacquireOldDate(ctx, t, count)
		return nil, fmt.Errorf("%s:%w", op, mapTicketErr(err))
	}

	t.DateOfTravel = updatedDate
	t.BookedSeatsIndex = newSeats
	t.ArrivalTimeAtSource = atSource
	t.ReachingTimeAtDestination = atDestination

	return t, nil
}

// FetchTickets resolves every ticket the user owns, in booking order.
func (s *Service) FetchTickets(ctx context.Context, userID string) ([]domain.Ticket, error) {
	const op = "service.user.FetchTickets"

	u, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	tickets, err := s.tickets.FetchAll(ctx, u.TicketsBookedIds)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return tickets, nil
}

// FetchTicketByID resolves one ticket, provided the user owns it.
func (s *Service) FetchTicketByID(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	const op = "service.user.FetchTicketByID"

	u, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	t, err := s.ownedTicket(ctx, u, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

// ownedTicket loads a ticket and checks the user owns it. Tickets owned by
// somebody else read as not found.
func (s *Service) ownedTicket(ctx context.Context, u *domain.User, ticketID string) (*domain.Ticket, error) {
	owned := false
	for _, id := range u.TicketsBookedIds {
		if strings.EqualFold(id, ticketID) {
			owned = true
			break
		}
	}
	if !owned {
		return nil, ErrTicketNotFound
	}

	t, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err)
	}

	return t, nil
}

// freeSeats is the compensation half of the protocols. It runs detached
// from the caller's deadline: an aborted booking must still release its
// cells.
func (s *Service) freeSeats(ctx context.Context, trainPrn string, seats []domain.Seat, travelDate string) {
	bg := context.WithoutCancel(ctx)
	if err := s.trains.FreeBookedSeats(bg, trainPrn, seats, travelDate); err != nil {
		s.log.Error("compensation: free seats failed",
			"train_prn", trainPrn, "travel_date", travelDate, "error", err)
	}
}

// reacquireOldDate puts a rescheduled ticket back onto its original date
// after the new-date allocation fell through. The original cells may be
// taken by now, so whatever the allocator returns is accepted and persisted.
func (s *Service) reacquireOldDate(ctx context.Context, t *domain.Ticket, count int) {
	bg := context.WithoutCancel(ctx)

	seats, err := s.trains.BookSeats(bg, t.TrainID, t.DateOfTravel, count)
	if err != nil {
		s.log.Error("compensation: re-allocating original date failed",
			"ticket_id", t.TicketID, "travel_date", t.DateOfTravel, "error", err)
		return
	}

	if seatsEqual(seats, t.BookedSeatsIndex) {
		return
	}

	err = s.tickets.Reschedule(bg, t.TicketID, t.DateOfTravel, &clients.RescheduleUpdate{
		BookedSeatsIndex:          seats,
		ArrivalTimeAtSource:       t.ArrivalTimeAtSource,
		ReachingTimeAtDestination: t.ReachingTimeAtDestination,
	})
	if err != nil {
		s.log.Error("compensation: persisting re-allocated seats failed",
			"ticket_id", t.TicketID, "error", err)
	}
}

func mapTrainErr(err error) error {
	switch {
	case errors.Is(err, clients.ErrNotEnoughSeats):
		return fmt.Errorf("%w:%w", ErrNotEnoughSeats, err)
	case errors.Is(err, clients.ErrTrainNotFound):
		return fmt.Errorf("%w:%w", ErrTrainNotFound, err)
	case errors.Is(err, clients.ErrInvalidData):
		return fmt.Errorf("%w:%w", ErrInvalidData, err)
	default:
		return err
	}
}

func mapTicketErr(err error) error {
	switch {
	case errors.Is(err, clients.ErrTicketNotFound):
		return fmt.Errorf("%w:%w", ErrTicketNotFound, err)
	case errors.Is(err, clients.ErrInvalidData):
		return fmt.Errorf("%w:%w", ErrInvalidData, err)
	default:
		return err
	}
}

// validateFutureDate accepts a well-formed travel date no earlier than
// today's UTC date.
func validateFutureDate(s string) error {
	if _, err := domain.ParseTravelDate(s); err != nil {
		return ErrInvalidData
	}
	if s < time.Now().UTC().Format(domain.TravelDateLayout) {
		return ErrInvalidData
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if !strings.EqualFold(v, id) {
			out = append(out, v)
		}
	}
	return out
}

func seatsEqual(a, b []domain.Seat) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
