// Package ticket implements the ticket registry: documents keyed by a
// freshly minted ID, created and destroyed only by the booking orchestrator.
package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/keylock"
	"github.com/railgo/railgo/internal/repository"
)

// Store is the slice of the document store the registry needs.
type Store interface {
	Insert(ctx context.Context, t *domain.Ticket) error
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	GetMany(ctx context.Context, ids []string) ([]domain.Ticket, error)
	Update(ctx context.Context, t *domain.Ticket) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store Store
	locks *keylock.KeyedMutex
}

func New(store Store) *Service {
	return &Service{
		store: store,
		locks: keylock.New(),
	}
}

// Create mints an ID for the requested ticket and persists it.
//
// Returns:
//   - string: the new ticket ID.
//   - error: ticket.ErrInvalidData on a malformed request,
//     ticket.ErrTicketNotSaved when the write fails.
func (s *Service) Create(ctx context.Context, req domain.TicketRequest) (string, error) {
	const op = "service.ticket.Create"

	if req.UserID == "" || req.TrainID == "" || req.Source == "" || req.Destination == "" {
		return "", fmt.Errorf("%s:%w", op, ErrInvalidData)
	}
	if _, err := domain.ParseTravelDate(req.DateOfTravel); err != nil {
		return "", fmt.Errorf("%s:%w", op, ErrInvalidData)
	}

	t := &domain.Ticket{
		TicketID:                  uuid.NewString(),
		UserID:                    req.UserID,
		TrainID:                   req.TrainID,
		DateOfTravel:              req.DateOfTravel,
		Source:                    req.Source,
		ArrivalTimeAtSource:       req.ArrivalTimeAtSource,
		Destination:               req.Destination,
		ReachingTimeAtDestination: req.ReachingTimeAtDestination,
		BookedSeatsIndex:          req.BookedSeatsIndex,
	}

	if err := s.store.Insert(ctx, t); err != nil {
		return "", fmt.Errorf("%s:%w:%w", op, ErrTicketNotSaved, err)
	}

	return t.TicketID, nil
}

// FindByID loads one ticket.
//
// Returns:
//   - error: ticket.ErrTicketNotFound.
func (s *Service) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const op = "service.ticket.FindByID"

	t, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrTicketNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

// FetchAll resolves a list of ticket IDs, preserving the caller's order and
// skipping IDs that no longer exist.
func (s *Service) FetchAll(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	const op = "service.ticket.FetchAll"

	tickets, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return tickets, nil
}

// Delete removes a ticket. A second delete of the same ID fails with
// ticket.ErrTicketNotFound and changes nothing.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "service.ticket.Delete"

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrTicketNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// RescheduleUpdate carries the re-allocated seats and fresh arrival stamps
// accompanying a date change. A nil update moves the date only.
type RescheduleUpdate struct {
	BookedSeatsIndex          []domain.Seat
	ArrivalTimeAtSource       *domain.LocalDateTime
	ReachingTimeAtDestination *domain.LocalDateTime
}

// Reschedule moves a ticket to a new travel date, optionally replacing its
// seats and arrival stamps. The read-modify-write runs under a per-ticket
// lock.
//
// Returns:
//   - error: ticket.ErrTicketNotFound, ticket.ErrInvalidData on a malformed
//     date, ticket.ErrTicketNotSaved when the write fails.
func (s *Service) Reschedule(ctx context.Context, id, updatedTravelDate string, upd *RescheduleUpdate) error {
	const op = "service.ticket.Reschedule"

	if _, err := domain.ParseTravelDate(updatedTravelDate); err != nil {
		return fmt.Errorf("%s:%w", op, ErrInvalidData)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrTicketNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	t.DateOfTravel = updatedTravelDate
	if upd != nil {
		t.BookedSeatsIndex = upd.BookedSeatsIndex
		t.ArrivalTimeAtSource = upd.ArrivalTimeAtSource
		t.ReachingTimeAtDestination = upd.ReachingTimeAtDestination
	}

	if err := s.store.Update(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrTicketNotFound)
		}

		return fmt.Errorf("%s:%w:%w", op, ErrTicketNotSaved, err)
	}

	return nil
}
