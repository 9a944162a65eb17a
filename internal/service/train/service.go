// Package train implements the train catalog and the seat engine: per-date
// schedules and seat grids, route validation, and the allocate/free seat
// mutations every booking protocol builds on.
package train

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/keylock"
	"github.com/railgo/railgo/internal/repository"
	redisrepo "github.com/railgo/railgo/internal/repository/redis"
	"github.com/railgo/railgo/internal/seatgrid"
)

// casAttempts bounds the optimistic-write retry loop. The in-process keyed
// lock already serializes local writers, so a conflict means another
// instance touched the same train.
const casAttempts = 3

const cacheTTL = 5 * time.Minute

// Store is the slice of the document store the seat engine needs.
type Store interface {
	Insert(ctx context.Context, t *domain.Train) error
	Get(ctx context.Context, prn string) (*domain.Train, int64, error)
	Update(ctx context.Context, t *domain.Train, version int64) error
	Upsert(ctx context.Context, t *domain.Train) error
	All(ctx context.Context) ([]domain.Train, error)
}

type Service struct {
	store  Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.TrainsPubSub
	locks  *keylock.KeyedMutex
}

// New builds the seat engine. cache and pubsub may be nil; the engine then
// serves straight from the store and skips change broadcasts.
func New(store Store, cache *redisrepo.Cache, pubsub *redisrepo.TrainsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		locks:  keylock.New(),
	}
}

func seatKey(prn, travelDate string) string {
	return prn + "|" + travelDate
}

// AddTrain registers a new train.
//
// Returns:
//   - error: train.ErrTrainAlreadyExists when the PRN is taken,
//     train.ErrInvalidData on a malformed document.
func (s *Service) AddTrain(ctx context.Context, t *domain.Train) error {
	const op = "service.train.AddTrain"

	if err := validateTrain(t); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.store.Insert(ctx, t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%s:%w", op, ErrTrainAlreadyExists)
		}

		return fmt.Errorf("%s:%w:%w", op, ErrTrainSaveFailed, err)
	}

	return nil
}

// AddTrains registers a batch of trains, skipping PRNs that already exist.
//
// Returns:
//   - []string: PRNs actually added, in input order.
func (s *Service) AddTrains(ctx context.Context, trains []domain.Train) ([]string, error) {
	const op = "service.train.AddTrains"

	added := make([]string, 0, len(trains))
	for i := range trains {
		err := s.AddTrain(ctx, &trains[i])
		if errors.Is(err, ErrTrainAlreadyExists) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("%s:%w", op, err)
		}
		added = append(added, trains[i].Prn)
	}

	return added, nil
}

// UpdateTrain replaces a train document wholesale and drops every cached
// view of it.
func (s *Service) UpdateTrain(ctx context.Context, t *domain.Train) error {
	const op = "service.train.UpdateTrain"

	if err := validateTrain(t); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if _, _, err := s.store.Get(ctx, t.Prn); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrTrainNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.store.Upsert(ctx, t); err != nil {
		return fmt.Errorf("%s:%w:%w", op, ErrTrainUpdateFailed, err)
	}

	for date := range t.Seats {
		s.invalidate(ctx, t.Prn, date)
	}
	for date := range t.Schedules {
		s.invalidate(ctx, t.Prn, date)
	}

	return nil
}

// FindByPrn loads one train document.
func (s *Service) FindByPrn(ctx context.Context, prn string) (*domain.Train, error) {
	const op = "service.train.FindByPrn"

	t, _, err := s.store.Get(ctx, prn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrTrainNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return t, nil
}

// Schedule returns the ordered station stops of a train on a date.
//
// Returns:
//   - error: train.ErrTrainNotFound, train.ErrInvalidData when the train has
//     no schedule for the date.
func (s *Service) Schedule(ctx context.Context, prn, travelDate string) ([]domain.StationStop, error) {
	const op = "service.train.Schedule"

	load := func(ctx context.Context) ([]domain.StationStop, error) {
		t, _, err := s.store.Get(ctx, prn)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrTrainNotFound
			}
			return nil, err
		}

		stops, ok := t.Schedules[travelDate]
		if !ok {
			return nil, ErrInvalidData
		}
		return stops, nil
	}

	var (
		stops []domain.StationStop
		err   error
	)
	if s.cache != nil {
		stops, err = redisrepo.GetOrSetJSON(
			ctx, s.cache, redisrepo.KeyTrainSchedule(prn, travelDate), cacheTTL, load,
		)
	} else {
		stops, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return stops, nil
}

// SeatsFor returns the seat grid of a train on a date.
func (s *Service) SeatsFor(ctx context.Context, prn, travelDate string) ([][]int, error) {
	const op = "service.train.SeatsFor"

	load := func(ctx context.Context) ([][]int, error) {
		t, _, err := s.store.Get(ctx, prn)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrTrainNotFound
			}
			return nil, err
		}

		grid, ok := t.Seats[travelDate]
		if !ok {
			return nil, ErrInvalidData
		}
		return grid, nil
	}

	var (
		grid [][]int
		err  error
	)
	if s.cache != nil {
		grid, err = redisrepo.GetOrSetJSON(
			ctx, s.cache, redisrepo.KeyTrainSeats(prn, travelDate), cacheTTL, load,
		)
	} else {
		grid, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return grid, nil
}

// CanBeBooked verifies that the train stops at source before destination on
// the travel date. Station names compare case-insensitively.
//
// Returns:
//   - error: train.ErrInvalidData when the date has no schedule or the
//     stations are absent or out of order, train.ErrTrainNotFound.
func (s *Service) CanBeBooked(ctx context.Context, prn, source, destination, travelDate string) error {
	const op = "service.train.CanBeBooked"

	t, _, err := s.store.Get(ctx, prn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrTrainNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	if !routeServed(t, source, destination, travelDate) {
		return fmt.Errorf("%s:%w", op, ErrInvalidData)
	}

	return nil
}

// ArrivalAt returns the arrival stamp of a station on a date, or nil when
// the schedule or station is absent.
func (s *Service) ArrivalAt(ctx context.Context, prn, station, travelDate string) (*domain.LocalDateTime, error) {
	const op = "service.train.ArrivalAt"

	stops, err := s.Schedule(ctx, prn, travelDate)
	if err != nil {
		if errors.Is(err, ErrInvalidData) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	for _, stop := range stops {
		if strings.EqualFold(stop.Name, station) {
			at := stop.ArrivalTime
			return &at, nil
		}
	}

	return nil, nil
}

// SearchTrains lists the trains that serve source before destination on the
// travel date.
func (s *Service) SearchTrains(ctx context.Context, source, destination, travelDate string) ([]domain.Train, error) {
	const op = "service.train.SearchTrains"

	if source == "" || destination == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidData)
	}
	if _, err := domain.ParseTravelDate(travelDate); err != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidData)
	}

	all, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	matched := make([]domain.Train, 0)
	for _, t := range all {
		if routeServed(&t, source, destination, travelDate) {
			matched = append(matched, t)
		}
	}

	return matched, nil
}

// AllocateSeats books count seats on the train's grid for the date and
// persists the mutated document. Selection and the 0->1 flips happen under
// an exclusive per-(prn, date) lock; the write is compare-and-swap so a
// concurrent writer on another instance cannot be lost.
//
// Returns:
//   - []domain.Seat: the booked cells in allocation order.
//   - error: train.ErrNotEnoughSeats, train.ErrTrainNotFound,
//     train.ErrInvalidData when count <= 0 or no grid exists for the date.
func (s *Service) AllocateSeats(ctx context.Context, prn, travelDate string, count int) ([]domain.Seat, error) {
	const op = "service.train.AllocateSeats"

	if count <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidData)
	}
	if _, err := domain.ParseTravelDate(travelDate); err != nil {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidData)
	}

	var picked []domain.Seat
	err := s.mutateGrid(ctx, prn, travelDate, func(grid [][]int) error {
		seats, err := seatgrid.Allocate(grid, count)
		if err != nil {
			if errors.Is(err, seatgrid.ErrNotEnoughSeats) {
				return ErrNotEnoughSeats
			}
			return ErrInvalidData
		}
		picked = seats
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return picked, nil
}

// FreeSeats releases the listed cells on the train's grid for the date.
// Freeing an already-free cell is a no-op.
//
// Returns:
//   - error: train.ErrInvalidData on an out-of-range index,
//     train.ErrTrainNotFound.
func (s *Service) FreeSeats(ctx context.Context, prn, travelDate string, seats []domain.Seat) error {
	const op = "service.train.FreeSeats"

	err := s.mutateGrid(ctx, prn, travelDate, func(grid [][]int) error {
		if err := seatgrid.Free(grid, seats); err != nil {
			return ErrInvalidData
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// BookRequest is a validated-route seat allocation: who is booking what.
type BookRequest struct {
	TrainPrn    string
	Source      string
	Destination string
	TravelDate  string
	Count       int
}

// Book validates the route, allocates seats, and stamps the arrival times at
// both ends. It returns a quote only; turning the quote into a ticket, and
// freeing the seats again if that fails, is the caller's job.
func (s *Service) Book(ctx context.Context, req BookRequest) (*domain.BookingQuote, error) {
	const op = "service.train.Book"

	if err := s.CanBeBooked(ctx, req.TrainPrn, req.Source, req.Destination, req.TravelDate); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	seats, err := s.AllocateSeats(ctx, req.TrainPrn, req.TravelDate, req.Count)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	atSource, err := s.ArrivalAt(ctx, req.TrainPrn, req.Source, req.TravelDate)
	if err != nil {
		s.releaseSeats(ctx, req.TrainPrn, req.TravelDate, seats)
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	atDestination, err := s.ArrivalAt(ctx, req.TrainPrn, req.Destination, req.TravelDate)
	if err != nil {
		s.releaseSeats(ctx, req.TrainPrn, req.TravelDate, seats)
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &domain.BookingQuote{
		BookedSeatsIndex:          seats,
		ArrivalTimeAtSource:       atSource,
		ReachingTimeAtDestination: atDestination,
	}, nil
}

// releaseSeats undoes an allocation whose quote could not be completed. It
// runs detached from the caller's deadline; no ticket will ever reference
// these cells, so they must go back.
func (s *Service) releaseSeats(ctx context.Context, prn, travelDate string, seats []domain.Seat) {
	_ = s.FreeSeats(context.WithoutCancel(ctx), prn, travelDate, seats)
}

// mutateGrid runs one read-modify-write of a train's grid for a date under
// the per-(prn, date) lock, retrying the compare-and-swap on cross-instance
// version conflicts.
func (s *Service) mutateGrid(
	ctx context.Context,
	prn, travelDate string,
	mutate func(grid [][]int) error,
) error {
	unlock := s.locks.Lock(seatKey(prn, travelDate))
	defer unlock()

	for attempt := 0; attempt < casAttempts; attempt++ {
		t, version, err := s.store.Get(ctx, prn)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTrainNotFound
			}
			return err
		}

		grid, ok := t.Seats[travelDate]
		if !ok {
			return ErrInvalidData
		}

		if err := mutate(grid); err != nil {
			return err
		}

		err = s.store.Update(ctx, t, version)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTrainNotFound
			}
			return err
		}

		s.invalidate(ctx, prn, travelDate)
		return nil
	}

	return repository.ErrVersionConflict
}

func (s *Service) invalidate(ctx context.Context, prn, travelDate string) {
	if s.cache != nil {
		_ = s.cache.InvalidateTrain(ctx, prn, travelDate)
	}
	if s.pubsub != nil {
		_ = s.pubsub.PublishTrainChanged(ctx, prn, travelDate)
	}
}

func validateTrain(t *domain.Train) error {
	if t == nil || t.Prn == "" {
		return ErrInvalidData
	}
	for date, grid := range t.Seats {
		if _, err := domain.ParseTravelDate(date); err != nil {
			return ErrInvalidData
		}
		if !seatgrid.Rectangular(grid) {
			return ErrInvalidData
		}
	}
	for date := range t.Schedules {
		if _, err := domain.ParseTravelDate(date); err != nil {
			return ErrInvalidData
		}
	}
	return nil
}

func routeServed(t *domain.Train, source, destination, travelDate string) bool {
	stops, ok := t.Schedules[travelDate]
	if !ok {
		return false
	}

	srcIdx, dstIdx := -1, -1
	for i, stop := range stops {
		if srcIdx < 0 && strings.EqualFold(stop.Name, source) {
			srcIdx = i
		}
		if dstIdx < 0 && strings.EqualFold(stop.Name, destination) {
			dstIdx = i
		}
	}

	return srcIdx >= 0 && dstIdx >= 0 && srcIdx < dstIdx
}
