package ticket_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/repository"
	"github.com/railgo/railgo/internal/service/ticket"
)

type memStore struct {
	mu          sync.Mutex
	docs        map[string]domain.Ticket
	failInserts bool
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]domain.Ticket)}
}

func (m *memStore) Insert(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInserts {
		return assert.AnError
	}
	if _, ok := m.docs[t.TicketID]; ok {
		return repository.ErrConflict
	}
	m.docs[t.TicketID] = *t
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (m *memStore) GetMany(_ context.Context, ids []string) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		if t, ok := m.docs[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[t.TicketID]; !ok {
		return repository.ErrNotFound
	}
	m.docs[t.TicketID] = *t
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func validRequest() domain.TicketRequest {
	return domain.TicketRequest{
		TrainID:          "T1",
		UserID:           "u1",
		Source:           "Alpha",
		Destination:      "Gamma",
		DateOfTravel:     "2025-06-01",
		BookedSeatsIndex: []domain.Seat{{Row: 0, Col: 0}, {Row: 0, Col: 1}},
	}
}

func TestService_Create(t *testing.T) {
	t.Run("should mint a uuid and persist the ticket", func(t *testing.T) {
		store := newMemStore()
		svc := ticket.New(store)

		id, err := svc.Create(context.Background(), validRequest())

		require.NoError(t, err)
		_, parseErr := uuid.Parse(id)
		assert.NoError(t, parseErr, "ticket id should be a uuid")

		got, err := svc.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, []domain.Seat{{Row: 0, Col: 0}, {Row: 0, Col: 1}}, got.BookedSeatsIndex)
	})

	t.Run("should reject a request with missing fields", func(t *testing.T) {
		svc := ticket.New(newMemStore())

		req := validRequest()
		req.Source = ""

		_, err := svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, ticket.ErrInvalidData)
	})

	t.Run("should reject a malformed travel date", func(t *testing.T) {
		svc := ticket.New(newMemStore())

		req := validRequest()
		req.DateOfTravel = "01-06-2025"

		_, err := svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, ticket.ErrInvalidData)
	})

	t.Run("should surface a failed write as not saved", func(t *testing.T) {
		store := newMemStore()
		store.failInserts = true
		svc := ticket.New(store)

		_, err := svc.Create(context.Background(), validRequest())
		assert.ErrorIs(t, err, ticket.ErrTicketNotSaved)
	})
}

func TestService_FetchAll(t *testing.T) {
	store := newMemStore()
	svc := ticket.New(store)

	id1, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	id2, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	t.Run("should preserve the caller's order and skip unknown ids", func(t *testing.T) {
		tickets, err := svc.FetchAll(context.Background(), []string{id2, "ghost", id1})

		require.NoError(t, err)
		require.Len(t, tickets, 2)
		assert.Equal(t, id2, tickets[0].TicketID)
		assert.Equal(t, id1, tickets[1].TicketID)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("should fail the second delete without mutating anything", func(t *testing.T) {
		store := newMemStore()
		svc := ticket.New(store)

		id, err := svc.Create(context.Background(), validRequest())
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), id))

		err = svc.Delete(context.Background(), id)
		assert.ErrorIs(t, err, ticket.ErrTicketNotFound)

		_, err = svc.FindByID(context.Background(), id)
		assert.ErrorIs(t, err, ticket.ErrTicketNotFound)
	})
}

func TestService_Reschedule(t *testing.T) {
	t.Run("should move the date and replace seats and stamps", func(t *testing.T) {
		store := newMemStore()
		svc := ticket.New(store)

		id, err := svc.Create(context.Background(), validRequest())
		require.NoError(t, err)

		newSeats := []domain.Seat{{Row: 1, Col: 0}, {Row: 1, Col: 1}}
		err = svc.Reschedule(context.Background(), id, "2025-07-04", &ticket.RescheduleUpdate{
			BookedSeatsIndex: newSeats,
		})
		require.NoError(t, err)

		got, err := svc.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-04", got.DateOfTravel)
		assert.Equal(t, newSeats, got.BookedSeatsIndex)
	})

	t.Run("should keep seats when no update body is given", func(t *testing.T) {
		store := newMemStore()
		svc := ticket.New(store)

		id, err := svc.Create(context.Background(), validRequest())
		require.NoError(t, err)

		require.NoError(t, svc.Reschedule(context.Background(), id, "2025-07-04", nil))

		got, err := svc.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-04", got.DateOfTravel)
		assert.Len(t, got.BookedSeatsIndex, 2)
	})

	t.Run("should reject a malformed date", func(t *testing.T) {
		svc := ticket.New(newMemStore())

		err := svc.Reschedule(context.Background(), "any", "July 4th", nil)
		assert.ErrorIs(t, err, ticket.ErrInvalidData)
	})

	t.Run("should fail on an unknown ticket", func(t *testing.T) {
		svc := ticket.New(newMemStore())

		err := svc.Reschedule(context.Background(), "ghost", "2025-07-04", nil)
		assert.ErrorIs(t, err, ticket.ErrTicketNotFound)
	})
}
