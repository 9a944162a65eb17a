package clients_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgo/railgo/internal/clients"
	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/resilience"
)

func testGroup() *resilience.Group {
	return resilience.NewGroup(resilience.Config{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MinCalls:        100,
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTrainClient(t *testing.T) {
	t.Run("should decode a booking quote from the data field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/seats/book", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": true,
				"message": "seats booked",
				"data": {
					"bookedSeatsIndex": [[0,0],[0,1]],
					"arrivalTimeAtSource": "2025-06-01T08:30:00",
					"reachingTimeAtDestination": "2025-06-01T12:45:00"
				}
			}`))
		}))
		defer srv.Close()

		tc := clients.NewTrainClient(srv.URL, testGroup(), discardLogger())

		quote, err := tc.Book(context.Background(), clients.BookSeatsRequest{
			UserID:                  "u1",
			TrainPrn:                "T1",
			Source:                  "A",
			Destination:             "B",
			TravelDate:              "2025-06-01",
			NumberOfSeatsToBeBooked: 2,
		})

		require.NoError(t, err)
		assert.Equal(t, []domain.Seat{{Row: 0, Col: 0}, {Row: 0, Col: 1}}, quote.BookedSeatsIndex)
		require.NotNil(t, quote.ArrivalTimeAtSource)
		assert.Equal(t, "2025-06-01T08:30:00", quote.ArrivalTimeAtSource.Format("2006-01-02T15:04:05"))
	})

	t.Run("should map a 4xx failure envelope to a kind and not retry it", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{
				"status": false,
				"responseStatus": "TRAIN_NOT_FOUND",
				"message": "Train not found"
			}`))
		}))
		defer srv.Close()

		tc := clients.NewTrainClient(srv.URL, testGroup(), discardLogger())

		_, err := tc.BookSeats(context.Background(), "ghost", "2025-06-01", 2)

		require.ErrorIs(t, err, clients.ErrTrainNotFound)
		assert.Equal(t, int32(1), calls.Load(), "4xx envelope must not be retried")

		var httpErr *clients.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		assert.Equal(t, "Train not found", httpErr.Message)
	})

	t.Run("should retry a transient 5xx failure envelope", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{
					"status": false,
					"responseStatus": "TRAIN_UPDATING_FAILED",
					"message": "Train update failed"
				}`))
				return
			}
			_, _ = w.Write([]byte(`{"status": true, "message": "seats booked", "data": [[0,0]]}`))
		}))
		defer srv.Close()

		tc := clients.NewTrainClient(srv.URL, testGroup(), discardLogger())

		seats, err := tc.BookSeats(context.Background(), "T1", "2025-06-01", 1)

		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, []domain.Seat{{Row: 0, Col: 0}}, seats)
	})

	t.Run("should surface the kind once 5xx retries are exhausted", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{
				"status": false,
				"responseStatus": "NOT_ENOUGH_SEATS",
				"message": "Not enough seats available"
			}`))
		}))
		defer srv.Close()

		tc := clients.NewTrainClient(srv.URL, testGroup(), discardLogger())

		_, err := tc.BookSeats(context.Background(), "T1", "2025-06-01", 99)

		require.ErrorIs(t, err, clients.ErrNotEnoughSeats)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("should return a nil arrival stamp when the envelope has no data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status": true, "message": "arrival time fetched successfully"}`))
		}))
		defer srv.Close()

		tc := clients.NewTrainClient(srv.URL, testGroup(), discardLogger())

		at, err := tc.ArrivalAt(context.Background(), "T1", "Delta", "2025-06-01")

		require.NoError(t, err)
		assert.Nil(t, at)
	})

	t.Run("should decode a present arrival stamp", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status": true, "message": "arrival time fetched successfully", "data": "2025-06-01T10:30:00"}`))
		}))
		defer srv.Close()

		tc := clients.NewTrainClient(srv.URL, testGroup(), discardLogger())

		at, err := tc.ArrivalAt(context.Background(), "T1", "Beta", "2025-06-01")

		require.NoError(t, err)
		require.NotNil(t, at)
		assert.Equal(t, "2025-06-01T10:30:00", at.Format("2006-01-02T15:04:05"))
	})

	t.Run("should retry malformed responses", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream choked"))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status": true, "message": "ok"}`))
		}))
		defer srv.Close()

		tc := clients.NewTrainClient(srv.URL, testGroup(), discardLogger())

		err := tc.CanBeBooked(context.Background(), "T1", "A", "B", "2025-06-01")

		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestTicketClient(t *testing.T) {
	t.Run("should return the minted ticket id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/tickets/createTicket", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status": true, "message": "ticket created", "data": "tkt-42"}`))
		}))
		defer srv.Close()

		tc := clients.NewTicketClient(srv.URL, testGroup(), discardLogger())

		id, err := tc.Create(context.Background(), domain.TicketRequest{TrainID: "T1", UserID: "u1"})

		require.NoError(t, err)
		assert.Equal(t, "tkt-42", id)
	})

	t.Run("should surface ticket not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status": false, "responseStatus": "TICKET_NOT_FOUND", "message": "Ticket not found"}`))
		}))
		defer srv.Close()

		tc := clients.NewTicketClient(srv.URL, testGroup(), discardLogger())

		_, err := tc.FindByID(context.Background(), "missing")
		assert.ErrorIs(t, err, clients.ErrTicketNotFound)
	})

	t.Run("should skip the call for an empty id list", func(t *testing.T) {
		tc := clients.NewTicketClient("http://127.0.0.1:1", testGroup(), discardLogger())

		tickets, err := tc.FetchAll(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, tickets)
	})
}

func TestClient_BreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer srv.Close()

	g := resilience.NewGroup(resilience.Config{
		MaxAttempts:     1,
		InitialInterval: time.Millisecond,
		MinCalls:        3,
		FailureRatio:    0.5,
	})
	tc := clients.NewTrainClient(srv.URL, g, discardLogger())

	var last error
	for i := 0; i < 5; i++ {
		last = tc.CanBeBooked(context.Background(), "T1", "A", "B", "2025-06-01")
	}

	require.Error(t, last)
	assert.True(t, errors.Is(last, resilience.ErrServiceUnavailable))
}
