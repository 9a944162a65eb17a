package clients

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/resilience"
)

// TrainClient talks to the train/seat engine.
type TrainClient struct {
	c *Client
}

func NewTrainClient(baseURL string, calls *resilience.Group, log *slog.Logger) *TrainClient {
	return &TrainClient{c: NewClient(baseURL, calls, log)}
}

// BookSeatsRequest is the seat-engine booking payload. The engine validates
// the route, allocates seats, and stamps the arrival times; it does not
// create the ticket.
type BookSeatsRequest struct {
	UserID                  string `json:"userId"`
	TrainPrn                string `json:"trainPrn"`
	UserEmail               string `json:"userEmail"`
	Source                  string `json:"source"`
	Destination             string `json:"destination"`
	TravelDate              string `json:"travelDate"`
	NumberOfSeatsToBeBooked int    `json:"numberOfSeatsToBeBooked"`
}

// Book validates the route and allocates seats for it in one call.
func (t *TrainClient) Book(ctx context.Context, req BookSeatsRequest) (*domain.BookingQuote, error) {
	var quote domain.BookingQuote
	err := t.c.doJSON(ctx, "train.book", http.MethodPost, "/v1/seats/book", nil, req, &quote)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// BookSeats allocates seats without route validation.
func (t *TrainClient) BookSeats(ctx context.Context, trainPrn, travelDate string, count int) ([]domain.Seat, error) {
	q := url.Values{}
	q.Set("trainPrn", trainPrn)
	q.Set("travelDate", travelDate)
	q.Set("numberOfSeatsToBeBooked", strconv.Itoa(count))

	var seats []domain.Seat
	err := t.c.doJSON(ctx, "train.bookSeats", http.MethodPost, "/v1/seats/bookSeats", q, nil, &seats)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

type freeSeatsRequest struct {
	TrainPrn        string        `json:"trainPrn"`
	BookedSeatsList []domain.Seat `json:"bookedSeatsList"`
	TravelDate      string        `json:"travelDate"`
}

// FreeBookedSeats releases previously allocated cells. Used both for
// cancellation and for compensating a failed booking.
func (t *TrainClient) FreeBookedSeats(ctx context.Context, trainPrn string, seats []domain.Seat, travelDate string) error {
	req := freeSeatsRequest{TrainPrn: trainPrn, BookedSeatsList: seats, TravelDate: travelDate}
	return t.c.doJSON(ctx, "train.freeSeats", http.MethodPut, "/v1/seats/freeBookedSeats", nil, req, nil)
}

// CanBeBooked checks that the train serves source before destination on the
// given date.
func (t *TrainClient) CanBeBooked(ctx context.Context, trainPrn, source, destination, travelDate string) error {
	q := url.Values{}
	q.Set("trainPrn", trainPrn)
	q.Set("source", source)
	q.Set("destination", destination)
	q.Set("travelDate", travelDate)

	return t.c.doJSON(ctx, "train.canBeBooked", http.MethodGet, "/v1/train/canBeBooked", q, nil, nil)
}

// ArrivalAt returns the train's arrival stamp at a station for a date, or
// nil when the engine reports no stamp.
func (t *TrainClient) ArrivalAt(ctx context.Context, trainPrn, station, travelDate string) (*domain.LocalDateTime, error) {
	q := url.Values{}
	q.Set("trainPrn", trainPrn)
	q.Set("station", station)
	q.Set("travelDate", travelDate)

	var at *domain.LocalDateTime
	err := t.c.doJSON(ctx, "train.arrivalAt", http.MethodGet, "/v1/train/arrivalAtStation", q, nil, &at)
	if err != nil {
		return nil, err
	}
	return at, nil
}
