package clients

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/resilience"
)

// TicketClient talks to the ticket registry.
type TicketClient struct {
	c *Client
}

func NewTicketClient(baseURL string, calls *resilience.Group, log *slog.Logger) *TicketClient {
	return &TicketClient{c: NewClient(baseURL, calls, log)}
}

// Create persists a new ticket and returns its minted ID.
func (t *TicketClient) Create(ctx context.Context, req domain.TicketRequest) (string, error) {
	var ticketID string
	err := t.c.doJSON(ctx, "ticket.create", http.MethodPost, "/v1/tickets/createTicket", nil, req, &ticketID)
	if err != nil {
		return "", err
	}
	return ticketID, nil
}

// FindByID fetches one ticket.
func (t *TicketClient) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := t.c.doJSON(ctx, "ticket.find", http.MethodGet, "/v1/tickets/"+url.PathEscape(id), nil, nil, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FetchAll resolves a list of ticket IDs, preserving their order.
func (t *TicketClient) FetchAll(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("ticketIds", strings.Join(ids, ","))

	var tickets []domain.Ticket
	err := t.c.doJSON(ctx, "ticket.fetchAll", http.MethodGet, "/v1/tickets/fetchAllTickets", q, nil, &tickets)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// Delete removes a ticket from the registry.
func (t *TicketClient) Delete(ctx context.Context, id string) error {
	return t.c.doJSON(ctx, "ticket.delete", http.MethodDelete, "/v1/tickets/"+url.PathEscape(id), nil, nil, nil)
}

// RescheduleUpdate carries the re-allocated seats and fresh arrival stamps
// for a rescheduled ticket.
type RescheduleUpdate struct {
	BookedSeatsIndex          []domain.Seat         `json:"bookedSeatsIndex"`
	ArrivalTimeAtSource       *domain.LocalDateTime `json:"arrivalTimeAtSource,omitempty"`
	ReachingTimeAtDestination *domain.LocalDateTime `json:"reachingTimeAtDestination,omitempty"`
}

// Reschedule moves a ticket to a new travel date.
func (t *TicketClient) Reschedule(ctx context.Context, id, updatedTravelDate string, upd *RescheduleUpdate) error {
	q := url.Values{}
	q.Set("updatedTravelDate", updatedTravelDate)

	var body any
	if upd != nil {
		body = upd
	}

	return t.c.doJSON(ctx, "ticket.reschedule", http.MethodPut,
		"/v1/tickets/rescheduleTicket/"+url.PathEscape(id), q, body, nil)
}
