package clients

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/resilience"
)

// MailClient talks to the notification sink.
type MailClient struct {
	c *Client
}

func NewMailClient(baseURL string, calls *resilience.Group, log *slog.Logger) *MailClient {
	return &MailClient{c: NewClient(baseURL, calls, log)}
}

// Send asks the sink to mail the booking details to the given address.
func (m *MailClient) Send(ctx context.Context, email string, ticket domain.Ticket) error {
	q := url.Values{}
	q.Set("email", email)

	return m.c.doJSON(ctx, "mail.send", http.MethodPost, "/v1/email/sendEmail", q, ticket, nil)
}
