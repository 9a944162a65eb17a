// Package mail renders the booking-details email and hands it to an SMTP
// dialer. Sending is best effort; the booking itself never depends on it.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	gomail "gopkg.in/gomail.v2"

	"github.com/railgo/railgo/internal/domain"
)

const subject = "Your Train Ticket Booking Details"

// stampLayout renders arrival times the way they appear in the email body,
// e.g. "June 01, 2025 at 08:30 AM".
const stampLayout = "January 02, 2006 at 03:04 PM"

var bodyTmpl = template.Must(template.New("booking").Parse(`<html><body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
<div style="max-width: 600px; background-color: #fff; padding: 20px; border-radius: 8px; box-shadow: 0 0 10px rgba(0,0,0,0.1); margin: auto;">
<h2 style="color: #007bff; text-align: center;">Train Ticket Booking Details</h2>
<p style="font-size: 16px; color: #333;">Hello,</p>
<p style="font-size: 16px; color: #333;">Your ticket for travelling is confirmed. Ticket details are mentioned below:</p>
<ul style="font-size: 16px; color: #555;">
<li><strong>Train ID:</strong> {{.TrainID}}</li>
<li><strong>Date of Travel:</strong> {{.DateOfTravel}}</li>
<li><strong>Source:</strong> {{.Source}} (Arrival: {{.ArrivalAtSource}})</li>
<li><strong>Destination:</strong> {{.Destination}} (Arrival: {{.ArrivalAtDestination}})</li>
<li><strong>Booked Seats:</strong> {{.BookedSeats}}</li>
</ul>
<p style="font-size: 16px; color: #333;">If you did not request this, please ignore this email.</p>
<p style="font-size: 16px; text-align: center;"><strong>Thank you for using our service!</strong></p>
</div></body></html>`))

// Dialer sends one assembled message. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Service struct {
	dialer Dialer
	from   string
}

func New(dialer Dialer, from string) *Service {
	return &Service{dialer: dialer, from: from}
}

type bodyData struct {
	TrainID              string
	DateOfTravel         string
	Source               string
	ArrivalAtSource      string
	Destination          string
	ArrivalAtDestination string
	BookedSeats          string
}

// SendBookingDetails mails the ticket summary to the given address.
//
// Returns:
//   - error: mail.ErrMailNotSent on any rendering or transport failure.
func (s *Service) SendBookingDetails(ctx context.Context, email string, t domain.Ticket) error {
	const op = "service.mail.SendBookingDetails"

	body, err := renderBody(t)
	if err != nil {
		return fmt.Errorf("%s:%w:%w", op, ErrMailNotSent, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s:%w:%w", op, ErrMailNotSent, err)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("%s:%w:%w", op, ErrMailNotSent, err)
	}

	return nil
}

func renderBody(t domain.Ticket) (string, error) {
	data := bodyData{
		TrainID:      t.TrainID,
		DateOfTravel: t.DateOfTravel,
		Source:       t.Source,
		Destination:  t.Destination,
		BookedSeats:  formatSeats(t.BookedSeatsIndex),
	}
	if t.ArrivalTimeAtSource != nil {
		data.ArrivalAtSource = t.ArrivalTimeAtSource.Format(stampLayout)
	}
	if t.ReachingTimeAtDestination != nil {
		data.ArrivalAtDestination = t.ReachingTimeAtDestination.Format(stampLayout)
	}

	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatSeats(seats []domain.Seat) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, s := range seats {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "[%d, %d]", s.Row, s.Col)
	}
	buf.WriteByte(']')
	return buf.String()
}
