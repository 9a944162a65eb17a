package domain

// Train is a document in the trains collection, keyed by PRN. Seats and
// Schedules are keyed by travel date in yyyy-MM-dd form; a seat grid holds
// 0 (free) and 1 (booked) cells and every row of one grid has the same
// column count.
type Train struct {
	Prn       string                   `json:"prn"`
	TrainName string                   `json:"trainName"`
	Seats     map[string][][]int       `json:"seats"`
	Schedules map[string][]StationStop `json:"schedules"`
}

// StationStop is one ordered stop of a train's schedule for a date.
type StationStop struct {
	Name        string        `json:"name"`
	ArrivalTime LocalDateTime `json:"arrivalTime"`
}

// Ticket is a document in the tickets collection. BookedSeatsIndex preserves
// allocation order; each listed seat is marked booked in the train's grid for
// DateOfTravel for as long as the ticket exists.
type Ticket struct {
	TicketID                  string         `json:"ticketId"`
	UserID                    string         `json:"userId"`
	TrainID                   string         `json:"trainId"`
	DateOfTravel              string         `json:"dateOfTravel"`
	Source                    string         `json:"source"`
	ArrivalTimeAtSource       *LocalDateTime `json:"arrivalTimeAtSource,omitempty"`
	Destination               string         `json:"destination"`
	ReachingTimeAtDestination *LocalDateTime `json:"reachingTimeAtDestination,omitempty"`
	BookedSeatsIndex          []Seat         `json:"bookedSeatsIndex"`
}

// TicketRequest is the payload for creating a ticket in the registry.
type TicketRequest struct {
	TrainID                   string         `json:"trainId"`
	UserID                    string         `json:"userId"`
	Email                     string         `json:"email"`
	Source                    string         `json:"source"`
	Destination               string         `json:"destination"`
	DateOfTravel              string         `json:"dateOfTravel"`
	BookedSeatsIndex          []Seat         `json:"bookedSeatsIndex"`
	ArrivalTimeAtSource       *LocalDateTime `json:"arrivalTimeAtSource,omitempty"`
	ReachingTimeAtDestination *LocalDateTime `json:"reachingTimeAtDestination,omitempty"`
}

// BookingQuote is what the seat engine returns for a validated booking:
// the freshly allocated seats plus the arrival stamps at both ends of the
// journey. The caller is responsible for turning it into a ticket, and for
// freeing the seats again if it fails to.
type BookingQuote struct {
	BookedSeatsIndex          []Seat         `json:"bookedSeatsIndex"`
	ArrivalTimeAtSource       *LocalDateTime `json:"arrivalTimeAtSource,omitempty"`
	ReachingTimeAtDestination *LocalDateTime `json:"reachingTimeAtDestination,omitempty"`
}

// User is a document in the users collection. Email is unique, case-folded.
type User struct {
	UserID           string   `json:"userId"`
	UserEmail        string   `json:"userEmail"`
	HashedPassword   string   `json:"hashedPassword"`
	TicketsBookedIds []string `json:"ticketsBookedIds"`
}

// UserWithTickets is the login response shape: the user plus the resolved
// tickets, without the password hash.
type UserWithTickets struct {
	UserID     string   `json:"userId"`
	UserEmail  string   `json:"userEmail"`
	TicketList []Ticket `json:"ticketList"`
}
