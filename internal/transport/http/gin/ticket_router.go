package httpgin

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/service/ticket"
)

// NewTicketRouter wires the ticket registry's HTTP surface.
func NewTicketRouter(svc *ticket.Service, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	tickets := r.Group("/v1/tickets")
	{
		tickets.POST("/createTicket", handleCreateTicket(svc))
		tickets.GET("/fetchAllTickets", handleFetchAllTickets(svc))
		tickets.GET("/:id", handleGetTicket(svc))
		tickets.DELETE("/:id", handleDeleteTicket(svc))
		tickets.PUT("/rescheduleTicket/:id", handleRescheduleTicket(svc))
	}

	return r
}

// @Summary  Create a ticket
// @Param    req  body  domain.TicketRequest  true  "payload"
// @Success  200  {object}  Envelope
// @Router   /v1/tickets/createTicket [post]
func handleCreateTicket(svc *ticket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.TicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		id, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "ticket created successfully", id)
	}
}

// @Summary  Get one ticket
// @Param    id  path  string  true  "Ticket ID"
// @Success  200  {object}  Envelope
// @Router   /v1/tickets/{id} [get]
func handleGetTicket(svc *ticket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svc.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "ticket fetched successfully", t)
	}
}

// @Summary  Resolve a comma-separated list of ticket IDs
// @Param    ticketIds  query  string  true  "comma-separated IDs"
// @Success  200  {object}  Envelope
// @Router   /v1/tickets/fetchAllTickets [get]
func handleFetchAllTickets(svc *ticket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ids []string
		for _, id := range strings.Split(c.Query("ticketIds"), ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}

		tickets, err := svc.FetchAll(c.Request.Context(), ids)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "tickets fetched successfully", tickets)
	}
}

// @Summary  Delete a ticket
// @Param    id  path  string  true  "Ticket ID"
// @Success  200  {object}  Envelope
// @Router   /v1/tickets/{id} [delete]
func handleDeleteTicket(svc *ticket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "ticket deleted successfully", nil)
	}
}

// RescheduleRequest optionally carries re-allocated seats and fresh arrival
// stamps alongside the date move.
type RescheduleRequest struct {
	BookedSeatsIndex          []domain.Seat         `json:"bookedSeatsIndex"`
	ArrivalTimeAtSource       *domain.LocalDateTime `json:"arrivalTimeAtSource"`
	ReachingTimeAtDestination *domain.LocalDateTime `json:"reachingTimeAtDestination"`
}

// @Summary  Move a ticket to a new travel date
// @Param    id                 path   string  true  "Ticket ID"
// @Param    updatedTravelDate  query  string  true  "yyyy-MM-dd"
// @Param    req                body   RescheduleRequest  false  "optional seats and stamps"
// @Success  200  {object}  Envelope
// @Router   /v1/tickets/rescheduleTicket/{id} [put]
func handleRescheduleTicket(svc *ticket.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd *ticket.RescheduleUpdate

		var req RescheduleRequest
		switch err := c.ShouldBindJSON(&req); {
		case err == nil:
			upd = &ticket.RescheduleUpdate{
				BookedSeatsIndex:          req.BookedSeatsIndex,
				ArrivalTimeAtSource:       req.ArrivalTimeAtSource,
				ReachingTimeAtDestination: req.ReachingTimeAtDestination,
			}
		case err == io.EOF:
			// empty body: the registry moves the date and keeps the seats
		default:
			badRequest(c, err.Error())
			return
		}

		err := svc.Reschedule(c.Request.Context(), c.Param("id"), c.Query("updatedTravelDate"), upd)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "ticket rescheduled successfully", nil)
	}
}
