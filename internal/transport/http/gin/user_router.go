package httpgin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	redisrepo "github.com/railgo/railgo/internal/repository/redis"
	"github.com/railgo/railgo/internal/service/user"
)

// NewUserRouter wires the booking orchestrator's HTTP surface. idem and
// limiter may be nil; booking then runs without replay protection or
// throttling.
func NewUserRouter(
	svc *user.Service,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	users := r.Group("/v1/user")
	{
		users.POST("/signupUser", handleSignup(svc))
		users.POST("/loginUser", handleLogin(svc))
		users.POST("/bookTicket", handleBookTicket(svc, idem, limiter))
		users.POST("/cancelTicket", handleCancelTicket(svc))
		users.POST("/rescheduleTicket", handleRescheduleUserTicket(svc))
		users.GET("/fetchTickets", handleFetchTickets(svc))
		users.GET("/fetchTicketById", handleFetchTicketByID(svc))
	}

	return r
}

// @Summary  Register a new account
// @Param    userEmail  query  string  true  "email"
// @Param    password   query  string  true  "password"
// @Success  200  {object}  Envelope
// @Router   /v1/user/signupUser [post]
func handleSignup(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Signup(c.Request.Context(), c.Query("userEmail"), c.Query("password"))
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "user signed up successfully", gin.H{
			"userId":    u.UserID,
			"userEmail": u.UserEmail,
		})
	}
}

// @Summary  Verify credentials, return the account with its tickets
// @Param    userEmail  query  string  true  "email"
// @Param    password   query  string  true  "password"
// @Success  200  {object}  Envelope
// @Router   /v1/user/loginUser [post]
func handleLogin(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Login(c.Request.Context(), c.Query("userEmail"), c.Query("password"))
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "user logged in successfully", u)
	}
}

// @Summary  Book seats on a train (idempotent via Idempotency-Key)
// @Param    userId                   query  string  true  "User ID"
// @Param    trainPrn                 query  string  true  "Train PRN"
// @Param    source                   query  string  true  "source station"
// @Param    destination              query  string  true  "destination station"
// @Param    dateOfTravel             query  string  true  "yyyy-MM-dd"
// @Param    numberOfSeatsToBeBooked  query  int     true  "seat count"
// @Success  200  {object}  Envelope
// @Failure  429  {object}  Envelope  "rate limited"
// @Router   /v1/user/bookTicket [post]
func handleBookTicket(
	svc *user.Service,
	idem *redisrepo.IdempotencyStore,
	limiter *redisrepo.SlidingWindowLimiter,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		count, err := strconv.Atoi(c.Query("numberOfSeatsToBeBooked"))
		if err != nil {
			badRequest(c, "invalid numberOfSeatsToBeBooked")
			return
		}

		if limiter != nil {
			ok, _, retry, err := limiter.Allow(c.Request.Context(), "user:"+userID)
			if err == nil && !ok {
				c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				c.JSON(http.StatusTooManyRequests, Envelope{
					Status:  false,
					Message: "too many booking attempts, slow down",
				})
				return
			}
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(userID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, Envelope{
					Status:  false,
					Message: "idempotency key in progress",
				})
				return
			}
		}

		res, err := svc.Book(c.Request.Context(), user.BookTicketRequest{
			UserID:       userID,
			TrainPrn:     c.Query("trainPrn"),
			Source:       c.Query("source"),
			Destination:  c.Query("destination"),
			DateOfTravel: c.Query("dateOfTravel"),
			Count:        count,
		})
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		env := Envelope{
			Status:  true,
			Message: "ticket booked successfully",
			Data:    res,
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(env)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusOK, env)
	}
}

// @Summary  Cancel a ticket
// @Param    userId    query  string  true  "User ID"
// @Param    ticketId  query  string  true  "Ticket ID"
// @Success  200  {object}  Envelope
// @Router   /v1/user/cancelTicket [post]
func handleCancelTicket(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.Cancel(c.Request.Context(), c.Query("userId"), c.Query("ticketId"))
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "ticket cancelled successfully", nil)
	}
}

// @Summary  Move a ticket to a new travel date
// @Param    userId               query  string  true  "User ID"
// @Param    ticketId             query  string  true  "Ticket ID"
// @Param    updatedDateOfTravel  query  string  true  "yyyy-MM-dd"
// @Success  200  {object}  Envelope
// @Router   /v1/user/rescheduleTicket [post]
func handleRescheduleUserTicket(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svc.Reschedule(
			c.Request.Context(),
			c.Query("userId"),
			c.Query("ticketId"),
			c.Query("updatedDateOfTravel"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "ticket rescheduled successfully", t)
	}
}

// @Summary  Every ticket the user owns
// @Param    userId  query  string  true  "User ID"
// @Success  200  {object}  Envelope
// @Router   /v1/user/fetchTickets [get]
func handleFetchTickets(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := svc.FetchTickets(c.Request.Context(), c.Query("userId"))
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "tickets fetched successfully", tickets)
	}
}

// @Summary  One ticket the user owns
// @Param    userId    query  string  true  "User ID"
// @Param    ticketId  query  string  true  "Ticket ID"
// @Success  200  {object}  Envelope
// @Router   /v1/user/fetchTicketById [get]
func handleFetchTicketByID(svc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svc.FetchTicketByID(c.Request.Context(), c.Query("userId"), c.Query("ticketId"))
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "ticket fetched successfully", t)
	}
}
