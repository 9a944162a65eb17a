package httpgin

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/service/train"
)

// NewTrainRouter wires the train/seat engine's HTTP surface.
func NewTrainRouter(svc *train.Service, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	seats := r.Group("/v1/seats")
	{
		seats.POST("/bookSeats", handleBookSeats(svc))
		seats.POST("/book", handleBook(svc))
		seats.PUT("/freeBookedSeats", handleFreeBookedSeats(svc))
		seats.GET("/getSeatsAtParticularDate", handleGetSeats(svc))
	}

	trains := r.Group("/v1/train")
	{
		trains.GET("/canBeBooked", handleCanBeBooked(svc))
		trains.GET("/schedule", handleSchedule(svc))
		trains.GET("/arrivalAtStation", handleArrivalAtStation(svc))
		trains.POST("/addTrain", handleAddTrain(svc))
		trains.POST("/addMultipleTrains", handleAddMultipleTrains(svc))
		trains.PUT("/updateTrain", handleUpdateTrain(svc))
		trains.GET("/searchTrains", handleSearchTrains(svc))
	}

	return r
}

// @Summary  Book seats without route validation
// @Param    trainPrn                 query  string  true  "Train PRN"
// @Param    travelDate               query  string  true  "yyyy-MM-dd"
// @Param    numberOfSeatsToBeBooked  query  int     true  "seat count"
// @Success  200  {object}  Envelope
// @Router   /v1/seats/bookSeats [post]
func handleBookSeats(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := strconv.Atoi(c.Query("numberOfSeatsToBeBooked"))
		if err != nil {
			badRequest(c, "invalid numberOfSeatsToBeBooked")
			return
		}

		seats, err := svc.AllocateSeats(
			c.Request.Context(),
			c.Query("trainPrn"),
			c.Query("travelDate"),
			count,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "seats booked successfully", seats)
	}
}

// BookRequest is the validated-route booking payload.
type BookRequest struct {
	UserID                  string `json:"userId"`
	TrainPrn                string `json:"trainPrn" binding:"required"`
	UserEmail               string `json:"userEmail"`
	Source                  string `json:"source" binding:"required"`
	Destination             string `json:"destination" binding:"required"`
	TravelDate              string `json:"travelDate" binding:"required"`
	NumberOfSeatsToBeBooked int    `json:"numberOfSeatsToBeBooked" binding:"required"`
}

// @Summary  Validate the route and book seats
// @Param    req  body  BookRequest  true  "payload"
// @Success  200  {object}  Envelope
// @Router   /v1/seats/book [post]
func handleBook(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		quote, err := svc.Book(c.Request.Context(), train.BookRequest{
			TrainPrn:    req.TrainPrn,
			Source:      req.Source,
			Destination: req.Destination,
			TravelDate:  req.TravelDate,
			Count:       req.NumberOfSeatsToBeBooked,
		})
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "seats booked successfully", quote)
	}
}

// FreeSeatsRequest lists the cells to release.
type FreeSeatsRequest struct {
	TrainPrn        string        `json:"trainPrn" binding:"required"`
	BookedSeatsList []domain.Seat `json:"bookedSeatsList" binding:"required"`
	TravelDate      string        `json:"travelDate" binding:"required"`
}

// @Summary  Free previously booked seats
// @Param    req  body  FreeSeatsRequest  true  "payload"
// @Success  200  {object}  Envelope
// @Router   /v1/seats/freeBookedSeats [put]
func handleFreeBookedSeats(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FreeSeatsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		err := svc.FreeSeats(c.Request.Context(), req.TrainPrn, req.TravelDate, req.BookedSeatsList)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "seats freed successfully", nil)
	}
}

// @Summary  Seat map for one date
// @Param    trainPrn    query  string  true  "Train PRN"
// @Param    travelDate  query  string  true  "yyyy-MM-dd"
// @Success  200  {object}  Envelope
// @Router   /v1/seats/getSeatsAtParticularDate [get]
func handleGetSeats(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		grid, err := svc.SeatsFor(c.Request.Context(), c.Query("trainPrn"), c.Query("travelDate"))
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, Envelope{
			Status:  true,
			Message: "seats fetched successfully",
			Data:    grid,
		}, "public, max-age=15", true)
	}
}

// @Summary  Check that a train serves source before destination
// @Param    trainPrn     query  string  true  "Train PRN"
// @Param    source       query  string  true  "source station"
// @Param    destination  query  string  true  "destination station"
// @Param    travelDate   query  string  true  "yyyy-MM-dd"
// @Success  200  {object}  Envelope
// @Router   /v1/train/canBeBooked [get]
func handleCanBeBooked(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.CanBeBooked(
			c.Request.Context(),
			c.Query("trainPrn"),
			c.Query("source"),
			c.Query("destination"),
			c.Query("travelDate"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "train can be booked", nil)
	}
}

// @Summary  Schedule for one date
// @Param    trainPrn    query  string  true  "Train PRN"
// @Param    travelDate  query  string  true  "yyyy-MM-dd"
// @Success  200  {object}  Envelope
// @Router   /v1/train/schedule [get]
func handleSchedule(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stops, err := svc.Schedule(c.Request.Context(), c.Query("trainPrn"), c.Query("travelDate"))
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, Envelope{
			Status:  true,
			Message: "schedule fetched successfully",
			Data:    stops,
		}, "public, max-age=60", true)
	}
}

// @Summary  Arrival stamp of a station on a date
// @Param    trainPrn    query  string  true  "Train PRN"
// @Param    station     query  string  true  "station name"
// @Param    travelDate  query  string  true  "yyyy-MM-dd"
// @Success  200  {object}  Envelope
// @Router   /v1/train/arrivalAtStation [get]
func handleArrivalAtStation(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		at, err := svc.ArrivalAt(
			c.Request.Context(),
			c.Query("trainPrn"),
			c.Query("station"),
			c.Query("travelDate"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "arrival time fetched successfully", at)
	}
}

// @Summary  Add a train
// @Param    req  body  domain.Train  true  "train document"
// @Success  200  {object}  Envelope
// @Router   /v1/train/addTrain [post]
func handleAddTrain(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var t domain.Train
		if err := c.ShouldBindJSON(&t); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svc.AddTrain(c.Request.Context(), &t); err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "train added successfully", t.Prn)
	}
}

// @Summary  Add a batch of trains, skipping existing PRNs
// @Param    req  body  []domain.Train  true  "train documents"
// @Success  200  {object}  Envelope
// @Router   /v1/train/addMultipleTrains [post]
func handleAddMultipleTrains(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var trains []domain.Train
		if err := c.ShouldBindJSON(&trains); err != nil {
			badRequest(c, err.Error())
			return
		}

		added, err := svc.AddTrains(c.Request.Context(), trains)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "trains added successfully", added)
	}
}

// @Summary  Replace a train document
// @Param    req  body  domain.Train  true  "train document"
// @Success  200  {object}  Envelope
// @Router   /v1/train/updateTrain [put]
func handleUpdateTrain(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var t domain.Train
		if err := c.ShouldBindJSON(&t); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svc.UpdateTrain(c.Request.Context(), &t); err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "train updated successfully", t.Prn)
	}
}

// @Summary  Trains serving a route on a date
// @Param    source       query  string  true  "source station"
// @Param    destination  query  string  true  "destination station"
// @Param    travelDate   query  string  true  "yyyy-MM-dd"
// @Success  200  {object}  Envelope
// @Router   /v1/train/searchTrains [get]
func handleSearchTrains(svc *train.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		trains, err := svc.SearchTrains(
			c.Request.Context(),
			c.Query("source"),
			c.Query("destination"),
			c.Query("travelDate"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "trains fetched successfully", trains)
	}
}
