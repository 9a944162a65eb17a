package httpgin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/service/mail"
)

// NewMailRouter wires the notification sink's HTTP surface.
func NewMailRouter(svc *mail.Service, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/v1/email/sendEmail", handleSendEmail(svc))

	return r
}

// @Summary  Mail the booking details of a ticket
// @Param    email  query  string         true  "destination address"
// @Param    req    body   domain.Ticket  true  "ticket payload"
// @Success  200  {object}  Envelope
// @Router   /v1/email/sendEmail [post]
func handleSendEmail(svc *mail.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		if email == "" {
			badRequest(c, "missing email")
			return
		}

		var t domain.Ticket
		if err := c.ShouldBindJSON(&t); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svc.SendBookingDetails(c.Request.Context(), email, t); err != nil {
			respondErr(c, err)
			return
		}

		respondOK(c, "email sent successfully", nil)
	}
}
