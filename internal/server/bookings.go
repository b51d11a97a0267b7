package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/clubhive/clubhive/internal/booking/domain"
	"github.com/gin-gonic/gin"
)

type createBookingRequest struct {
	EventID      string `json:"event_id" binding:"required"`
	TicketTypeID string `json:"ticket_type_id" binding:"required"`
	Quantity     int64  `json:"quantity" binding:"required"`
}

func (s *Server) CreateBooking(c *gin.Context) {
	requester, ok := requireRequester(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	eventID, err := parseID(req.EventID)
	if err != nil {
		AbortWithError(c, newValidationError("event_id", "invalid_event_id", "invalid event id"))
		return
	}
	ticketTypeID, err := parseID(req.TicketTypeID)
	if err != nil {
		AbortWithError(c, newValidationError("ticket_type_id", "invalid_ticket_type_id", "invalid ticket type id"))
		return
	}

	resp, err := s.bookingSvc.Create(c.Request.Context(), requester, bookingdomain.CreateBookingRequest{
		EventID:      eventID,
		TicketTypeID: ticketTypeID,
		Quantity:     req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListMyBookings(c *gin.Context) {
	requester, ok := requireRequester(c)
	if !ok {
		return
	}

	items, err := s.bookingSvc.ListMine(c.Request.Context(), requester)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": items})
}

func (s *Server) CancelBooking(c *gin.Context) {
	requester, ok := requireRequester(c)
	if !ok {
		return
	}
	bookingID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_booking_id", "invalid booking id"))
		return
	}

	summary, err := s.bookingSvc.Cancel(c.Request.Context(), requester, bookingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": summary})
}

// ExpireHolds triggers a sweep on demand; the background sweeper runs the
// same operation on an interval.
func (s *Server) ExpireHolds(c *gin.Context) {
	if _, ok := requireRequester(c); !ok {
		return
	}

	expired, err := s.bookingSvc.ExpireStaleHolds(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

func parseID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return snowflake.ID(parsed), nil
}
