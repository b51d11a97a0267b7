package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetEventSeats is public: prospective buyers check availability before
// authenticating.
func (s *Server) GetEventSeats(c *gin.Context) {
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_event_id", "invalid event id"))
		return
	}

	summary, err := s.ticketSvc.ComputeAvailability(c.Request.Context(), eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
