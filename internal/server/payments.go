package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

func (s *Server) CreatePaymentOrder(c *gin.Context) {
	requester, ok := requireRequester(c)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	bookingID, err := parseID(req.BookingID)
	if err != nil {
		AbortWithError(c, newValidationError("booking_id", "invalid_booking_id", "invalid booking id"))
		return
	}

	resp, err := s.paymentSvc.CreateOrder(c.Request.Context(), requester, bookingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status, err := s.paymentSvc.IngestWebhook(c.Request.Context(), payload, c.Request.Header)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "settlement": status})
}

func (s *Server) GetPaymentStatus(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		AbortWithError(c, newValidationError("orderId", "invalid_order_id", "invalid order id"))
		return
	}

	status, err := s.paymentSvc.Status(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// PollPayment reconciles against the provider for clients that missed (or
// cannot receive) the webhook.
func (s *Server) PollPayment(c *gin.Context) {
	requester, ok := requireRequester(c)
	if !ok {
		return
	}
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" {
		AbortWithError(c, newValidationError("orderId", "invalid_order_id", "invalid order id"))
		return
	}

	status, err := s.paymentSvc.Poll(c.Request.Context(), requester, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
