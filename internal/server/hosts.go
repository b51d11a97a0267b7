package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) CancelHostEvent(c *gin.Context) {
	requester, ok := requireRequester(c)
	if !ok {
		return
	}
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_event_id", "invalid event id"))
		return
	}

	resp, err := s.bookingSvc.CancelEvent(c.Request.Context(), requester, eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetHostWallet(c *gin.Context) {
	requester, ok := requireRequester(c)
	if !ok {
		return
	}

	wallet, err := s.walletSvc.Balance(c.Request.Context(), requester.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

func (s *Server) ListHostWalletTransactions(c *gin.Context) {
	requester, ok := requireRequester(c)
	if !ok {
		return
	}

	items, err := s.walletSvc.ListTransactions(c.Request.Context(), requester.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}
