package handlers

import (
	"net/http"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DonationHandler struct {
	svc service.DonationService
}

func NewDonationHandler(svc service.DonationService) *DonationHandler {
	return &DonationHandler{svc: svc}
}

type createSessionRequest struct {
	Mode domain.Mode `json:"mode"`
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *DonationHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	// an empty body means the default overlay
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Mode != "" && !req.Mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be OVERLAY or SANDBOX"})
		return
	}

	view := h.svc.Create(req.Mode)
	c.JSON(http.StatusCreated, gin.H{"id": view.SessionID, "view": view})
}

func (h *DonationHandler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.svc.View(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DonationHandler) PostEvent(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.svc.Dispatch(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DonationHandler) CloseSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.svc.Close(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DonationHandler) ListReceipts(c *gin.Context) {
	limit, offset := pagination(c)
	receipts, err := h.svc.Receipts(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts, "limit": limit, "offset": offset})
}
