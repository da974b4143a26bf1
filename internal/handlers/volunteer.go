package handlers

import (
	"net/http"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/service"

	"github.com/gin-gonic/gin"
)

type VolunteerHandler struct {
	svc service.VolunteerService
}

func NewVolunteerHandler(svc service.VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{svc: svc}
}

func (h *VolunteerHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// LookupAddress answers with the masked CEP and its address. A lookup
// failure answers 502 with empty fields so the form can be filled by hand.
func (h *VolunteerHandler) LookupAddress(c *gin.Context) {
	cep := c.Param("cep")
	addr, err := h.svc.ResolveAddress(c.Request.Context(), cep)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"cep": domain.MaskCEP(cep), "address": domain.Address{}, "error": "address lookup unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cep": domain.MaskCEP(cep), "address": addr})
}

func (h *VolunteerHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	volunteers, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"volunteers": volunteers, "limit": limit, "offset": offset})
}
