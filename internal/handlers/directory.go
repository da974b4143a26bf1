package handlers

import (
	"net/http"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/service"

	"github.com/gin-gonic/gin"
)

type DirectoryHandler struct {
	svc service.DirectoryService
}

func NewDirectoryHandler(svc service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{svc: svc}
}

type ngoQuery struct {
	Query    string `form:"q"`
	Category string `form:"category"`
	State    string `form:"state"`
}

func (h *DirectoryHandler) ListNGOs(c *gin.Context) {
	var q ngoQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ngos := h.svc.Search(domain.NGOFilter{Query: q.Query, Category: q.Category, UF: q.State})
	c.JSON(http.StatusOK, gin.H{"ngos": ngos, "count": len(ngos)})
}

func (h *DirectoryHandler) ListStates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"states": h.svc.States()})
}

type locateQuery struct {
	Lat *float64 `form:"lat" binding:"required"`
	Lon *float64 `form:"lon" binding:"required"`
}

func (h *DirectoryHandler) Locate(c *gin.Context) {
	var q locateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}
	if *q.Lat < -90 || *q.Lat > 90 || *q.Lon < -180 || *q.Lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	state, err := h.svc.Locate(c.Request.Context(), *q.Lat, *q.Lon)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			c.Error(err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "reverse geocoding unavailable"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func ResolveTheme(c *gin.Context) {
	var prefs domain.DisplayPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	theme := domain.ResolveTheme(prefs)
	c.JSON(http.StatusOK, gin.H{"classes": theme.Classes, "rules": theme.Rules, "css": theme.CSS()})
}
